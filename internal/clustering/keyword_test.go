package clustering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClusterer_GroupsBySharedKeyword(t *testing.T) {
	c := NewKeywordClusterer()

	texts := []string{
		"battery drains too quickly",
		"battery barely lasts half a day",
		"shipping took three weeks",
		"shipping was slow and the box arrived crushed",
		"love the color",
	}

	clusters, err := c.Cluster(context.Background(), texts, 3)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	for _, cl := range clusters {
		assert.Equal(t, 2, cl.MemberCount)
		assert.NotEmpty(t, cl.Keywords)
		assert.NotEmpty(t, cl.SampleTexts)
	}
}

func TestKeywordClusterer_EmptyInput(t *testing.T) {
	c := NewKeywordClusterer()

	clusters, err := c.Cluster(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestKeywordClusterer_CoKeywordsScopedToMembers(t *testing.T) {
	c := NewKeywordClusterer()

	// Texts 0-4 form the screen cluster; two of them also mention battery.
	// The battery cluster is built from the remaining texts only, so its
	// secondary keywords must come from those, not from the screen texts.
	texts := []string{
		"screen flicker dim",
		"screen flicker dark",
		"screen flicker battery warm",
		"screen flicker battery warm",
		"screen glare sunlight",
		"battery drains quickly",
		"battery drains overnight",
	}

	clusters, err := c.Cluster(context.Background(), texts, 2)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, "screen", clusters[0].Keywords[0])
	assert.Equal(t, 5, clusters[0].MemberCount)

	battery := clusters[1]
	require.Equal(t, "battery", battery.Keywords[0])
	assert.Equal(t, 2, battery.MemberCount)
	assert.Contains(t, battery.Keywords, "drains")
	assert.NotContains(t, battery.Keywords, "flicker")
	assert.NotContains(t, battery.Keywords, "screen")
	assert.NotContains(t, battery.Keywords, "warm")
}
