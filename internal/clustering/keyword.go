package clustering

import (
	"context"
	"sort"
	"strings"

	"meridian/internal/domain/insight"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "it": true, "its": true,
	"this": true, "that": true, "i": true, "my": true, "me": true, "we": true,
	"you": true, "your": true, "of": true, "to": true, "in": true, "on": true,
	"for": true, "with": true, "at": true, "by": true, "as": true, "be": true,
	"so": true, "very": true, "not": true, "have": true, "has": true, "had": true,
	"product": true, "item": true, "one": true, "would": true, "get": true,
	"got": true, "just": true, "really": true, "will": true, "can": true,
}

const maxSampleTexts = 3

// KeywordClusterer groups texts by their most salient shared keyword.
// It is the deterministic default backend; the embedding clusterer can be
// swapped in without touching the sentiment agent.
type KeywordClusterer struct{}

// NewKeywordClusterer creates the keyword-overlap clusterer.
func NewKeywordClusterer() *KeywordClusterer {
	return &KeywordClusterer{}
}

// Name implements Service.
func (c *KeywordClusterer) Name() string { return "keyword" }

// Cluster ranks stopword-filtered keywords by document frequency and builds
// one cluster per top keyword (up to k), each holding the texts mentioning
// it. Fewer texts than k yields fewer clusters, not an error.
func (c *KeywordClusterer) Cluster(_ context.Context, texts []string, k int) ([]insight.TopicCluster, error) {
	if len(texts) == 0 || k <= 0 {
		return nil, nil
	}

	// Document frequency per keyword.
	docFreq := make(map[string]int)
	tokenized := make([]map[string]bool, len(texts))
	for i, text := range texts {
		tokens := salientTokens(text)
		tokenized[i] = tokens
		for tok := range tokens {
			docFreq[tok]++
		}
	}

	type kw struct {
		word  string
		count int
	}
	var ranked []kw
	for w, n := range docFreq {
		if n >= 2 { // a topic needs at least two mentions
			ranked = append(ranked, kw{w, n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	var clusters []insight.TopicCluster
	claimed := make(map[int]bool)
	for _, top := range ranked {
		cluster := insight.TopicCluster{Keywords: []string{top.word}}
		var members []int
		for i := range texts {
			if claimed[i] || !tokenized[i][top.word] {
				continue
			}
			claimed[i] = true
			members = append(members, i)
			cluster.MemberCount++
			if len(cluster.SampleTexts) < maxSampleTexts {
				cluster.SampleTexts = append(cluster.SampleTexts, texts[i])
			}
		}
		if cluster.MemberCount >= 2 {
			// Secondary keywords: tokens shared by most members.
			cluster.Keywords = append(cluster.Keywords, coKeywords(top.word, tokenized, members)...)
			clusters = append(clusters, cluster)
		}
	}

	return clusters, nil
}

func salientTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?;:()[]\"'")
		if len(tok) >= 3 && !stopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// coKeywords finds up to two additional tokens common to the cluster's own
// members. Texts claimed by earlier clusters stay out of the ranking even
// when they mention the primary token.
func coKeywords(primary string, tokenized []map[string]bool, members []int) []string {
	freq := make(map[string]int)
	for _, i := range members {
		for tok := range tokenized[i] {
			if tok != primary {
				freq[tok]++
			}
		}
	}

	type kw struct {
		word  string
		count int
	}
	var ranked []kw
	for w, n := range freq {
		if n*2 >= len(members) { // present in at least half the members
			ranked = append(ranked, kw{w, n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	var out []string
	for i := 0; i < len(ranked) && i < 2; i++ {
		out = append(out, ranked[i].word)
	}
	return out
}
