package clustering

import (
	"context"
	"math"
	"sort"

	"meridian/internal/adapters/embeddings"
	"meridian/internal/domain/insight"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

const kmeansMaxIterations = 25

// EmbeddingClusterer groups texts by k-means over their embedding vectors.
// Cluster keywords are recovered lexically from the member texts, so the
// output shape matches the keyword backend.
type EmbeddingClusterer struct {
	provider embeddings.Provider
	log      *logger.Logger
}

// NewEmbeddingClusterer creates a clusterer backed by the given embedding provider.
func NewEmbeddingClusterer(provider embeddings.Provider) *EmbeddingClusterer {
	return &EmbeddingClusterer{
		provider: provider,
		log:      logger.Get().With("component", "embedding_clusterer", "provider", provider.Name()),
	}
}

// Name implements Service.
func (c *EmbeddingClusterer) Name() string { return "embedding" }

// Cluster embeds all texts in one batch call and runs k-means with
// deterministic spread-out seeding. Clusters with fewer than two members
// are dropped.
func (c *EmbeddingClusterer) Cluster(ctx context.Context, texts []string, k int) ([]insight.TopicCluster, error) {
	if len(texts) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(texts) {
		k = len(texts)
	}

	vectors, err := c.provider.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "batch embedding failed")
	}
	if len(vectors) != len(texts) {
		return nil, errors.Wrapf(errors.ErrInternal, "expected %d vectors, got %d", len(texts), len(vectors))
	}

	assignments := kmeans(vectors, k)

	clusters := make([]insight.TopicCluster, 0, k)
	for ci := 0; ci < k; ci++ {
		var members []string
		for i, a := range assignments {
			if a == ci {
				members = append(members, texts[i])
			}
		}
		if len(members) < 2 {
			continue
		}
		cluster := insight.TopicCluster{
			Keywords:    memberKeywords(members),
			MemberCount: len(members),
		}
		for i := 0; i < len(members) && i < maxSampleTexts; i++ {
			cluster.SampleTexts = append(cluster.SampleTexts, members[i])
		}
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].MemberCount > clusters[j].MemberCount
	})

	c.log.Debug("Clustered texts",
		"texts", len(texts),
		"k", k,
		"clusters", len(clusters))

	return clusters, nil
}

// kmeans assigns each vector to one of k clusters. Seeding picks the first
// vector, then each farthest remaining vector, which keeps runs reproducible
// without a random source.
func kmeans(vectors [][]float32, k int) []int {
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vectors[0])
	for len(centroids) < k {
		farIdx, farDist := 0, -1.0
		for i, v := range vectors {
			d := math.MaxFloat64
			for _, c := range centroids {
				if dd := sqDistance(v, c); dd < d {
					d = dd
				}
			}
			if d > farDist {
				farDist, farIdx = d, i
			}
		}
		centroids = append(centroids, vectors[farIdx])
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, math.MaxFloat64
			for ci, c := range centroids {
				if d := sqDistance(v, c); d < bestDist {
					best, bestDist = ci, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute centroids as member means.
		dims := len(vectors[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for ci := range sums {
			sums[ci] = make([]float64, dims)
		}
		for i, v := range vectors {
			ci := assignments[i]
			counts[ci]++
			for d, val := range v {
				sums[ci][d] += float64(val)
			}
		}
		for ci := range centroids {
			if counts[ci] == 0 {
				continue // keep previous centroid for empty clusters
			}
			next := make([]float32, dims)
			for d := range next {
				next[d] = float32(sums[ci][d] / float64(counts[ci]))
			}
			centroids[ci] = next
		}
	}

	return assignments
}

func sqDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// memberKeywords derives up to three labels for a cluster from the tokens
// most shared across its member texts.
func memberKeywords(members []string) []string {
	freq := make(map[string]int)
	for _, text := range members {
		for tok := range salientTokens(text) {
			freq[tok]++
		}
	}

	type kw struct {
		word  string
		count int
	}
	var ranked []kw
	for w, n := range freq {
		if n >= 2 {
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
	for i := 0; i < len(ranked) && i < 3; i++ {
		out = append(out, ranked[i].word)
	}
	if len(out) == 0 {
		out = []string{"misc"}
	}
	return out
}
