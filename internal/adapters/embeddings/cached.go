package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"meridian/pkg/logger"
)

// VectorStore persists embedding vectors keyed by text hash so repeated
// deep queries over the same reviews do not re-call the remote backend.
type VectorStore interface {
	GetVectors(ctx context.Context, model string, hashes []string) (map[string][]float32, error)
	PutVectors(ctx context.Context, model string, vectors map[string][]float32) error
}

// CachedProvider decorates a Provider with a persistent vector cache.
// Store failures are logged and degrade to the inner provider; the cache
// never fails a request.
type CachedProvider struct {
	inner Provider
	store VectorStore
	log   *logger.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps a provider with a vector store.
func NewCachedProvider(inner Provider, store VectorStore) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		store: store,
		log:   logger.Get().With("component", "embedding_cache", "provider", inner.Name()),
	}
}

// Name implements Provider.
func (p *CachedProvider) Name() string { return p.inner.Name() }

// Dimensions implements Provider.
func (p *CachedProvider) Dimensions() int { return p.inner.Dimensions() }

// GenerateEmbedding implements Provider.
func (p *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateBatchEmbeddings looks up every text in the store first and only
// sends the misses to the inner provider.
func (p *CachedProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = hashText(text)
	}

	cached, err := p.store.GetVectors(ctx, p.inner.Name(), hashes)
	if err != nil {
		p.log.Warnw("vector store lookup failed, bypassing cache", "error", err)
		cached = nil
	}

	result := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, h := range hashes {
		if vec, ok := cached[h]; ok {
			result[i] = vec
			continue
		}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return result, nil
	}

	fresh, err := p.inner.GenerateBatchEmbeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	toStore := make(map[string][]float32, len(fresh))
	for j, vec := range fresh {
		i := missIdx[j]
		result[i] = vec
		toStore[hashes[i]] = vec
	}

	if err := p.store.PutVectors(ctx, p.inner.Name(), toStore); err != nil {
		p.log.Warnw("vector store write failed", "error", err, "vectors", len(toStore))
	}

	return result, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
