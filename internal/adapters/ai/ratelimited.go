package ai

import (
	"context"

	"golang.org/x/time/rate"

	"meridian/pkg/errors"
)

// RateLimitedClassifier wraps a classifier with a token-bucket limiter so
// model-backed backends are not hammered by large review batches.
type RateLimitedClassifier struct {
	inner   Classifier
	limiter *rate.Limiter
}

// NewRateLimitedClassifier wraps inner with the given requests-per-second limit.
func NewRateLimitedClassifier(inner Classifier, rps float64, burst int) *RateLimitedClassifier {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClassifier{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name implements Classifier.
func (c *RateLimitedClassifier) Name() string { return c.inner.Name() }

// Classify waits for limiter clearance, then delegates.
func (c *RateLimitedClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Classification{}, errors.Wrapf(errors.ErrRateLimitExceeded, "classifier %s: %v", c.inner.Name(), err)
	}
	return c.inner.Classify(ctx, text)
}
