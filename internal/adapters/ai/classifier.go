package ai

import "context"

// Classification is a binary sentiment verdict from a classifier backend.
// Remapping low-confidence verdicts to neutral happens in the sentiment
// agent, not here.
type Classification struct {
	Label string  // "positive" or "negative"
	Score float64 // [0,1]
}

// Classifier classifies short review texts.
// Implementations can use different backends: the built-in lexicon,
// an ONNX model, or a remote service. Callers truncate input before
// calling Classify.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)

	// Name returns the backend name for logging and metrics.
	Name() string
}
