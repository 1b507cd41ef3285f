package sentiment

import (
	"context"

	"meridian/internal/adapters/ai"
	"meridian/internal/ml"
	"meridian/pkg/errors"
)

var classNames = []string{"negative", "positive"}

// Classifier performs ML-based review sentiment classification using an
// ONNX model trained on hand-crafted text features. It is a drop-in
// alternative to the lexicon backend behind the same ai.Classifier
// interface.
type Classifier struct {
	model *ml.ONNXModel
}

var _ ai.Classifier = (*Classifier)(nil)

// NewClassifier creates a sentiment classifier with a loaded ONNX model.
func NewClassifier(modelPath string) (*Classifier, error) {
	model, err := ml.LoadONNXModel(modelPath, classNames)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sentiment model")
	}

	return &Classifier{model: model}, nil
}

// Name implements ai.Classifier.
func (c *Classifier) Name() string { return "onnx" }

// Classify runs ML inference on the review text.
func (c *Classifier) Classify(_ context.Context, text string) (ai.Classification, error) {
	if c.model == nil {
		return ai.Classification{}, errors.New("classifier model is not loaded")
	}

	features := ExtractFeatures(text)

	label, probabilities, err := c.model.Predict(features.ToFeatureVector())
	if err != nil {
		return ai.Classification{}, errors.Wrap(err, "classification failed")
	}

	return ai.Classification{
		Label: label,
		Score: probabilities[label],
	}, nil
}

// Close cleans up the classifier resources.
func (c *Classifier) Close() {
	if c.model != nil {
		c.model.Destroy()
		c.model = nil
	}
}
