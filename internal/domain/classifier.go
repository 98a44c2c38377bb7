package domain

import "context"

// Classifier is the opaque classification model. It is the expensive call
// the result cache exists to avoid. Language may be empty, in which case
// the model detects it.
type Classifier interface {
	Classify(ctx context.Context, text, language string) (Prediction, error)

	// ModelVersion identifies the model so cache keys roll over when the
	// model changes.
	ModelVersion() string
}
