package ml

import "errors"

var (
	// ErrNotFitted is returned when a model is used before Train or Load.
	ErrNotFitted = errors.New("model not trained")

	// ErrInvalidArtifact marks an artifact that exists but cannot be used.
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// Classifier maps one scalar feature to a class label in {0, 1}.
// Implementations are immutable once fitted and safe for concurrent use.
type Classifier interface {
	Predict(x float64) (int, error)
}

// TrainableClassifier is a Classifier that can be fitted, persisted and
// restored from its artifact.
type TrainableClassifier interface {
	Classifier
	Train(samples []Sample) error
	Save(path string) error
	Load(path string) error
}
