package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadModel reads the artifact at path and returns the fitted classifier it
// describes. Any error means the process must not serve.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	var model TrainableClassifier
	switch header.Type {
	case ModelTypeLogisticRegression:
		model = NewLogisticRegression(1)
	default:
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrInvalidArtifact, header.Type)
	}

	if err := model.Load(path); err != nil {
		return nil, err
	}
	return model, nil
}
