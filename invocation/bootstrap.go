package invocation

import (
	"fmt"

	"mlinfer/config"
	"mlinfer/logger"
	"mlinfer/ml"
	"mlinfer/service"
)

// NewDispatcherFromConfig loads the model named by cfg once and builds the
// dispatcher every host serves from. An error means the process must exit
// without serving.
func NewDispatcherFromConfig(cfg *config.Config) (*Dispatcher, error) {
	modelPath := config.ResolveModelPath(cfg.ML.ModelPath)
	model, err := ml.LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	logger.Infof("model loaded from %s", modelPath)
	return NewDispatcher(service.NewPredictor(model)), nil
}
