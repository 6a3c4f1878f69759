package ml

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
)

// probabilities are clipped before taking logs
const logLossEpsilon = 1e-15

type Evaluation struct {
	Accuracy float64
	LogLoss  float64
	Samples  int
}

// Evaluate scores a fitted model against labelled samples.
func Evaluate(model *LogisticRegression, samples []Sample) (Evaluation, error) {
	if len(samples) == 0 {
		return Evaluation{}, errors.New("no samples to evaluate")
	}

	var correct int
	losses := make([]float64, 0, len(samples))
	for _, s := range samples {
		label, err := model.Predict(s.Value)
		if err != nil {
			return Evaluation{}, err
		}
		if label == s.Label {
			correct++
		}

		p := math.Min(math.Max(model.Probability(s.Value), logLossEpsilon), 1-logLossEpsilon)
		if s.Label == 1 {
			losses = append(losses, -math.Log(p))
		} else {
			losses = append(losses, -math.Log(1-p))
		}
	}

	logLoss, err := stats.Mean(losses)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Accuracy: float64(correct) / float64(len(samples)),
		LogLoss:  logLoss,
		Samples:  len(samples),
	}, nil
}
