// Package service holds the prediction service built once per process
// around the loaded classifier.
package service

import (
	"errors"

	"mlinfer/ml"
	"mlinfer/monitoring"
)

// Kind classifies the outcome of a prediction.
type Kind int

const (
	KindSuccess Kind = iota
	KindMissingField
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindMissingField:
		return "missing_field"
	default:
		return "failure"
	}
}

// Result is the outcome of one prediction. Which fields are set depends on
// Kind: Input and Label for success, Field for a missing field, Err for a
// failure.
type Result struct {
	Kind  Kind
	Input Input
	Label int
	Field string
	Err   error
}

// Predictor is immutable after construction and safe for concurrent use.
type Predictor struct {
	classifier ml.Classifier
}

func NewPredictor(classifier ml.Classifier) *Predictor {
	return &Predictor{classifier: classifier}
}

// Predict decodes body and classifies its value. A nil body means the
// request carried no body at all.
func (p *Predictor) Predict(body *string) Result {
	result := p.predict(body)
	monitoring.PredictionCount.WithLabelValues(result.Kind.String()).Inc()
	return result
}

func (p *Predictor) predict(body *string) Result {
	if body == nil {
		return Result{Kind: KindMissingField, Field: FieldBody}
	}

	input, err := DecodeInput(*body)
	if err != nil {
		var missing *MissingFieldError
		if errors.As(err, &missing) {
			return Result{Kind: KindMissingField, Field: missing.Field}
		}
		return Result{Kind: KindFailure, Err: err}
	}

	label, err := p.classifier.Predict(input.Value)
	if err != nil {
		return Result{Kind: KindFailure, Err: err}
	}
	return Result{Kind: KindSuccess, Input: input, Label: label}
}
