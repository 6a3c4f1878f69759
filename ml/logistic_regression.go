package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/optimize"
)

const (
	ModelTypeLogisticRegression = "logistic_regression"

	artifactVersion = 1

	// Stop once the largest gradient component falls below this.
	gradientTolerance = 1e-4
)

// LogisticRegression is a single-feature binary logistic regression with an
// L2 penalty on the coefficient. The intercept is not penalised.
type LogisticRegression struct {
	// C is the inverse regularisation strength.
	C float64

	coef      float64
	intercept float64
	samples   int
	trainedAt time.Time
	fitted    bool
}

// artifact is the on-disk form of a fitted model.
type artifact struct {
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Classes   []int     `json:"classes"`
	Samples   int       `json:"n_samples"`
	TrainedAt time.Time `json:"trained_at"`
}

var _ TrainableClassifier = (*LogisticRegression)(nil)

func NewLogisticRegression(c float64) *LogisticRegression {
	if c <= 0 {
		c = 1
	}
	return &LogisticRegression{C: c}
}

// Train fits the model by minimising the penalised log loss with L-BFGS.
func (lr *LogisticRegression) Train(samples []Sample) error {
	if len(samples) == 0 {
		return errors.New("training set is empty")
	}
	if lr.C <= 0 {
		lr.C = 1
	}

	var negatives, positives int
	for _, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("feature %v is not a finite number", s.Value)
		}
		switch s.Label {
		case 0:
			negatives++
		case 1:
			positives++
		default:
			return fmt.Errorf("label %d out of range, want 0 or 1", s.Label)
		}
	}
	if negatives == 0 || positives == 0 {
		return errors.New("training set must contain both classes")
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			return lr.objective(samples, w, nil)
		},
		Grad: func(grad, w []float64) {
			lr.objective(samples, w, grad)
		},
	}
	settings := &optimize.Settings{GradientThreshold: gradientTolerance}
	result, err := optimize.Minimize(problem, []float64{0, 0}, settings, &optimize.LBFGS{})
	if err != nil {
		return fmt.Errorf("fit logistic regression: %w", err)
	}

	coef, intercept := result.X[0], result.X[1]
	if math.IsNaN(coef) || math.IsNaN(intercept) {
		return errors.New("fit logistic regression: diverged")
	}

	lr.coef = coef
	lr.intercept = intercept
	lr.samples = len(samples)
	lr.trainedAt = time.Now().UTC()
	lr.fitted = true
	return nil
}

// objective returns the penalised negative log likelihood at w = (coef,
// intercept) and, when grad is non-nil, stores its gradient there.
func (lr *LogisticRegression) objective(samples []Sample, w []float64, grad []float64) float64 {
	coef, intercept := w[0], w[1]
	loss := 0.5 * coef * coef / lr.C

	var gCoef, gIntercept float64
	for _, s := range samples {
		z := coef*s.Value + intercept
		y := float64(s.Label)
		loss += softplus(z) - y*z

		residual := sigmoid(z) - y
		gCoef += residual * s.Value
		gIntercept += residual
	}

	if grad != nil {
		grad[0] = gCoef + coef/lr.C
		grad[1] = gIntercept
	}
	return loss
}

// Predict returns 1 when x is at or above the decision boundary, 0 below it.
func (lr *LogisticRegression) Predict(x float64) (int, error) {
	if !lr.fitted {
		return 0, ErrNotFitted
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("feature %v is not a finite number", x)
	}
	if lr.DecisionFunction(x) >= 0 {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) DecisionFunction(x float64) float64 {
	return lr.coef*x + lr.intercept
}

// Probability returns P(label = 1 | x).
func (lr *LogisticRegression) Probability(x float64) float64 {
	return sigmoid(lr.DecisionFunction(x))
}

// Boundary returns the input at which the predicted label switches.
// ok is false when the coefficient is zero and no boundary exists.
func (lr *LogisticRegression) Boundary() (boundary float64, ok bool) {
	if !lr.fitted || lr.coef == 0 {
		return 0, false
	}
	return -lr.intercept / lr.coef, true
}

func (lr *LogisticRegression) Coefficients() (coef, intercept float64) {
	return lr.coef, lr.intercept
}

func (lr *LogisticRegression) Save(path string) error {
	if !lr.fitted {
		return ErrNotFitted
	}
	payload, err := json.MarshalIndent(artifact{
		Type:      ModelTypeLogisticRegression,
		Version:   artifactVersion,
		Coef:      []float64{lr.coef},
		Intercept: lr.intercept,
		Classes:   []int{0, 1},
		Samples:   lr.samples,
		TrainedAt: lr.trainedAt,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return lr.unmarshalArtifact(payload)
}

func (lr *LogisticRegression) unmarshalArtifact(payload []byte) error {
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if a.Type != ModelTypeLogisticRegression {
		return fmt.Errorf("%w: type %q is not %s", ErrInvalidArtifact, a.Type, ModelTypeLogisticRegression)
	}
	if a.Version != artifactVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidArtifact, a.Version)
	}
	if len(a.Coef) != 1 {
		return fmt.Errorf("%w: expected 1 coefficient, got %d", ErrInvalidArtifact, len(a.Coef))
	}
	if len(a.Classes) != 2 || a.Classes[0] != 0 || a.Classes[1] != 1 {
		return fmt.Errorf("%w: classes must be [0 1], got %v", ErrInvalidArtifact, a.Classes)
	}
	for _, v := range []float64{a.Coef[0], a.Intercept} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrInvalidArtifact)
		}
	}

	lr.coef = a.Coef[0]
	lr.intercept = a.Intercept
	lr.samples = a.Samples
	lr.trainedAt = a.TrainedAt
	lr.fitted = true
	if lr.C <= 0 {
		lr.C = 1
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflowing for large z.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
