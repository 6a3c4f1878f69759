package ml

import (
	"errors"
	"math"
	"testing"
)

func trainDefault(t *testing.T) *LogisticRegression {
	t.Helper()
	model := NewLogisticRegression(1)
	if err := model.Train(DefaultDataset()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model
}

func TestLogisticRegressionTrainPredict(t *testing.T) {
	model := trainDefault(t)

	cases := map[float64]int{20: 0, 25: 0, 30: 1, 35: 1}
	for x, want := range cases {
		label, err := model.Predict(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != want {
			t.Fatalf("predict(%v): expected label %d, got %d", x, want, label)
		}
	}
}

func TestLogisticRegressionMonotonic(t *testing.T) {
	model := trainDefault(t)

	prev := 0
	for x := -100.0; x <= 200; x += 0.25 {
		label, err := model.Predict(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != 0 && label != 1 {
			t.Fatalf("predict(%v): label %d outside {0,1}", x, label)
		}
		if label < prev {
			t.Fatalf("prediction decreased at %v", x)
		}
		again, _ := model.Predict(x)
		if again != label {
			t.Fatalf("predict(%v) not deterministic: %d then %d", x, label, again)
		}
		prev = label
	}
}

func TestLogisticRegressionBoundary(t *testing.T) {
	model := trainDefault(t)

	boundary, ok := model.Boundary()
	if !ok {
		t.Fatal("expected a decision boundary")
	}
	// The default dataset is symmetric around 27.5.
	if math.Abs(boundary-27.5) > 0.5 {
		t.Fatalf("expected boundary near 27.5, got %v", boundary)
	}
	coef, _ := model.Coefficients()
	if coef <= 0 {
		t.Fatalf("expected positive coefficient, got %v", coef)
	}
}

func TestLogisticRegressionTrainRejectsBadData(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
	}{
		{name: "empty", samples: nil},
		{name: "single class", samples: []Sample{{Value: 1, Label: 0}, {Value: 2, Label: 0}}},
		{name: "label out of range", samples: []Sample{{Value: 1, Label: 0}, {Value: 2, Label: 2}}},
		{name: "non-finite feature", samples: []Sample{{Value: math.Inf(1), Label: 0}, {Value: 2, Label: 1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := NewLogisticRegression(1).Train(tc.samples); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	model := NewLogisticRegression(0)
	if _, err := model.Predict(1); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if err := model.Save(t.TempDir() + "/model.json"); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestLogisticRegressionPredictNonFinite(t *testing.T) {
	model := trainDefault(t)
	if _, err := model.Predict(math.NaN()); err == nil {
		t.Fatal("expected error for NaN")
	}
}

func TestEvaluate(t *testing.T) {
	model := trainDefault(t)

	evaluation, err := Evaluate(model, DefaultDataset())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evaluation.Accuracy != 1 {
		t.Fatalf("expected accuracy 1, got %v", evaluation.Accuracy)
	}
	if evaluation.LogLoss <= 0 || evaluation.LogLoss >= math.Ln2 {
		t.Fatalf("unexpected log loss %v", evaluation.LogLoss)
	}
	if evaluation.Samples != 4 {
		t.Fatalf("expected 4 samples, got %d", evaluation.Samples)
	}
}
