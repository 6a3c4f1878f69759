package ml

import (
	"errors"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Sample is one labelled training point.
type Sample struct {
	Value float64 `csv:"value"`
	Label int     `csv:"label"`
}

// DefaultDataset is the fixed training set the shipped artifact is fit on.
func DefaultDataset() []Sample {
	return []Sample{
		{Value: 20, Label: 0},
		{Value: 25, Label: 0},
		{Value: 30, Label: 1},
		{Value: 35, Label: 1},
	}
}

// LoadDataset reads samples from a CSV file with a value,label header.
func LoadDataset(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var samples []Sample
	if err := gocsv.UnmarshalFile(file, &samples); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, errors.New("dataset is empty")
	}
	return samples, nil
}
