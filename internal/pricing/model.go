package pricing

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// LogisticModel is a linear sell-probability estimator over Features
type LogisticModel struct {
	Intercept float64
	weights   []float64
}

type modelFile struct {
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// NewLogisticModel creates a model from weights in feature order
func NewLogisticModel(intercept float64, weights Features) *LogisticModel {
	return &LogisticModel{
		Intercept: intercept,
		weights:   append([]float64(nil), weights[:]...),
	}
}

// LoadModel reads model coefficients from a YAML file
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes model coefficients keyed by feature name.
// Features without a coefficient get weight 0; unknown names are an error.
func ParseModel(data []byte) (*LogisticModel, error) {
	var mf modelFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	index := make(map[string]int, NumFeatures)
	for i, name := range FeatureNames {
		index[name] = i
	}

	var w Features
	for name, v := range mf.Coefficients {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("unknown model feature %q", name)
		}
		w[i] = v
	}
	return NewLogisticModel(mf.Intercept, w), nil
}

// SellProbability is the logistic of the weighted feature sum
func (m *LogisticModel) SellProbability(f Features) (float64, error) {
	z := m.Intercept + floats.Dot(m.weights, f[:])
	if math.IsNaN(z) {
		return 0, fmt.Errorf("model produced NaN")
	}
	return 1 / (1 + math.Exp(-z)), nil
}
