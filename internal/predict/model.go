package predict

import (
	"errors"
	"io/fs"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Classifier returns the positive-class (approval) probability for a
// feature vector laid out as FeatureNames.
type Classifier interface {
	PositiveProbability(features []float64) (float64, error)
}

// LogisticModel is an exported logistic-regression approval model. Mean and
// Scale, when present, standardise each feature before the linear term.
type LogisticModel struct {
	Version      string    `yaml:"version" json:"version"`
	TrainedAt    string    `yaml:"trained_at" json:"trained_at"`
	FeatureNames []string  `yaml:"feature_names" json:"feature_names"`
	Intercept    float64   `yaml:"intercept" json:"intercept"`
	Coefficients []float64 `yaml:"coefficients" json:"coefficients"`
	Mean         []float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	Scale        []float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// LoadModel reads a model artifact from path. YAML and JSON are both
// accepted. A missing file returns nil, nil: running without a model is a
// normal state.
func LoadModel(path string) (*LogisticModel, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "predict: read model %s", path)
	}

	var m LogisticModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "predict: parse model %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, eris.Wrapf(err, "predict: invalid model %s", path)
	}
	return &m, nil
}

// Validate checks the artifact matches the feature layout.
func (m *LogisticModel) Validate() error {
	if len(m.Coefficients) != NumFeatures {
		return eris.Errorf("expected %d coefficients, got %d", NumFeatures, len(m.Coefficients))
	}
	if len(m.FeatureNames) > 0 {
		if len(m.FeatureNames) != NumFeatures {
			return eris.Errorf("expected %d feature names, got %d", NumFeatures, len(m.FeatureNames))
		}
		for i, name := range m.FeatureNames {
			if name != FeatureNames[i] {
				return eris.Errorf("feature %d is %q, expected %q", i, name, FeatureNames[i])
			}
		}
	}
	if len(m.Mean) != 0 && len(m.Mean) != NumFeatures {
		return eris.Errorf("expected %d means, got %d", NumFeatures, len(m.Mean))
	}
	if len(m.Scale) != 0 {
		if len(m.Scale) != NumFeatures {
			return eris.Errorf("expected %d scales, got %d", NumFeatures, len(m.Scale))
		}
		for i, s := range m.Scale {
			if s == 0 {
				return eris.Errorf("scale for %s is zero", FeatureNames[i])
			}
		}
	}
	return nil
}

// PositiveProbability implements Classifier.
func (m *LogisticModel) PositiveProbability(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, eris.Errorf("predict: expected %d features, got %d", len(m.Coefficients), len(features))
	}
	z := m.Intercept
	for i, x := range features {
		if len(m.Mean) > 0 {
			x -= m.Mean[i]
		}
		if len(m.Scale) > 0 {
			x /= m.Scale[i]
		}
		z += m.Coefficients[i] * x
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, eris.New("predict: model produced NaN")
	}
	return p, nil
}
