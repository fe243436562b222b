// Package predict estimates the probability that a planning application is
// approved, either from a trained model or from fixed rules when no model is
// loaded.
package predict

import (
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/model"
)

// Predictor produces approval probabilities. It is immutable after New and
// safe for concurrent use.
type Predictor struct {
	classifier Classifier
}

// New creates a Predictor. A nil classifier selects the rule-based fallback
// for every prediction.
func New(classifier Classifier) *Predictor {
	return &Predictor{classifier: classifier}
}

// FromFile loads the model artifact at path and builds a Predictor. A missing
// artifact yields a fallback-mode Predictor.
func FromFile(path string) (*Predictor, error) {
	m, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return New(nil), nil
	}
	return New(m), nil
}

// ModelLoaded reports whether predictions use the classifier.
func (p *Predictor) ModelLoaded() bool {
	return p != nil && p.classifier != nil
}

// Mode returns model.PredictionModeModel or model.PredictionModeFallback.
func (p *Predictor) Mode() string {
	if p.ModelLoaded() {
		return model.PredictionModeModel
	}
	return model.PredictionModeFallback
}

// Predict returns the approval probability in [0,1], rounded to 4 decimal
// places. It never fails: a classifier error falls back to the rules.
func (p *Predictor) Predict(in Input) model.MLPrediction {
	base, mode := p.base(in)
	prob := clamp01(base + projectAdjustment(in.Project, in.Constraints))
	return model.MLPrediction{
		ApprovalProbability: model.Round(prob, probabilityPrecision),
		Mode:                mode,
	}
}

func (p *Predictor) base(in Input) (float64, string) {
	if p.ModelLoaded() {
		prob, err := p.classifier.PositiveProbability(in.Vector())
		if err == nil {
			return clamp01(prob), model.PredictionModeModel
		}
		zap.L().Warn("classifier failed, using fallback rules", zap.Error(err))
	}
	return fallbackProbability(in.Constraints, in.Planning), model.PredictionModeFallback
}
