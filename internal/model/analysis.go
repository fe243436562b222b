package model

import "time"

// Prediction modes reported in MLPrediction.Mode.
const (
	PredictionModeModel    = "model"
	PredictionModeFallback = "fallback"
)

// MLPrediction is the approval predictor output.
type MLPrediction struct {
	ApprovalProbability float64 `json:"approval_probability"`
	Mode                string  `json:"mode"`
}

// ViabilityBreakdown is the additive decomposition of the viability score.
// Penalties are recorded as values <= 0 and the bonus as a value >= 0, so
// Raw() reproduces the pre-clamp score.
type ViabilityBreakdown struct {
	BaseScore                float64 `json:"base_score"`
	ConstraintPenalty        float64 `json:"constraint_penalty"`
	FloodPenalty             float64 `json:"flood_penalty"`
	MarketStrengthBonus      float64 `json:"market_strength_bonus"`
	ProjectComplexityPenalty float64 `json:"project_complexity_penalty"`
}

// Raw sums the breakdown entries.
func (b ViabilityBreakdown) Raw() float64 {
	return b.BaseScore + b.ConstraintPenalty + b.FloodPenalty + b.MarketStrengthBonus + b.ProjectComplexityPenalty
}

// AnalysisResult is the assembled output of one analysis run. It is shared
// through the result cache and must not be modified once built.
type AnalysisResult struct {
	Postcode           string             `json:"postcode"`
	Location           Location           `json:"location"`
	Constraints        Constraints        `json:"constraints"`
	PlanningMetrics    PlanningMetrics    `json:"planning_metrics"`
	MarketMetrics      MarketMetrics      `json:"market_metrics"`
	Schools            []School           `json:"schools"`
	MLPrediction       MLPrediction       `json:"ml_prediction"`
	ViabilityScore     float64            `json:"viability_score"`
	ViabilityBreakdown ViabilityBreakdown `json:"viability_breakdown"`
	ProjectParams      ProjectParams      `json:"project_params"`
	OverridesApplied   []string           `json:"overrides_applied,omitempty"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// PlanningReport is the narrative report produced from an AnalysisResult.
type PlanningReport struct {
	OverallOutlook          string   `json:"overall_outlook"`
	KeyRisks                []string `json:"key_risks"`
	StrategicRecommendation string   `json:"strategic_recommendation"`
	RiskMitigation          []string `json:"risk_mitigation"`
}

// ReportResponse wraps a generated report.
type ReportResponse struct {
	ID          string         `json:"id"`
	Postcode    string         `json:"postcode"`
	Report      PlanningReport `json:"report"`
	FromCache   bool           `json:"from_cache"`
	GeneratedAt time.Time      `json:"generated_at"`
}
