// Package viability turns an approval probability and site features into a
// 0-100 development viability score with an additive breakdown.
package viability

import (
	"math"

	"github.com/sells-group/planpilot/internal/model"
)

const (
	baseWeight = 80

	conservationPenalty = 8
	greenbeltPenalty    = 10
	article4Penalty     = 5

	floodZone3Penalty = 12
	floodZone2Penalty = 6

	areaThresholdM2   = 100
	areaDivisor       = 50
	maxAreaPenalty    = 8
	perExtraStorey    = 3
	maxPriceBonus     = 15
	priceBonusDivisor = 500
	maxTrendBonus     = 5
	trendMultiplier   = 50

	maxScore = 100
)

var typeSurcharge = map[model.ApplicationType]float64{
	model.AppNewBuild:       5,
	model.AppChangeOfUse:    4,
	model.AppListedBuilding: 7,
	model.AppDemolition:     6,
}

// Input carries the effective (post-override) values the score depends on.
type Input struct {
	Probability float64
	Constraints model.Constraints
	Market      model.MarketMetrics
	Project     model.ProjectParams
}

// Score computes the viability score and its breakdown. Each component is
// rounded to 2 decimal places; penalties are recorded as values <= 0. The
// score is the clamped sum of the recorded components, so
// breakdown.Raw() reproduces it exactly whenever no clamping applies.
func Score(in Input) (float64, model.ViabilityBreakdown) {
	b := model.ViabilityBreakdown{
		BaseScore:                model.Round(in.Probability*baseWeight, 2),
		ConstraintPenalty:        penalty(constraintPenalty(in.Constraints)),
		FloodPenalty:             penalty(floodPenalty(in.Constraints.FloodZone)),
		MarketStrengthBonus:      model.Round(marketBonus(in.Market), 2),
		ProjectComplexityPenalty: penalty(projectPenalty(in.Project)),
	}
	raw := model.Round(b.Raw(), 2)
	return math.Max(0, math.Min(maxScore, raw)), b
}

func constraintPenalty(c model.Constraints) float64 {
	var p float64
	if c.InConservationArea {
		p += conservationPenalty
	}
	if c.InGreenbelt {
		p += greenbeltPenalty
	}
	if c.InArticle4Zone {
		p += article4Penalty
	}
	return p
}

func floodPenalty(zone int) float64 {
	switch zone {
	case 3:
		return floodZone3Penalty
	case 2:
		return floodZone2Penalty
	default:
		return 0
	}
}

func projectPenalty(p model.ProjectParams) float64 {
	var pen float64
	if p.EstimatedFloorAreaM2 > areaThresholdM2 {
		pen += math.Min(maxAreaPenalty, (p.EstimatedFloorAreaM2-areaThresholdM2)/areaDivisor)
	}
	if p.NumStoreys > 1 {
		pen += float64(p.NumStoreys-1) * perExtraStorey
	}
	return pen + typeSurcharge[p.ApplicationType]
}

// marketBonus rewards price level and rising prices. A falling market earns
// no trend bonus but is never penalised.
func marketBonus(m model.MarketMetrics) float64 {
	price := math.Min(maxPriceBonus, m.AvgPricePerM2/priceBonusDivisor)
	trend := math.Min(maxTrendBonus, math.Max(0, m.PriceTrend24m*trendMultiplier))
	return price + trend
}

// penalty negates a non-negative amount for the breakdown, keeping zero as
// +0 rather than -0 in the JSON output.
func penalty(amount float64) float64 {
	if amount == 0 {
		return 0
	}
	return -model.Round(amount, 2)
}
