package predict

import (
	"math"

	"github.com/sells-group/planpilot/internal/model"
)

var applicationTypeDelta = map[model.ApplicationType]float64{
	model.AppExtension:      0,
	model.AppLoftConversion: -0.02,
	model.AppNewBuild:       -0.08,
	model.AppChangeOfUse:    -0.06,
	model.AppListedBuilding: -0.12,
	model.AppDemolition:     -0.10,
	model.AppOther:          -0.04,
}

var propertyTypeDelta = map[model.PropertyType]float64{
	model.PropDetached:     0.02,
	model.PropSemiDetached: 0,
	model.PropTerraced:     -0.01,
	model.PropFlat:         -0.03,
	model.PropCommercial:   -0.05,
	model.PropLand:         0.01,
}

const (
	perExtraStorey        = 0.04
	floorAreaThresholdM2  = 50
	floorAreaDivisor      = 500
	maxFloorAreaDeduction = 0.10
	conservationListedHit = 0.08
	fallbackFloodZone3    = 0.15
	fallbackFloodZone2    = 0.07
	fallbackConservation  = 0.10
	fallbackGreenbelt     = 0.12
	fallbackArticle4      = 0.08
	probabilityPrecision  = 4
)

// fallbackProbability starts from the local approval rate and deducts a
// fixed amount per constraint.
func fallbackProbability(c model.Constraints, p model.PlanningMetrics) float64 {
	prob := p.LocalApprovalRate
	switch c.FloodZone {
	case 3:
		prob -= fallbackFloodZone3
	case 2:
		prob -= fallbackFloodZone2
	}
	if c.InConservationArea {
		prob -= fallbackConservation
	}
	if c.InGreenbelt {
		prob -= fallbackGreenbelt
	}
	if c.InArticle4Zone {
		prob -= fallbackArticle4
	}
	return clamp01(prob)
}

// projectAdjustment is the total delta the project parameters apply on top
// of the base probability, in either mode.
func projectAdjustment(project model.ProjectParams, c model.Constraints) float64 {
	delta := applicationTypeDelta[project.ApplicationType] + propertyTypeDelta[project.PropertyType]

	if project.NumStoreys > 1 {
		delta -= perExtraStorey * float64(project.NumStoreys-1)
	}
	if project.EstimatedFloorAreaM2 > floorAreaThresholdM2 {
		delta -= math.Min(maxFloorAreaDeduction, (project.EstimatedFloorAreaM2-floorAreaThresholdM2)/floorAreaDivisor)
	}
	if c.InConservationArea && project.ApplicationType == model.AppListedBuilding {
		delta -= conservationListedHit
	}
	return delta
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
