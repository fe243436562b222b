package predict

import "github.com/sells-group/planpilot/internal/model"

// NumFeatures is the length of the classifier feature vector.
const NumFeatures = 10

// FeatureNames lists the feature vector positions in order. Model artifacts
// must be trained against this order.
var FeatureNames = [NumFeatures]string{
	"flood_zone",
	"in_conservation_area",
	"in_greenbelt",
	"in_article4_zone",
	"local_approval_rate",
	"avg_decision_time_days",
	"similar_applications_nearby",
	"avg_price_per_m2",
	"price_trend_24m",
	"epc_score",
}

// neutralEPCScore stands in for a missing or malformed EPC rating.
const neutralEPCScore = 4

// Input is everything the predictor looks at, after overrides are merged.
type Input struct {
	Constraints model.Constraints
	Planning    model.PlanningMetrics
	Market      model.MarketMetrics
	Project     model.ProjectParams
}

// EPCScore maps an EPC grade to A=7 through G=1, anything else to 4.
func EPCScore(rating string) float64 {
	if ord := model.EPCOrdinal(rating); ord > 0 {
		return float64(ord)
	}
	return neutralEPCScore
}

// Vector builds the classifier feature vector in FeatureNames order.
func (in Input) Vector() []float64 {
	return []float64{
		float64(in.Constraints.FloodZone),
		boolFloat(in.Constraints.InConservationArea),
		boolFloat(in.Constraints.InGreenbelt),
		boolFloat(in.Constraints.InArticle4Zone),
		in.Planning.LocalApprovalRate,
		in.Planning.AvgDecisionTimeDays,
		float64(in.Planning.SimilarApplicationsNearby),
		in.Market.AvgPricePerM2,
		in.Market.PriceTrend24m,
		EPCScore(in.Market.AvgEPCRating),
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
