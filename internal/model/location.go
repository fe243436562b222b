package model

// Location is the geocoded position of a postcode plus its administrative
// district and ward.
type Location struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	District string  `json:"district"`
	Ward     string  `json:"ward"`
}

// Constraints holds the planning designations at a point. Flood zone is
// ordinal 1 (low) to 3 (high); the boolean designations are independent.
type Constraints struct {
	FloodZone          int  `json:"flood_zone"`
	InConservationArea bool `json:"in_conservation_area"`
	InGreenbelt        bool `json:"in_greenbelt"`
	InArticle4Zone     bool `json:"in_article4_zone"`
}

// RecentApplication is one decided planning application near the site.
type RecentApplication struct {
	Reference       string `json:"reference"`
	Postcode        string `json:"postcode"`
	Decision        string `json:"decision"`
	DecisionDate    string `json:"decision_date"`
	ApplicationType string `json:"application_type"`
}

// PlanningMetrics summarises historical planning decisions around a point.
type PlanningMetrics struct {
	LocalApprovalRate         float64             `json:"local_approval_rate"`
	AvgDecisionTimeDays       float64             `json:"avg_decision_time_days"`
	SimilarApplicationsNearby int                 `json:"similar_applications_nearby"`
	RecentApplications        []RecentApplication `json:"recent_applications"`
}

// ComparableSale is a recent transaction near the site.
type ComparableSale struct {
	Postcode string  `json:"postcode"`
	Price    float64 `json:"price"`
	SaleDate string  `json:"sale_date"`
}

// EPCNotAvailable is the EPC rating reported when no certificates are usable.
const EPCNotAvailable = "N/A"

// MarketMetrics summarises the local property market.
type MarketMetrics struct {
	AvgPricePerM2   float64          `json:"avg_price_per_m2"`
	PriceTrend24m   float64          `json:"price_trend_24m"`
	AvgEPCRating    string           `json:"avg_epc_rating"`
	ComparableSales []ComparableSale `json:"comparable_sales"`
}

// School is a nearby school as reported by the schools provider.
type School struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	OfstedRating string `json:"ofsted_rating"`
	DistanceM    int    `json:"distance_m"`
}
