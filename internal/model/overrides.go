package model

import (
	"github.com/rotisserie/eris"
)

// Overrides carries caller-supplied values that replace provider data before
// prediction and scoring. A nil field leaves the fetched value untouched.
type Overrides struct {
	FloodZone          *int     `json:"manual_flood_zone,omitempty"`
	InConservationArea *bool    `json:"manual_conservation_area,omitempty"`
	InGreenbelt        *bool    `json:"manual_greenbelt,omitempty"`
	InArticle4Zone     *bool    `json:"manual_article4_zone,omitempty"`
	LocalApprovalRate  *float64 `json:"manual_approval_rate,omitempty"`
	AvgDecisionDays    *float64 `json:"manual_decision_days,omitempty"`
	SimilarNearby      *int     `json:"manual_similar_applications,omitempty"`
	AvgPricePerM2      *float64 `json:"manual_price_per_m2,omitempty"`
	PriceTrend24m      *float64 `json:"manual_price_trend,omitempty"`
	EPCRating          *string  `json:"manual_epc_rating,omitempty"`
}

// Validate rejects override values outside their domain.
func (o Overrides) Validate() error {
	if o.FloodZone != nil && (*o.FloodZone < 1 || *o.FloodZone > 3) {
		return eris.Errorf("manual_flood_zone must be 1, 2 or 3, got %d", *o.FloodZone)
	}
	if o.LocalApprovalRate != nil && !(*o.LocalApprovalRate >= 0 && *o.LocalApprovalRate <= 1) {
		return eris.Errorf("manual_approval_rate must be within [0,1], got %g", *o.LocalApprovalRate)
	}
	if o.AvgDecisionDays != nil && (!finite(*o.AvgDecisionDays) || *o.AvgDecisionDays < 0) {
		return eris.Errorf("manual_decision_days must be a finite number >= 0, got %g", *o.AvgDecisionDays)
	}
	if o.SimilarNearby != nil && *o.SimilarNearby < 0 {
		return eris.Errorf("manual_similar_applications must be >= 0, got %d", *o.SimilarNearby)
	}
	if o.AvgPricePerM2 != nil && (!finite(*o.AvgPricePerM2) || *o.AvgPricePerM2 < 0) {
		return eris.Errorf("manual_price_per_m2 must be a finite number >= 0, got %g", *o.AvgPricePerM2)
	}
	// A trend is a fraction of the earlier mean; prices cannot fall below zero.
	if o.PriceTrend24m != nil && (!finite(*o.PriceTrend24m) || *o.PriceTrend24m < -1) {
		return eris.Errorf("manual_price_trend must be a finite number >= -1, got %g", *o.PriceTrend24m)
	}
	if o.EPCRating != nil && !ValidEPCRating(*o.EPCRating) {
		return eris.Errorf("manual_epc_rating must be A-G or N/A, got %q", *o.EPCRating)
	}
	return nil
}

// Applied lists the JSON names of the fields that are set.
func (o Overrides) Applied() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(o.FloodZone != nil, "manual_flood_zone")
	add(o.InConservationArea != nil, "manual_conservation_area")
	add(o.InGreenbelt != nil, "manual_greenbelt")
	add(o.InArticle4Zone != nil, "manual_article4_zone")
	add(o.LocalApprovalRate != nil, "manual_approval_rate")
	add(o.AvgDecisionDays != nil, "manual_decision_days")
	add(o.SimilarNearby != nil, "manual_similar_applications")
	add(o.AvgPricePerM2 != nil, "manual_price_per_m2")
	add(o.PriceTrend24m != nil, "manual_price_trend")
	add(o.EPCRating != nil, "manual_epc_rating")
	return names
}
