package analysis

import (
	"strings"

	"github.com/sells-group/planpilot/internal/model"
)

// Each merge replaces a fetched field only when its override is set. The
// groups are merged independently of one another.

func mergeConstraints(c model.Constraints, o model.Overrides) model.Constraints {
	if o.FloodZone != nil {
		c.FloodZone = *o.FloodZone
	}
	if o.InConservationArea != nil {
		c.InConservationArea = *o.InConservationArea
	}
	if o.InGreenbelt != nil {
		c.InGreenbelt = *o.InGreenbelt
	}
	if o.InArticle4Zone != nil {
		c.InArticle4Zone = *o.InArticle4Zone
	}
	return c
}

func mergePlanning(p model.PlanningMetrics, o model.Overrides) model.PlanningMetrics {
	if o.LocalApprovalRate != nil {
		p.LocalApprovalRate = *o.LocalApprovalRate
	}
	if o.AvgDecisionDays != nil {
		p.AvgDecisionTimeDays = *o.AvgDecisionDays
	}
	if o.SimilarNearby != nil {
		p.SimilarApplicationsNearby = *o.SimilarNearby
	}
	return p
}

func mergeMarket(m model.MarketMetrics, o model.Overrides) model.MarketMetrics {
	if o.AvgPricePerM2 != nil {
		m.AvgPricePerM2 = *o.AvgPricePerM2
	}
	if o.PriceTrend24m != nil {
		m.PriceTrend24m = *o.PriceTrend24m
	}
	if o.EPCRating != nil {
		m.AvgEPCRating = strings.ToUpper(strings.TrimSpace(*o.EPCRating))
	}
	return m
}
