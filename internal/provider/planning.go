package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/planpilot/internal/db"
	"github.com/sells-group/planpilot/internal/model"
)

const planningMetricsQuery = `
SELECT
	(COUNT(*) FILTER (WHERE decision = 'approved'))::float8 / NULLIF(COUNT(*), 0) AS local_approval_rate,
	AVG(decision_days)::float8 AS avg_decision_time_days,
	COUNT(*) AS similar_applications_nearby
FROM planning_applications, (SELECT ST_GeomFromEWKB($1) AS g) AS pt
WHERE ST_DWithin(planning_applications.geom::geography, pt.g::geography, $2)
  AND decision_date >= NOW() - make_interval(years => $3)`

const recentApplicationsQuery = `
SELECT
	COALESCE(reference, 'N/A'),
	COALESCE(postcode, 'Unknown'),
	COALESCE(decision, 'unknown'),
	TO_CHAR(decision_date, 'YYYY-MM-DD'),
	COALESCE(application_type, 'Unknown')
FROM planning_applications, (SELECT ST_GeomFromEWKB($1) AS g) AS pt
WHERE ST_DWithin(planning_applications.geom::geography, pt.g::geography, $2)
  AND decision_date IS NOT NULL
ORDER BY decision_date DESC
LIMIT 5`

// PostGISPlanning summarises the planning_applications table.
type PostGISPlanning struct {
	pool          db.Pool
	recentRadiusM int
	lookbackYears int
}

// NewPostGISPlanning creates a planning provider. Recent applications are
// taken from within recentRadiusM; rate and timing statistics cover the
// last lookbackYears.
func NewPostGISPlanning(pool db.Pool, recentRadiusM, lookbackYears int) *PostGISPlanning {
	return &PostGISPlanning{pool: pool, recentRadiusM: recentRadiusM, lookbackYears: lookbackYears}
}

// Lookup implements PlanningProvider. With no decided applications in range
// the rate and average are 0.
func (p *PostGISPlanning) Lookup(ctx context.Context, lat, lon float64, radiusM int) (model.PlanningMetrics, error) {
	pt, err := pointEWKB(lat, lon)
	if err != nil {
		return model.PlanningMetrics{}, err
	}

	var (
		metrics model.PlanningMetrics
		recent  []model.RecentApplication
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var rate, days *float64
		var count int64
		if err := p.pool.QueryRow(gctx, planningMetricsQuery, pt, radiusM, p.lookbackYears).Scan(&rate, &days, &count); err != nil {
			return eris.Wrap(err, "provider: query planning metrics")
		}
		metrics.LocalApprovalRate = model.Round(deref(rate), 4)
		metrics.AvgDecisionTimeDays = model.Round(deref(days), 1)
		metrics.SimilarApplicationsNearby = int(count)
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = p.recentApplications(gctx, pt)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.PlanningMetrics{}, err
	}

	metrics.RecentApplications = recent
	return metrics, nil
}

func (p *PostGISPlanning) recentApplications(ctx context.Context, pt []byte) ([]model.RecentApplication, error) {
	rows, err := p.pool.Query(ctx, recentApplicationsQuery, pt, p.recentRadiusM)
	if err != nil {
		return nil, eris.Wrap(err, "provider: query recent applications")
	}
	defer rows.Close()

	apps := []model.RecentApplication{}
	for rows.Next() {
		var a model.RecentApplication
		if err := rows.Scan(&a.Reference, &a.Postcode, &a.Decision, &a.DecisionDate, &a.ApplicationType); err != nil {
			return nil, eris.Wrap(err, "provider: scan recent application")
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "provider: iterate recent applications")
	}
	return apps, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
