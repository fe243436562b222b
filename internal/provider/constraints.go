package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/db"
	"github.com/sells-group/planpilot/internal/model"
)

const constraintsQuery = `
SELECT
	COALESCE(
		(SELECT zone_number FROM flood_zones
		 WHERE ST_Contains(geom, pt.g)
		 ORDER BY zone_number DESC LIMIT 1),
		1
	) AS flood_zone,
	EXISTS(SELECT 1 FROM conservation_areas WHERE ST_Contains(geom, pt.g)) AS in_conservation_area,
	EXISTS(SELECT 1 FROM greenbelt_areas WHERE ST_Contains(geom, pt.g)) AS in_greenbelt,
	EXISTS(SELECT 1 FROM article4_zones WHERE ST_Contains(geom, pt.g)) AS in_article4_zone
FROM (SELECT ST_GeomFromEWKB($1) AS g) AS pt`

// PostGISConstraints looks up designations from the flood, conservation,
// greenbelt and Article 4 layers.
type PostGISConstraints struct {
	pool db.Pool
}

// NewPostGISConstraints creates a constraint provider over pool.
func NewPostGISConstraints(pool db.Pool) *PostGISConstraints {
	return &PostGISConstraints{pool: pool}
}

// Lookup implements ConstraintProvider. A point outside every flood polygon
// is zone 1.
func (p *PostGISConstraints) Lookup(ctx context.Context, lat, lon float64) (model.Constraints, error) {
	pt, err := pointEWKB(lat, lon)
	if err != nil {
		return model.Constraints{}, err
	}

	var c model.Constraints
	if err := p.pool.QueryRow(ctx, constraintsQuery, pt).Scan(
		&c.FloodZone, &c.InConservationArea, &c.InGreenbelt, &c.InArticle4Zone,
	); err != nil {
		return model.Constraints{}, eris.Wrap(err, "provider: query constraints")
	}
	return c, nil
}
