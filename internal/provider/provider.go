// Package provider holds the lookups an analysis fans out to: the postcode
// geocoder, the PostGIS constraint, planning and market stores, and the
// schools search.
package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/planpilot/internal/model"
)

// ErrNotFound is returned by a Geocoder for postcodes that do not resolve.
var ErrNotFound = eris.New("provider: postcode not found")

// Geocoder resolves a postcode to a location.
type Geocoder interface {
	Resolve(ctx context.Context, postcode string) (model.Location, error)
}

// ConstraintProvider reports the planning designations at a point.
type ConstraintProvider interface {
	Lookup(ctx context.Context, lat, lon float64) (model.Constraints, error)
}

// PlanningProvider summarises planning history within radiusM of a point.
type PlanningProvider interface {
	Lookup(ctx context.Context, lat, lon float64, radiusM int) (model.PlanningMetrics, error)
}

// MarketProvider summarises the local property market.
type MarketProvider interface {
	Lookup(ctx context.Context, lat, lon float64, postcode string) (model.MarketMetrics, error)
}

// SchoolsProvider lists up to five nearby schools, primary phase first, then
// secondary, then others, nearest first within a phase.
type SchoolsProvider interface {
	Lookup(ctx context.Context, lat, lon float64) ([]model.School, error)
}

// pointEWKB encodes a WGS84 point for ST_GeomFromEWKB. PostGIS points are
// x=lon, y=lat.
func pointEWKB(lat, lon float64) ([]byte, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "provider: encode point")
	}
	return data, nil
}
