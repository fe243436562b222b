package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/pkg/overpass"
)

// OverpassSchools lists schools from OpenStreetMap.
type OverpassSchools struct {
	client overpass.Client
}

// NewOverpassSchools wraps an Overpass client.
func NewOverpassSchools(client overpass.Client) *OverpassSchools {
	return &OverpassSchools{client: client}
}

// Lookup implements SchoolsProvider.
func (s *OverpassSchools) Lookup(ctx context.Context, lat, lon float64) ([]model.School, error) {
	schools, err := s.client.NearbySchools(ctx, lat, lon)
	if err != nil {
		return nil, eris.Wrap(err, "provider: nearby schools")
	}
	if schools == nil {
		schools = []model.School{}
	}
	return schools, nil
}
