package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/pkg/geocode"
)

// PostcodesGeocoder resolves postcodes through postcodes.io.
type PostcodesGeocoder struct {
	client geocode.Client
}

// NewPostcodesGeocoder wraps a geocode client.
func NewPostcodesGeocoder(client geocode.Client) *PostcodesGeocoder {
	return &PostcodesGeocoder{client: client}
}

// Resolve implements Geocoder.
func (g *PostcodesGeocoder) Resolve(ctx context.Context, postcode string) (model.Location, error) {
	res, err := g.client.Lookup(ctx, postcode)
	if err != nil {
		if eris.Is(err, geocode.ErrNotFound) {
			return model.Location{}, eris.Wrapf(ErrNotFound, "postcode %q", postcode)
		}
		return model.Location{}, eris.Wrap(err, "provider: geocode")
	}
	return model.Location{
		Lat:      res.Latitude,
		Lon:      res.Longitude,
		District: res.District,
		Ward:     res.Ward,
	}, nil
}
