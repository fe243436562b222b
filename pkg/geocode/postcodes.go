package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/resilience"
)

// ErrNotFound is returned when postcodes.io does not know the postcode or
// rejects it as malformed.
var ErrNotFound = eris.New("geocode: postcode not found")

const serviceName = "postcodes"

type postcodeResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode                  string  `json:"postcode"`
		Latitude                  float64 `json:"latitude"`
		Longitude                 float64 `json:"longitude"`
		AdminDistrict             string  `json:"admin_district"`
		AdminWard                 string  `json:"admin_ward"`
		ParliamentaryConstituency string  `json:"parliamentary_constituency"`
	} `json:"result"`
}

func (g *geocoder) Lookup(ctx context.Context, postcode string) (*Result, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
	if clean == "" {
		return nil, ErrNotFound
	}

	return resilience.Call(ctx, g.policy, serviceName, "lookup", func(ctx context.Context) (*Result, error) {
		return g.lookup(ctx, clean)
	})
}

func (g *geocoder) lookup(ctx context.Context, clean string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	reqURL := strings.TrimRight(g.baseURL, "/") + "/postcodes/" + url.PathEscape(clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, ErrNotFound
	default:
		return nil, resilience.StatusError(serviceName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var pr postcodeResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if pr.Result == nil {
		return nil, ErrNotFound
	}

	district := pr.Result.AdminDistrict
	if district == "" {
		district = pr.Result.ParliamentaryConstituency
	}

	return &Result{
		Postcode:  pr.Result.Postcode,
		Latitude:  pr.Result.Latitude,
		Longitude: pr.Result.Longitude,
		District:  district,
		Ward:      pr.Result.AdminWard,
	}, nil
}
