// Package overpass finds schools near a point using the OpenStreetMap
// Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/resilience"
)

// DefaultURL is the public Overpass interpreter endpoint.
const DefaultURL = "https://overpass-api.de/api/interpreter"

const (
	serviceName     = "overpass"
	defaultRadiusM  = 1200
	maxSchools      = 5
	queryTimeoutSec = 12

	// OSM carries no inspection grades.
	ratingNotAvailable = "N/A"
)

// Client looks up schools.
type Client interface {
	// NearbySchools returns up to five named schools within the configured
	// radius, primary first, then secondary, then others, nearest first
	// within each phase.
	NearbySchools(ctx context.Context, lat, lon float64) ([]model.School, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithURL sets the interpreter URL.
func WithURL(u string) Option {
	return func(c *httpClient) {
		c.url = u
	}
}

// WithRadius sets the search radius in metres.
func WithRadius(m int) Option {
	return func(c *httpClient) {
		if m > 0 {
			c.radiusM = m
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPolicy applies retry and circuit breaking to queries.
func WithPolicy(p *resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

type httpClient struct {
	url     string
	radiusM int
	http    *http.Client
	policy  *resilience.Policy
}

// NewClient creates an Overpass client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		url:     DefaultURL,
		radiusM: defaultRadiusM,
		http:    &http.Client{Timeout: 14 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type element struct {
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type interpreterResponse struct {
	Elements []element `json:"elements"`
}

func (c *httpClient) NearbySchools(ctx context.Context, lat, lon float64) ([]model.School, error) {
	elements, err := resilience.Call(ctx, c.policy, serviceName, "schools", func(ctx context.Context) ([]element, error) {
		return c.query(ctx, buildQuery(lat, lon, c.radiusM))
	})
	if err != nil {
		return nil, err
	}
	return rankSchools(lat, lon, elements), nil
}

func buildQuery(lat, lon float64, radiusM int) string {
	around := fmt.Sprintf("(around:%d,%g,%g)", radiusM, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:%d];(node["amenity"="school"]%s;way["amenity"="school"]%s;);out center tags;`,
		queryTimeoutSec, around, around)
}

func (c *httpClient) query(ctx context.Context, q string) ([]element, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(serviceName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response body")
	}

	var ir interpreterResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}
	return ir.Elements, nil
}

type rankedSchool struct {
	school model.School
	phase  int
}

// rankSchools converts elements to schools, dropping unnamed or unplaced
// ones, and keeps the first five by phase then distance.
func rankSchools(lat, lon float64, elements []element) []model.School {
	ranked := make([]rankedSchool, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		sLat, sLon, ok := el.position()
		if !ok {
			continue
		}
		ranked = append(ranked, rankedSchool{
			school: model.School{
				Name:         name,
				Type:         schoolType(el.Tags),
				OfstedRating: ratingNotAvailable,
				DistanceM:    int(math.Round(haversineM(lat, lon, sLat, sLon))),
			},
			phase: phaseOrder(el.Tags),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].phase != ranked[j].phase {
			return ranked[i].phase < ranked[j].phase
		}
		return ranked[i].school.DistanceM < ranked[j].school.DistanceM
	})

	if len(ranked) > maxSchools {
		ranked = ranked[:maxSchools]
	}
	schools := make([]model.School, len(ranked))
	for i, r := range ranked {
		schools[i] = r.school
	}
	return schools
}

func (el element) position() (float64, float64, bool) {
	if el.Lat != nil && el.Lon != nil {
		return *el.Lat, *el.Lon, true
	}
	if el.Center != nil {
		return el.Center.Lat, el.Center.Lon, true
	}
	return 0, 0, false
}
