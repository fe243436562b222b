// Package geocode resolves UK postcodes to coordinates and administrative
// areas via postcodes.io.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/planpilot/internal/resilience"
)

// DefaultBaseURL is the public postcodes.io endpoint.
const DefaultBaseURL = "https://api.postcodes.io"

// Client resolves postcodes.
type Client interface {
	// Lookup resolves a postcode. Unknown or malformed postcodes return
	// ErrNotFound.
	Lookup(ctx context.Context, postcode string) (*Result, error)
}

// Result holds the resolved location of a postcode.
type Result struct {
	Postcode  string
	Latitude  float64
	Longitude float64
	District  string
	Ward      string
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the postcodes.io base URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for lookups.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithPolicy applies retry and circuit breaking to lookups.
func WithPolicy(p *resilience.Policy) Option {
	return func(g *geocoder) {
		g.policy = p
	}
}

type geocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     *resilience.Policy
}

// NewClient creates a postcodes.io Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(20, 20),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
