// Package epc queries the DLUHC Energy Performance Certificate register for
// the typical rating of homes in a postcode.
package epc

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/resilience"
)

// DefaultBaseURL is the public EPC register API.
const DefaultBaseURL = "https://epc.opendatacommunities.org/api/v1"

const (
	serviceName = "epc"
	pageSize    = 50
)

// Client looks up EPC ratings.
type Client interface {
	// AverageRating returns the rounded mean current-energy-rating of
	// certificates in the postcode, falling back to its outward code when the
	// full postcode has none. Returns model.EPCNotAvailable when nothing
	// usable is found.
	AverageRating(ctx context.Context, postcode string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPolicy applies retry and circuit breaking to searches.
func WithPolicy(p *resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

type httpClient struct {
	email   string
	apiKey  string
	baseURL string
	http    *http.Client
	policy  *resilience.Policy
}

// NewClient creates an EPC client authenticating as email:apiKey.
func NewClient(email, apiKey string, opts ...Option) Client {
	c := &httpClient{
		email:   email,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Rows []struct {
		CurrentEnergyRating string `json:"current-energy-rating"`
	} `json:"rows"`
}

func (c *httpClient) AverageRating(ctx context.Context, postcode string) (string, error) {
	full := model.NormalizePostcode(postcode)
	if full == "" {
		return model.EPCNotAvailable, nil
	}

	ratings, err := c.search(ctx, full)
	if err != nil || len(ratings) == 0 {
		outward := model.OutwardCode(full)
		fallback, ferr := c.search(ctx, outward)
		if ferr != nil {
			if err != nil {
				return "", err
			}
			return "", ferr
		}
		ratings = fallback
	}

	return averageGrade(ratings), nil
}

func (c *httpClient) search(ctx context.Context, query string) ([]string, error) {
	return resilience.Call(ctx, c.policy, serviceName, "search", func(ctx context.Context) ([]string, error) {
		return c.doSearch(ctx, query)
	})
}

func (c *httpClient) doSearch(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"postcode": {query},
		"size":     {strconv.Itoa(pageSize)},
	}
	reqURL := strings.TrimRight(c.baseURL, "/") + "/domestic/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "epc: create request")
	}
	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "epc: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(serviceName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "epc: read response body")
	}
	// The register answers an empty 200 when no certificates match.
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "epc: unmarshal response")
	}

	ratings := make([]string, 0, len(sr.Rows))
	for _, row := range sr.Rows {
		ratings = append(ratings, row.CurrentEnergyRating)
	}
	return ratings, nil
}

// averageGrade averages the valid grades in ratings and rounds the mean back
// to a grade, half to even.
func averageGrade(ratings []string) string {
	var sum, n int
	for _, r := range ratings {
		if ord := model.EPCOrdinal(r); ord > 0 {
			sum += ord
			n++
		}
	}
	if n == 0 {
		return model.EPCNotAvailable
	}
	return model.EPCGrade(int(math.RoundToEven(float64(sum) / float64(n))))
}
