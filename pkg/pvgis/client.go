// Package pvgis fetches grid-connected solar yield estimates from the EU
// Joint Research Centre PVGIS PVcalc API.
package pvgis

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
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/resilience"
)

// DefaultBaseURL is the PVGIS 5.2 API root.
const DefaultBaseURL = "https://re.jrc.ec.europa.eu/api/v5_2"

// Request defaults for a typical domestic roof array.
const (
	DefaultPeakPowerKW = 4
	DefaultLossPct     = 14
)

const serviceName = "pvgis"

// ErrRejected is returned when PVGIS refuses the request, e.g. for a point
// over the sea.
var ErrRejected = eris.New("pvgis: request rejected")

// Params describes the array to estimate.
type Params struct {
	Lat         float64
	Lon         float64
	PeakPowerKW float64
	LossPct     float64
}

// Validate checks coordinate ranges and the array parameters.
func (p Params) Validate() error {
	for name, v := range map[string]float64{"lat": p.Lat, "lon": p.Lon, "peakpower": p.PeakPowerKW, "loss": p.LossPct} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("pvgis: %s must be a finite number", name)
		}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return eris.Errorf("pvgis: lat must be within [-90,90], got %g", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return eris.Errorf("pvgis: lon must be within [-180,180], got %g", p.Lon)
	}
	if p.PeakPowerKW <= 0 {
		return eris.Errorf("pvgis: peakpower must be > 0, got %g", p.PeakPowerKW)
	}
	if p.LossPct < 0 || p.LossPct >= 100 {
		return eris.Errorf("pvgis: loss must be within [0,100), got %g", p.LossPct)
	}
	return nil
}

// Estimate is a PVcalc result. Raw holds the upstream document unchanged.
type Estimate struct {
	AnnualKWh  float64
	MonthlyKWh []float64
	Raw        json.RawMessage
}

// Client estimates solar yield.
type Client interface {
	Estimate(ctx context.Context, p Params) (*Estimate, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the API root.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPolicy applies retry and circuit breaking to requests.
func WithPolicy(p *resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	policy  *resilience.Policy
}

// NewClient creates a PVGIS client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pvcalcResponse struct {
	Outputs struct {
		Monthly struct {
			Fixed []struct {
				Month int     `json:"month"`
				EM    float64 `json:"E_m"`
			} `json:"fixed"`
		} `json:"monthly"`
		Totals struct {
			Fixed struct {
				EY float64 `json:"E_y"`
			} `json:"fixed"`
		} `json:"totals"`
	} `json:"outputs"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *httpClient) Estimate(ctx context.Context, p Params) (*Estimate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return resilience.Call(ctx, c.policy, serviceName, "pvcalc", func(ctx context.Context) (*Estimate, error) {
		return c.pvcalc(ctx, p)
	})
}

func (c *httpClient) pvcalc(ctx context.Context, p Params) (*Estimate, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(p.Lat))
	q.Set("lon", formatFloat(p.Lon))
	q.Set("peakpower", formatFloat(p.PeakPowerKW))
	q.Set("loss", formatFloat(p.LossPct))
	q.Set("outputformat", "json")
	reqURL := strings.TrimRight(c.baseURL, "/") + "/PVcalc?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pvgis: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pvgis: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pvgis: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		zap.L().Debug("pvgis: rejected", zap.String("message", er.Message))
		return nil, eris.Wrapf(ErrRejected, "pvgis: %s", er.Message)
	default:
		return nil, resilience.StatusError(serviceName, resp.StatusCode)
	}

	var pr pvcalcResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, eris.Wrap(err, "pvgis: unmarshal response")
	}

	monthly := make([]float64, 0, len(pr.Outputs.Monthly.Fixed))
	for _, m := range pr.Outputs.Monthly.Fixed {
		monthly = append(monthly, m.EM)
	}
	return &Estimate{
		AnnualKWh:  pr.Outputs.Totals.Fixed.EY,
		MonthlyKWh: monthly,
		Raw:        json.RawMessage(body),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
