package pvgis

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/planpilot/internal/resilience"
)

const pvcalcBody = `{"inputs":{"location":{"latitude":51.501,"longitude":-0.142}},` +
	`"outputs":{"monthly":{"fixed":[{"month":1,"E_d":3.1,"E_m":96.2},{"month":2,"E_d":5.2,"E_m":145.8}]},` +
	`"totals":{"fixed":{"E_d":9.8,"E_m":298.4,"E_y":3580.6}}}}`

func defaultParams() Params {
	return Params{Lat: 51.501, Lon: -0.142, PeakPowerKW: DefaultPeakPowerKW, LossPct: DefaultLossPct}
}

func TestEstimate_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PVcalc", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "51.501", q.Get("lat"))
		assert.Equal(t, "-0.142", q.Get("lon"))
		assert.Equal(t, "4", q.Get("peakpower"))
		assert.Equal(t, "14", q.Get("loss"))
		assert.Equal(t, "json", q.Get("outputformat"))
		_, _ = w.Write([]byte(pvcalcBody))
	}))
	defer srv.Close()

	got, err := NewClient(WithBaseURL(srv.URL)).Estimate(context.Background(), defaultParams())

	require.NoError(t, err)
	assert.InDelta(t, 3580.6, got.AnnualKWh, 1e-9)
	assert.Equal(t, []float64{96.2, 145.8}, got.MonthlyKWh)
	assert.JSONEq(t, pvcalcBody, string(got.Raw))
}

func TestEstimate_Rejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Location over the sea. Please, select another location","status":400}`))
	}))
	defer srv.Close()

	policy := resilience.NewPolicy(0, 0, 0, 1, 60)
	c := NewClient(WithBaseURL(srv.URL), WithPolicy(policy))

	for i := 0; i < 3; i++ {
		_, err := c.Estimate(context.Background(), Params{Lat: 50, Lon: -20, PeakPowerKW: 4, LossPct: 14})
		require.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "over the sea")
	}
	assert.Equal(t, resilience.CircuitClosed, policy.Breakers.Get(serviceName).State())
}

func TestEstimate_ServerErrorRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(pvcalcBody))
	}))
	defer srv.Close()

	policy := &resilience.Policy{
		Retry: resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}
	got, err := NewClient(WithBaseURL(srv.URL), WithPolicy(policy)).Estimate(context.Background(), defaultParams())

	require.NoError(t, err)
	assert.InDelta(t, 3580.6, got.AnnualKWh, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEstimate_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Estimate(context.Background(), defaultParams())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.True(t, resilience.IsTransient(err))
}

func TestEstimate_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Estimate(context.Background(), defaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestEstimate_InvalidParamsSkipRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(pvcalcBody))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Estimate(context.Background(), Params{Lat: 95, Lon: 0, PeakPowerKW: 4, LossPct: 14})
	require.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, defaultParams().Validate())
	require.NoError(t, Params{Lat: -90, Lon: 180, PeakPowerKW: 0.5, LossPct: 0}.Validate())

	tests := []struct {
		name string
		p    Params
		msg  string
	}{
		{"lat high", Params{Lat: 91, PeakPowerKW: 4, LossPct: 14}, "lat"},
		{"lon low", Params{Lon: -181, PeakPowerKW: 4, LossPct: 14}, "lon"},
		{"lat NaN", Params{Lat: math.NaN(), PeakPowerKW: 4, LossPct: 14}, "lat"},
		{"lon Inf", Params{Lon: math.Inf(1), PeakPowerKW: 4, LossPct: 14}, "lon"},
		{"zero peak power", Params{PeakPowerKW: 0, LossPct: 14}, "peakpower"},
		{"loss 100", Params{PeakPowerKW: 4, LossPct: 100}, "loss"},
		{"negative loss", Params{PeakPowerKW: 4, LossPct: -1}, "loss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
