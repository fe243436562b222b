package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/planpilot/internal/monitoring"
	"github.com/sells-group/planpilot/pkg/pvgis"
)

type mockSolar struct{ mock.Mock }

func (m *mockSolar) Estimate(ctx context.Context, p pvgis.Params) (*pvgis.Estimate, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pvgis.Estimate), args.Error(1)
}

const solarDoc = `{"outputs":{"totals":{"fixed":{"E_y":3580.6}}}}`

func TestSolar_DefaultsAndPassthrough(t *testing.T) {
	s := new(mockSolar)
	s.On("Estimate", mock.Anything, pvgis.Params{Lat: 51.501, Lon: -0.142, PeakPowerKW: 4, LossPct: 14}).
		Return(&pvgis.Estimate{AnnualKWh: 3580.6, Raw: []byte(solarDoc)}, nil)

	h := NewRouter(Deps{Solar: s, JWTSecret: testSecret})
	rec := do(t, h, http.MethodGet, "/api/v1/pvgis?lat=51.501&lon=-0.142", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, solarDoc, rec.Body.String())
	s.AssertExpectations(t)
}

func TestSolar_CustomArray(t *testing.T) {
	s := new(mockSolar)
	s.On("Estimate", mock.Anything, pvgis.Params{Lat: 53.48, Lon: -2.23, PeakPowerKW: 6.5, LossPct: 10}).
		Return(&pvgis.Estimate{Raw: []byte(solarDoc)}, nil)

	h := NewRouter(Deps{Solar: s, JWTSecret: testSecret})
	rec := do(t, h, http.MethodGet, "/api/v1/pvgis?lat=53.48&lon=-2.23&peakpower=6.5&loss=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	s.AssertExpectations(t)
}

func TestSolar_BadQuery(t *testing.T) {
	h := NewRouter(Deps{Solar: new(mockSolar), JWTSecret: testSecret})

	for _, target := range []string{
		"/api/v1/pvgis",
		"/api/v1/pvgis?lat=51.5",
		"/api/v1/pvgis?lat=north&lon=0",
		"/api/v1/pvgis?lat=95&lon=0",
		"/api/v1/pvgis?lat=NaN&lon=0",
		"/api/v1/pvgis?lat=51.5&lon=0&peakpower=0",
		"/api/v1/pvgis?lat=51.5&lon=0&loss=Inf",
	} {
		rec := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSolar_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"status", errors.New("pvgis: unexpected status 503")},
		{"rejected", eris.Wrap(pvgis.ErrRejected, "pvgis: Location over the sea")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(mockSolar)
			s.On("Estimate", mock.Anything, mock.Anything).Return(nil, tt.err)
			m := monitoring.NewMetrics()

			h := NewRouter(Deps{Solar: s, Metrics: m, JWTSecret: testSecret})
			rec := do(t, h, http.MethodGet, "/api/v1/pvgis?lat=50&lon=-20", "")

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Contains(t, rec.Body.String(), "PVGIS upstream error")
			assert.NotContains(t, rec.Body.String(), "over the sea")

			expected := `
# HELP planpilot_provider_errors_total Failed data provider calls.
# TYPE planpilot_provider_errors_total counter
planpilot_provider_errors_total{provider="pvgis"} 1
`
			assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "planpilot_provider_errors_total"))
		})
	}
}

func TestSolar_NotConfigured(t *testing.T) {
	h := NewRouter(Deps{JWTSecret: testSecret})
	rec := do(t, h, http.MethodGet, "/api/v1/pvgis?lat=51.5&lon=0", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSolar_RequiresToken(t *testing.T) {
	h := NewRouter(Deps{Solar: new(mockSolar), JWTSecret: testSecret})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pvgis?lat=51.5&lon=0", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
