package api

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/pkg/pvgis"
)

// solarEstimate proxies a PVGIS PVcalc estimate. The upstream document is
// returned as-is.
func (h *handlers) solarEstimate(w http.ResponseWriter, r *http.Request) {
	if h.deps.Solar == nil {
		writeMessage(w, http.StatusServiceUnavailable, "solar estimates are not configured")
		return
	}

	p, err := parseSolarQuery(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	est, err := h.deps.Solar.Estimate(r.Context(), p)
	h.deps.Metrics.Provider("pvgis", time.Since(start), err)
	if err != nil {
		zap.L().Warn("api: pvgis estimate failed",
			zap.Float64("lat", p.Lat), zap.Float64("lon", p.Lon), zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "PVGIS upstream error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(est.Raw)
}

func parseSolarQuery(r *http.Request) (pvgis.Params, error) {
	q := r.URL.Query()
	p := pvgis.Params{PeakPowerKW: pvgis.DefaultPeakPowerKW, LossPct: pvgis.DefaultLossPct}

	lat, err := queryFloat(q.Get("lat"), "lat")
	if err != nil {
		return p, err
	}
	lon, err := queryFloat(q.Get("lon"), "lon")
	if err != nil {
		return p, err
	}
	if lat == nil || lon == nil {
		return p, eris.New("lat and lon are required")
	}
	p.Lat, p.Lon = *lat, *lon

	peak, err := queryFloat(q.Get("peakpower"), "peakpower")
	if err != nil {
		return p, err
	}
	if peak != nil {
		p.PeakPowerKW = *peak
	}
	loss, err := queryFloat(q.Get("loss"), "loss")
	if err != nil {
		return p, err
	}
	if loss != nil {
		p.LossPct = *loss
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
