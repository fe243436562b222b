package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/model"
)

const healthTimeout = 3 * time.Second

type handlers struct {
	deps Deps
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	DBConnected bool   `json:"db_connected"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "degraded"}
	if h.deps.ModelLoaded != nil {
		resp.ModelLoaded = h.deps.ModelLoaded()
	}
	if h.deps.DBHealth != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		resp.DBConnected = h.deps.DBHealth(ctx)
	}
	if resp.DBConnected {
		resp.Status = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Postcode      string              `json:"postcode"`
	ProjectParams *model.ProjectInput `json:"project_params,omitempty"`
	Overrides     model.Overrides     `json:"overrides"`
}

func (h *handlers) analyzeBody(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.runAnalysis(w, r, analysis.Request{
		Postcode:  body.Postcode,
		Project:   body.ProjectParams,
		Overrides: body.Overrides,
	})
}

func (h *handlers) analyzeQuery(w http.ResponseWriter, r *http.Request) {
	req, err := parseAnalyzeQuery(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	h.runAnalysis(w, r, req)
}

func (h *handlers) runAnalysis(w http.ResponseWriter, r *http.Request, req analysis.Request) {
	if req.Postcode == "" {
		writeMessage(w, http.StatusBadRequest, "postcode is required")
		return
	}
	result, err := h.deps.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reports == nil {
		writeMessage(w, http.StatusServiceUnavailable, "report generation is not configured")
		return
	}
	postcode := r.URL.Query().Get("postcode")
	if postcode == "" {
		writeMessage(w, http.StatusBadRequest, "postcode is required")
		return
	}
	resp, err := h.deps.Reports.Generate(r.Context(), postcode)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseAnalyzeQuery reads the GET /analyze query string. Project fields are
// optional; override fields use their manual_* JSON names.
func parseAnalyzeQuery(r *http.Request) (analysis.Request, error) {
	q := r.URL.Query()
	req := analysis.Request{Postcode: q.Get("postcode")}

	var project model.ProjectInput
	if v := q.Get("application_type"); v != "" {
		t := model.ApplicationType(v)
		project.ApplicationType = &t
	}
	if v := q.Get("property_type"); v != "" {
		t := model.PropertyType(v)
		project.PropertyType = &t
	}
	var err error
	if project.NumStoreys, err = queryInt(q.Get("num_storeys"), "num_storeys"); err != nil {
		return req, err
	}
	if project.EstimatedFloorAreaM2, err = queryFloat(q.Get("estimated_floor_area_m2"), "estimated_floor_area_m2"); err != nil {
		return req, err
	}
	if project != (model.ProjectInput{}) {
		req.Project = &project
	}

	o := &req.Overrides
	if o.FloodZone, err = queryInt(q.Get("manual_flood_zone"), "manual_flood_zone"); err != nil {
		return req, err
	}
	if o.InConservationArea, err = queryBool(q.Get("manual_conservation_area"), "manual_conservation_area"); err != nil {
		return req, err
	}
	if o.InGreenbelt, err = queryBool(q.Get("manual_greenbelt"), "manual_greenbelt"); err != nil {
		return req, err
	}
	if o.InArticle4Zone, err = queryBool(q.Get("manual_article4_zone"), "manual_article4_zone"); err != nil {
		return req, err
	}
	if o.LocalApprovalRate, err = queryFloat(q.Get("manual_approval_rate"), "manual_approval_rate"); err != nil {
		return req, err
	}
	if o.AvgDecisionDays, err = queryFloat(q.Get("manual_decision_days"), "manual_decision_days"); err != nil {
		return req, err
	}
	if o.SimilarNearby, err = queryInt(q.Get("manual_similar_applications"), "manual_similar_applications"); err != nil {
		return req, err
	}
	if o.AvgPricePerM2, err = queryFloat(q.Get("manual_price_per_m2"), "manual_price_per_m2"); err != nil {
		return req, err
	}
	if o.PriceTrend24m, err = queryFloat(q.Get("manual_price_trend"), "manual_price_trend"); err != nil {
		return req, err
	}
	if v := q.Get("manual_epc_rating"); v != "" {
		o.EPCRating = &v
	}
	return req, nil
}

func queryInt(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, eris.Errorf("%s: %q is not an integer", name, v)
	}
	return &n, nil
}

func queryFloat(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, eris.Errorf("%s: %q is not a number", name, v)
	}
	return &f, nil
}

func queryBool(v, name string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, eris.Errorf("%s: %q is not a boolean", name, v)
	}
	return &b, nil
}
