package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/analysis"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON encodes data before writing the header, so an unencodable value
// becomes a 500 rather than a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"internal server error"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Detail: msg})
}

// writeAppError maps analysis errors to status codes. Unclassified errors are
// masked as 500.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case analysis.IsLocationNotFound(err):
		writeMessage(w, http.StatusNotFound, "Postcode not found")
	case analysis.IsInputError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case analysis.IsUpstreamError(err):
		writeMessage(w, http.StatusBadGateway, err.Error())
	default:
		zap.L().Error("api: unclassified error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
