package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pfrederiksen/parkrun-stats/internal/analysis"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
)

// Error codes returned in the JSON error body.
const (
	CodeBadRequest     = "bad_request"
	CodeNotFound       = "not_found"
	CodeUnavailable    = "upstream_unavailable"
	CodeSchemaChanged  = "upstream_schema_changed"
	CodeMalformedData  = "malformed_results"
	CodeInternal       = "internal_error"
	CodeNotImplemented = "not_configured"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: RequestID(r.Context())})
}

// classify maps pipeline errors to a status and code. Upstream "no such
// athlete" and "upstream down" stay distinguishable for clients.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, scraper.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, scraper.ErrSchemaChanged), errors.Is(err, location.ErrBadFeed):
		return http.StatusBadGateway, CodeSchemaChanged
	case errors.Is(err, result.ErrMalformedRow), errors.Is(err, result.ErrDuplicateRow):
		return http.StatusBadGateway, CodeMalformedData
	case errors.Is(err, scraper.ErrUnavailable), errors.Is(err, scraper.ErrFetchFailed):
		return http.StatusBadGateway, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	writeError(w, r, status, code, err)
}
