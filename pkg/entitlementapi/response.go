package entitlementapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

// Envelope is the body of every response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCodes maps sentinel errors to a status and a stable code.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{ErrInvalidTier, http.StatusBadRequest, "invalid_tier"},
	{ErrInvalidLimitKind, http.StatusBadRequest, "invalid_limit_kind"},
	{ErrInvalidFeature, http.StatusBadRequest, "invalid_feature"},
	{ErrInvalidCount, http.StatusBadRequest, "invalid_count"},
	{ErrInvalidOwner, http.StatusBadRequest, "invalid_owner"},
	{rbac.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data any) {
	if err := writeJSON(w, http.StatusOK, Envelope{Data: data}); err != nil {
		h.log.DebugContext(r.Context(), "writing response", logger.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			status, code = c.status, c.code
			break
		}
	}

	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}

	if err := writeJSON(w, status, Envelope{Error: &ErrorDetail{Code: code, Message: err.Error()}}); err != nil {
		h.log.DebugContext(r.Context(), "writing error response", logger.Error(err))
	}
}
