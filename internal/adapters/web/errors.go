package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"zenith-fieldservice/internal/core"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Issues    []string `json:"issues,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorIssues(w, r, message, code, status, nil)
}

func writeErrorIssues(w http.ResponseWriter, r *http.Request, message, code string, status int, issues []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		Issues:    issues,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the core error taxonomy onto HTTP responses. Unknown
// errors become a generic 500 so internals never leak to clients.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		conflictErr   *core.ConflictError
		transitionErr *core.InvalidTransitionError
		missingErr    *core.MissingDataError
		notFoundErr   *core.NotFoundError
		deniedErr     *core.PermissionDeniedError
	)
	switch {
	case errors.As(err, &validationErr):
		writeErrorIssues(w, r, validationErr.Error(), "VALIDATION_FAILED", http.StatusUnprocessableEntity, validationErr.Issues)
	case errors.As(err, &conflictErr):
		writeError(w, r, conflictErr.Error(), "CONFLICT", http.StatusConflict)
	case errors.As(err, &transitionErr):
		writeError(w, r, transitionErr.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.As(err, &missingErr):
		writeError(w, r, missingErr.Error(), "MISSING_DATA", http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		writeError(w, r, notFoundErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &deniedErr):
		writeError(w, r, deniedErr.Error(), "FORBIDDEN", http.StatusForbidden)
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("unhandled error")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
