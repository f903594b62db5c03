package gate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// Error codes returned in the "error" field of JSON responses.
const (
	CodeFeatureNotAvailable = "feature_not_available"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeBulkLimitExceeded   = "bulk_limit_exceeded"
	CodeInternalError       = "internal_error"
	CodeUnauthorized        = "unauthorized"
	CodeInvalidRequest      = "invalid_request"
	CodeNotFound            = "not_found"
	CodeNotConfigured       = "not_configured"
)

// DenialResponse is written when a gate denies a request.
type DenialResponse struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	UpgradeRequired bool   `json:"upgradeRequired"`
	Feature         string `json:"feature"`
	Limit           *int64 `json:"limit,omitempty"`
	Current         *int64 `json:"current,omitempty"`
	Requested       *int64 `json:"requested,omitempty"`
}

// ErrorResponse is written for non-policy failures.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// writeRequestError answers 4xx for failures caused by the request itself.
func writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required.")
	case errors.Is(err, entitlement.ErrUnknownFeature):
		writeError(w, http.StatusNotFound, CodeNotFound, "Unknown feature.")
	case errors.Is(err, ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Requested quantity must be a positive integer.")
	default:
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	}
}

// writeInternalError never claims the user lacks access.
func (g *Gate) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	g.log.ErrorContext(r.Context(), "entitlement check failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, retryLaterMessage)
}

// writeDenial answers 403 for entitlement denials and 400 for bulk ceiling denials.
func (g *Gate) writeDenial(w http.ResponseWriter, d Decision) {
	body := DenialResponse{
		Error:           CodeFeatureNotAvailable,
		Message:         g.Message(d),
		UpgradeRequired: d.Access.UpgradeRequired,
		Feature:         string(d.Feature),
	}
	if q := d.Access.Quota; q != nil {
		limit, requested := q.Limit, q.Requested
		body.Limit = &limit
		body.Requested = &requested
		if d.Feature == entitlement.FeatureMaxQuotes {
			current := q.Current
			body.Current = &current
		}
	}

	status := http.StatusForbidden
	switch {
	case d.Feature == entitlement.FeatureMaxQuotes:
		body.Error = CodeQuotaExceeded
	case d.Feature == entitlement.FeatureBulkOperations && !d.Access.UpgradeRequired:
		body.Error = CodeBulkLimitExceeded
		status = http.StatusBadRequest
	}
	writeJSON(w, status, body)
}
