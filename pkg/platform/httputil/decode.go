package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"credguard/pkg/validation"
)

// DecodeJSON decodes a JSON request body into the target type.
// On failure, writes a 400 {errors:[...]} response and returns nil, false.
//
// Usage:
//
//	req, ok := httputil.DecodeJSON[models.VerificationRequest](ctx, w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](ctx context.Context, w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err)
		WriteErrors(w, http.StatusBadRequest, []string{"malformed request body"})
		return nil, false
	}
	return &req, true
}

// DecodeAndValidate decodes the body then runs struct validation, reporting
// every violation in one {errors:[...]} response.
func DecodeAndValidate[T any](ctx context.Context, w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](ctx, w, r, logger)
	if !ok {
		return nil, false
	}
	if violations := validation.Violations(req); len(violations) > 0 {
		logger.WarnContext(ctx, "invalid request", "violations", violations)
		WriteErrors(w, http.StatusBadRequest, violations)
		return nil, false
	}
	return req, true
}
