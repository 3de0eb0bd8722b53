// Package handler holds the JSON response helpers shared by the storefront,
// admin and webhook handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// ErrorBody is the JSON error envelope. Error is always a user-safe message.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes the mapped status with an ErrorBody.
// Validation errors carry their field map. 5xx responses are also reported
// to Sentry.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"request_id": middleware.GetRequestID(r.Context()),
			"code":       code,
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	WriteJSON(w, status, ErrorBody{
		Error:  domain.ErrorMessage(err),
		Code:   code,
		Fields: domain.GetValidationFields(err),
	})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.EGONE:
		return http.StatusGone // 410
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a JSON body into dst. Unknown fields are allowed; an
// empty, malformed or oversized body yields an EINVALID error.
func DecodeJSON(r *http.Request, op string, dst any) error {
	if r.Body == nil {
		return domain.Invalid(op, "Request body is required")
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return domain.Invalid(op, "Request body is required")
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Invalid(op, "Request body too large")
		}
		return domain.WrapError(err, domain.EINVALID, op, "Request body must be valid JSON")
	}
}
