package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EGONE, http.StatusGone},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedError  string
	}{
		{
			name:           "not found",
			err:            domain.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.ENOTFOUND,
			expectedError:  "Order not found",
		},
		{
			name:           "zero total",
			err:            domain.ErrZeroTotal,
			expectedStatus: http.StatusConflict,
			expectedCode:   domain.ECONFLICT,
			expectedError:  domain.ErrZeroTotal.Message,
		},
		{
			name:           "payments not configured",
			err:            domain.Unavailable("checkout.create", "Payments are not configured"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   domain.EUNAVAILABLE,
			expectedError:  "Payments are not configured",
		},
		{
			name:           "persistence hides driver detail",
			err:            domain.Persistence(errors.New("dial tcp 10.0.0.5:27017: connection refused"), "order.update"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   domain.EINTERNAL,
			expectedError:  "An internal error occurred. Please try again later.",
		},
		{
			name:           "plain error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   domain.EINTERNAL,
			expectedError:  "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decodeError(t, rec)
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.Equal(t, tt.expectedError, body.Error)
			assert.Empty(t, body.Fields)
		})
	}
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	rec := httptest.NewRecorder()

	err := &domain.ValidationError{
		Op:     "order.create",
		Fields: map[string]string{"customerEmail": "is required", "total": "does not match"},
	}

	ErrorResponse(rec, req, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.EINVALID, body.Code)
	assert.Equal(t, map[string]string{"customerEmail": "is required", "total": "does not match"}, body.Fields)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		OrderID string `json:"orderId"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"orderId":"o1"}`, false},
		{"unknown fields allowed", `{"orderId":"o1","extra":true}`, false},
		{"empty", ``, true},
		{"not json", `orderId=o1`, true},
		{"wrong type", `{"orderId":42}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload

			err := DecodeJSON(req, "test.decode", &p)

			if tt.wantErr {
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "o1", p.OrderID)
		})
	}
}
