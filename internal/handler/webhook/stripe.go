// Package webhook receives payment provider callbacks.
package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/loomworks/internal/billing"
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/service"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// SignatureHeader carries Stripe's t=...,v1=... signature.
const SignatureHeader = "Stripe-Signature"

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	provider   billing.Provider
	reconciler service.PaymentReconciler
	logger     *slog.Logger
}

// NewStripeHandler creates a webhook handler. A nil provider answers 503 so
// Stripe keeps retrying until payments are configured.
func NewStripeHandler(provider billing.Provider, reconciler service.PaymentReconciler, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{provider: provider, reconciler: reconciler, logger: logger}
}

// HandleWebhook verifies the event and reconciles completed checkouts.
//
// Every verified event is acknowledged with {"received": true} unless the
// order's paid write fails, which answers 500 so Stripe redelivers.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "webhook.stripe"
	start := time.Now()
	logger := middleware.GetLogger(r.Context(), h.logger)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		handler.WriteJSON(w, http.StatusMethodNotAllowed, handler.ErrorBody{Error: "Method not allowed", Code: domain.EINVALID})
		return
	}
	if h.provider == nil {
		handler.ErrorResponse(w, r, domain.Unavailable(op, "Payments are not configured"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, op, "Error reading request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		logger.Warn("webhook without signature", "payload_bytes", len(payload))
		telemetry.Business.RecordWebhookFailed("missing_signature")
		h.rejectSignature(w)
		return
	}

	event, err := h.provider.ParseWebhook(payload, signature)
	switch {
	case errors.Is(err, billing.ErrInvalidWebhookSignature):
		logger.Warn("webhook signature verification failed", "error", err, "payload_bytes", len(payload))
		telemetry.Business.RecordWebhookFailed("invalid_signature")
		h.rejectSignature(w)
		return
	case err != nil:
		logger.Error("malformed webhook event", "error", err)
		telemetry.Business.RecordWebhookFailed("malformed")
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, op, "Invalid event payload"))
		return
	}

	logger = logger.With("event_id", event.ID, "event_type", event.Type)
	telemetry.Business.RecordWebhookReceived(event.Type)

	if event.Type != billing.EventCheckoutSessionCompleted {
		logger.Debug("ignoring webhook event")
		h.acknowledge(w)
		return
	}

	result, err := h.reconciler.HandleCheckoutCompleted(r.Context(), event.ID, event.Session)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	logger.Info("webhook processed",
		"order_id", result.OrderID,
		"outcome", result.Outcome,
		"side_effect_errors", result.SideEffects != nil,
		"duration", time.Since(start),
	)
	h.acknowledge(w)
}

// rejectSignature answers 401 without saying why verification failed.
func (h *StripeHandler) rejectSignature(w http.ResponseWriter) {
	handler.WriteJSON(w, http.StatusUnauthorized, handler.ErrorBody{Error: "Invalid signature", Code: domain.EUNAUTHORIZED})
}

func (h *StripeHandler) acknowledge(w http.ResponseWriter) {
	handler.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
