package domain

import (
	"fmt"
	"strings"
	"time"
)

// paymentTransitions lists the forward moves allowed from each payment status.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// CanTransitionPayment reports whether from → to is a legal forward move.
// Writing the current value again is always allowed.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyPaymentStatus moves the order's payment state to status. A non-empty
// method replaces the recorded payment method. Moving to paid confirms the
// order in the same step.
func ApplyPaymentStatus(o *Order, status PaymentStatus, method string, now time.Time) error {
	const op = "order.payment_status"

	if !status.Valid() {
		return Errorf(EINVALID, op, "unknown payment status: %s", status)
	}
	if !CanTransitionPayment(o.PaymentStatus, status) {
		return &Error{
			Code:    ErrInvalidPaymentTransition.Code,
			Op:      op,
			Message: fmt.Sprintf("Payment status cannot change from %s to %s", o.PaymentStatus, status),
			Err:     ErrInvalidPaymentTransition,
		}
	}

	if status == PaymentStatusPaid {
		applyPaymentConfirmed(o)
	} else {
		o.PaymentStatus = status
	}
	if method != "" {
		o.PaymentMethod = method
	}
	o.UpdatedAt = now
	return nil
}

// applyPaymentConfirmed is the single rule coupling payment and fulfillment:
// a paid order is a confirmed order. Orders already past pending keep their
// status so a replayed confirmation never regresses fulfillment.
func applyPaymentConfirmed(o *Order) {
	o.PaymentStatus = PaymentStatusPaid
	if o.Status == OrderStatusPending {
		o.Status = OrderStatusConfirmed
	}
}

// preShipment are the statuses a tracking number promotes to shipped.
func preShipment(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusProcessing
}

// ApplyStatusUpdate sets the fulfillment status. tracking follows three-way
// semantics: nil leaves the stored number alone, an empty string clears it,
// and a non-empty value is stored and promotes a pre-shipment status to
// shipped.
func ApplyStatusUpdate(o *Order, status OrderStatus, tracking *string, now time.Time) error {
	if !status.Valid() {
		return Errorf(EINVALID, "order.status", "unknown order status: %s", status)
	}

	if tracking != nil {
		number := strings.TrimSpace(*tracking)
		o.TrackingNumber = number
		if number != "" && preShipment(status) {
			status = OrderStatusShipped
		}
	}

	o.Status = status
	o.UpdatedAt = now
	return nil
}
