package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder() *Order {
	return NewPendingOrder(CreateOrderInput{
		CustomerName:       "Ada Lovelace",
		CustomerGivenName:  "Ada",
		CustomerFamilyName: "Lovelace",
		CustomerEmail:      "ada@example.com",
		Items: []OrderItem{
			{ProductID: "p1", Product: ProductSnapshot{ID: "p1", Name: "Mug", Price: 4500}, Quantity: 2, Price: 4500},
		},
		Total:    9500,
		Shipping: 500,
	}, "")
}

func TestNewPendingOrder(t *testing.T) {
	o := NewPendingOrder(CreateOrderInput{PaymentMethod: "card"}, "")

	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, PaymentMethodPending, o.PaymentMethod)
	assert.Equal(t, GuestUserID, o.UserID)
}

func TestNewPendingOrder_FreezesItems(t *testing.T) {
	input := CreateOrderInput{
		Items: []OrderItem{{ProductID: "p1", Product: ProductSnapshot{Name: "Mug", Price: 100}, Quantity: 1, Price: 100}},
	}
	o := NewPendingOrder(input, "user-1")

	input.Items[0].Price = 999
	input.Items[0].Product.Name = "Renamed"

	assert.Equal(t, int64(100), o.Items[0].Price)
	assert.Equal(t, "Mug", o.Items[0].Product.Name)
	assert.Equal(t, "user-1", o.UserID)
}

func TestCanTransitionPayment(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPaid, PaymentStatusRefunded, true},
		{PaymentStatusPaid, PaymentStatusPaid, true},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusPaid, PaymentStatusFailed, false},
		{PaymentStatusFailed, PaymentStatusPaid, false},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
		{PaymentStatusPending, PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionPayment(tt.from, tt.to))
		})
	}
}

func TestApplyPaymentStatus_PaidConfirmsOrder(t *testing.T) {
	o := pendingOrder()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ApplyPaymentStatus(o, PaymentStatusPaid, "card", now))

	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, OrderStatusConfirmed, o.Status)
	assert.Equal(t, "card", o.PaymentMethod)
	assert.Equal(t, now, o.UpdatedAt)
}

func TestApplyPaymentStatus_ForwardOnly(t *testing.T) {
	o := pendingOrder()
	now := time.Now()

	require.NoError(t, ApplyPaymentStatus(o, PaymentStatusPaid, "", now))

	err := ApplyPaymentStatus(o, PaymentStatusPending, "", now)
	require.Error(t, err)
	assert.Equal(t, ECONFLICT, ErrorCode(err))
	assert.ErrorIs(t, err, ErrInvalidPaymentTransition)
	assert.Equal(t, "Payment status cannot change from paid to pending", ErrorMessage(err))
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
}

func TestApplyPaymentStatus_ReplayKeepsFulfillment(t *testing.T) {
	o := pendingOrder()
	now := time.Now()
	require.NoError(t, ApplyPaymentStatus(o, PaymentStatusPaid, "card", now))
	o.Status = OrderStatusShipped

	require.NoError(t, ApplyPaymentStatus(o, PaymentStatusPaid, "card", now))

	assert.Equal(t, OrderStatusShipped, o.Status)
}

func TestApplyPaymentStatus_KeepsMethodWhenEmpty(t *testing.T) {
	o := pendingOrder()

	require.NoError(t, ApplyPaymentStatus(o, PaymentStatusFailed, "", time.Now()))

	assert.Equal(t, PaymentMethodPending, o.PaymentMethod)
	assert.Equal(t, OrderStatusPending, o.Status)
}

func TestApplyPaymentStatus_UnknownStatus(t *testing.T) {
	o := pendingOrder()

	err := ApplyPaymentStatus(o, PaymentStatus("settled"), "", time.Now())

	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestApplyStatusUpdate(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name         string
		existing     string
		status       OrderStatus
		tracking     *string
		wantStatus   OrderStatus
		wantTracking string
	}{
		{"tracking promotes confirmed", "", OrderStatusConfirmed, strPtr("TRACK123"), OrderStatusShipped, "TRACK123"},
		{"tracking promotes pending", "", OrderStatusPending, strPtr("TRACK123"), OrderStatusShipped, "TRACK123"},
		{"tracking promotes processing", "", OrderStatusProcessing, strPtr("TRACK123"), OrderStatusShipped, "TRACK123"},
		{"tracking kept on delivered", "", OrderStatusDelivered, strPtr("TRACK123"), OrderStatusDelivered, "TRACK123"},
		{"empty tracking clears", "OLD", OrderStatusConfirmed, strPtr(""), OrderStatusConfirmed, ""},
		{"whitespace tracking clears", "OLD", OrderStatusProcessing, strPtr("  "), OrderStatusProcessing, ""},
		{"absent tracking untouched", "OLD", OrderStatusProcessing, nil, OrderStatusProcessing, "OLD"},
		{"cancel keeps tracking", "OLD", OrderStatusCancelled, nil, OrderStatusCancelled, "OLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder()
			o.TrackingNumber = tt.existing

			require.NoError(t, ApplyStatusUpdate(o, tt.status, tt.tracking, time.Now()))

			assert.Equal(t, tt.wantStatus, o.Status)
			assert.Equal(t, tt.wantTracking, o.TrackingNumber)
		})
	}
}

func TestApplyStatusUpdate_UnknownStatus(t *testing.T) {
	o := pendingOrder()

	err := ApplyStatusUpdate(o, OrderStatus("lost"), nil, time.Now())

	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, OrderStatusPending, o.Status)
}

func TestOrder_Subtotal(t *testing.T) {
	o := pendingOrder()
	o.Items = append(o.Items, OrderItem{ProductID: "p2", Quantity: 3, Price: 250})

	assert.Equal(t, int64(9750), o.Subtotal())
	assert.Equal(t, 5, o.ItemCount())
}

func TestOrderFilter_Matches(t *testing.T) {
	o := pendingOrder()
	o.UserID = "u1"

	assert.True(t, OrderFilter{}.Matches(o))
	assert.True(t, OrderFilter{Status: OrderStatusPending, UserID: "u1"}.Matches(o))
	assert.False(t, OrderFilter{Status: OrderStatusShipped}.Matches(o))
	assert.False(t, OrderFilter{UserID: "u2"}.Matches(o))
}
