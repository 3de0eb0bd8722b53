package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/memory"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = pricing.Policy{
	FreeShippingThreshold: 10000,
	StandardShippingCost:  500,
	ExpressShippingCost:   1500,
}

func validInput() domain.CreateOrderInput {
	return domain.CreateOrderInput{
		CustomerName:       "Ada Lovelace",
		CustomerGivenName:  "Ada",
		CustomerFamilyName: "Lovelace",
		CustomerEmail:      "ada@example.com",
		Items: []domain.OrderItem{
			{
				ProductID: "runner-indigo",
				Product:   domain.ProductSnapshot{ID: "runner-indigo", Name: "Indigo Table Runner", Price: 4500},
				Quantity:  2,
				Price:     4500,
			},
		},
		Total:              9500,
		Shipping:           500,
		ShippingOptionName: "Standard Shipping",
		PaymentMethod:      "card",
		ShippingAddress: domain.Address{
			Street:     "1 Loom Lane",
			City:       "Portland",
			PostalCode: "97201",
			Country:    "US",
		},
	}
}

// failingOrderStore fails every call with err.
type failingOrderStore struct {
	err error
}

func (f failingOrderStore) InsertOrder(context.Context, *domain.Order) error { return f.err }
func (f failingOrderStore) FindOrder(context.Context, string) (*domain.Order, error) {
	return nil, f.err
}
func (f failingOrderStore) ListOrders(context.Context, domain.OrderFilter) ([]domain.Order, error) {
	return nil, f.err
}
func (f failingOrderStore) UpdateOrder(context.Context, string, func(*domain.Order) error) (*domain.Order, error) {
	return nil, f.err
}

func TestCreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	svc := NewOrderService(store, &testPolicy, nil)

	order, err := svc.CreateOrder(ctx, validInput(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.GuestUserID, order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodPending, order.PaymentMethod, "submitted payment method is ignored")
	assert.Equal(t, int64(9500), order.Total)
	assert.False(t, order.CreatedAt.IsZero())

	stored, err := store.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, order.Items, stored.Items)
}

func TestCreateOrder_AttributesUser(t *testing.T) {
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)

	order, err := svc.CreateOrder(context.Background(), validInput(), "user-42")
	require.NoError(t, err)
	assert.Equal(t, "user-42", order.UserID)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *domain.CreateOrderInput)
		wantField string
	}{
		{"no items", func(in *domain.CreateOrderInput) { in.Items = nil }, "items"},
		{"missing email", func(in *domain.CreateOrderInput) { in.CustomerEmail = "" }, "customerEmail"},
		{"bad email", func(in *domain.CreateOrderInput) { in.CustomerEmail = "not-an-email" }, "customerEmail"},
		{"missing city", func(in *domain.CreateOrderInput) { in.ShippingAddress.City = "" }, "shippingAddress.city"},
		{"zero quantity", func(in *domain.CreateOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"total mismatch", func(in *domain.CreateOrderInput) { in.Total = 100 }, "total"},
		{"unit price above cap", func(in *domain.CreateOrderInput) {
			// 2^62 × 4 wraps to zero in int64.
			in.Items[0].Price = 1 << 62
			in.Items[0].Quantity = 4
			in.Total = 500
		}, "items[0].price"},
		{"quantity above cap", func(in *domain.CreateOrderInput) {
			in.Items[0].Quantity = domain.MaxLineQuantity + 1
			in.Total = int64(domain.MaxLineQuantity+1)*4500 + 500
		}, "items[0].quantity"},
		{"too many lines", func(in *domain.CreateOrderInput) {
			line := in.Items[0]
			in.Items = make([]domain.OrderItem, domain.MaxOrderLines+1)
			for i := range in.Items {
				in.Items[i] = line
			}
		}, "items"},
		{"tax above cap", func(in *domain.CreateOrderInput) {
			in.Tax = domain.MaxUnitAmount + 1
			in.Total += in.Tax
		}, "tax"},
		{"shipping not offered", func(in *domain.CreateOrderInput) {
			in.Shipping = 700
			in.Total = 9700
		}, "shipping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewOrderStore()
			svc := NewOrderService(store, &testPolicy, nil)
			in := validInput()
			tt.mutate(&in)

			order, err := svc.CreateOrder(context.Background(), in, "")

			require.Error(t, err)
			assert.Nil(t, order)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Contains(t, domain.GetValidationFields(err), tt.wantField)

			all, _ := store.ListOrders(context.Background(), domain.OrderFilter{})
			assert.Empty(t, all, "nothing is stored on validation failure")
		})
	}
}

func TestCreateOrder_ExpressAndTax(t *testing.T) {
	svc := NewOrderService(memory.NewOrderStore(), &testPolicy, nil)
	in := validInput()
	in.Shipping = 1500
	in.Tax = 720
	in.Total = 9000 + 1500 + 720

	order, err := svc.CreateOrder(context.Background(), in, "")
	require.NoError(t, err)
	assert.Equal(t, int64(11220), order.Total)
}

func TestCreateOrder_StoreFailure(t *testing.T) {
	storeErr := domain.Persistence(errors.New("connection refused"), "order.insert")
	svc := NewOrderService(failingOrderStore{err: storeErr}, nil, nil)

	_, err := svc.CreateOrder(context.Background(), validInput(), "")

	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.NotContains(t, domain.ErrorMessage(err), "connection refused")
}

func TestGetOrderByID(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)
	created, err := svc.CreateOrder(ctx, validInput(), "")
	require.NoError(t, err)

	got, err := svc.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	missing, err := svc.GetOrderByID(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)

	first, err := svc.CreateOrder(ctx, validInput(), "u1")
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, validInput(), "u2")
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, first.ID, domain.OrderStatusProcessing, nil)
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	processing, err := svc.ListOrders(ctx, domain.OrderStatusProcessing)
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, first.ID, processing[0].ID)

	_, err = svc.ListOrders(ctx, "lost")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestListOrdersForUser(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)

	_, err := svc.CreateOrder(ctx, validInput(), "u1")
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, validInput(), "")
	require.NoError(t, err)

	mine, err := svc.ListOrdersForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "u1", mine[0].UserID)

	for _, id := range []string{"", domain.GuestUserID} {
		_, err := svc.ListOrdersForUser(ctx, id)
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err), "user %q", id)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)
	created, err := svc.CreateOrder(ctx, validInput(), "")
	require.NoError(t, err)

	tracking := "1Z999"
	updated, err := svc.UpdateOrderStatus(ctx, created.ID, domain.OrderStatusConfirmed, &tracking)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, "1Z999", updated.TrackingNumber)

	_, err = svc.UpdateOrderStatus(ctx, "missing", domain.OrderStatusShipped, nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = svc.UpdateOrderStatus(ctx, created.ID, "lost", nil)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestUpdateOrderPaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(memory.NewOrderStore(), nil, nil)
	created, err := svc.CreateOrder(ctx, validInput(), "")
	require.NoError(t, err)

	paid, err := svc.UpdateOrderPaymentStatus(ctx, created.ID, domain.PaymentStatusPaid, "card")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, paid.Status)
	assert.Equal(t, "card", paid.PaymentMethod)

	_, err = svc.UpdateOrderPaymentStatus(ctx, created.ID, domain.PaymentStatusPending, "")
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	again, err := svc.UpdateOrderPaymentStatus(ctx, created.ID, domain.PaymentStatusPaid, "card")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, again.PaymentStatus)
}
