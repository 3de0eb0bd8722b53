package domain

import (
	"context"
	"time"
)

// Order-related domain errors.
var (
	ErrOrderNotFound            = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrProductNotFound          = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrEmptyOrder               = &Error{Code: EINVALID, Message: "Order must contain at least one item"}
	ErrZeroTotal                = &Error{Code: ECONFLICT, Message: "Order total must be greater than zero to start payment"}
	ErrInvalidPaymentTransition = &Error{Code: ECONFLICT, Message: "Payment status cannot move backwards"}
)

// GuestUserID attributes orders placed without an account.
const GuestUserID = "guest"

// Order input bounds. The validate tags on OrderItem and CreateOrderInput
// carry the same values.
const (
	MaxUnitAmount   = 99_999_999
	MaxLineQuantity = 9_999
	MaxOrderLines   = 100
)

// PaymentMethodPending is the payment method recorded until the provider reports one.
const PaymentMethodPending = "pending"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ProductSnapshot is the catalog entry as it looked when the order was placed.
type ProductSnapshot struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name" validate:"required"`
	Price    int64  `json:"price" bson:"price" validate:"gte=0,lte=99999999"`
	ImageURL string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Category string `json:"category,omitempty" bson:"category,omitempty"`
}

// Address is a shipping destination.
type Address struct {
	Street     string `json:"street" bson:"street" validate:"required"`
	Street2    string `json:"street2,omitempty" bson:"street2,omitempty"`
	City       string `json:"city" bson:"city" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
}

// OrderItem is one purchased line. Product and Price are frozen at creation.
// Price is capped at MaxUnitAmount and Quantity at MaxLineQuantity so that
// Σ price × quantity over MaxOrderLines lines stays well inside int64.
type OrderItem struct {
	ProductID string          `json:"productId" bson:"productId" validate:"required"`
	Product   ProductSnapshot `json:"product" bson:"product"`
	Quantity  int             `json:"quantity" bson:"quantity" validate:"gte=1,lte=9999"`
	Price     int64           `json:"price" bson:"price" validate:"gte=0,lte=99999999"`
}

// LineTotal returns price × quantity in minor units.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order is the aggregate root of the order lifecycle. All money fields are
// integer minor currency units.
type Order struct {
	ID                 string        `json:"id" bson:"_id"`
	UserID             string        `json:"userId" bson:"userId"`
	CustomerName       string        `json:"customerName" bson:"customerName"`
	CustomerGivenName  string        `json:"customerGivenName" bson:"customerGivenName"`
	CustomerFamilyName string        `json:"customerFamilyName" bson:"customerFamilyName"`
	CustomerEmail      string        `json:"customerEmail" bson:"customerEmail"`
	CustomerPhone      string        `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`
	Items              []OrderItem   `json:"items" bson:"items"`
	Total              int64         `json:"total" bson:"total"`
	Shipping           int64         `json:"shipping" bson:"shipping"`
	Tax                int64         `json:"tax" bson:"tax"`
	ShippingOptionName string        `json:"shippingOptionName,omitempty" bson:"shippingOptionName,omitempty"`
	Status             OrderStatus   `json:"status" bson:"status"`
	PaymentMethod      string        `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus      PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	ShippingAddress    Address       `json:"shippingAddress" bson:"shippingAddress"`
	TrackingNumber     string        `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	CreatedAt          time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Subtotal returns Σ price × quantity over the frozen items.
func (o *Order) Subtotal() int64 {
	var sum int64
	for _, item := range o.Items {
		sum += item.LineTotal()
	}
	return sum
}

// ItemCount returns the total number of units in the order.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate stored items.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

// CreateOrderInput is the checkout submission.
type CreateOrderInput struct {
	CustomerName       string      `json:"customerName" validate:"required"`
	CustomerGivenName  string      `json:"customerGivenName" validate:"required"`
	CustomerFamilyName string      `json:"customerFamilyName" validate:"required"`
	CustomerEmail      string      `json:"customerEmail" validate:"required,email"`
	CustomerPhone      string      `json:"customerPhone,omitempty"`
	Items              []OrderItem `json:"items" validate:"required,min=1,max=100,dive"`
	Total              int64       `json:"total" validate:"gte=0"`
	Shipping           int64       `json:"shipping" validate:"gte=0,lte=99999999"`
	Tax                int64       `json:"tax,omitempty" validate:"gte=0,lte=99999999"`
	PaymentMethod      string      `json:"paymentMethod,omitempty"`
	ShippingOptionName string      `json:"shippingOptionName,omitempty"`
	ShippingAddress    Address     `json:"shippingAddress" validate:"required"`
}

// NewPendingOrder builds an order in its initial state from checkout input.
// The caller's PaymentMethod is ignored: every order starts as "pending".
func NewPendingOrder(input CreateOrderInput, userID string) *Order {
	if userID == "" {
		userID = GuestUserID
	}
	return &Order{
		UserID:             userID,
		CustomerName:       input.CustomerName,
		CustomerGivenName:  input.CustomerGivenName,
		CustomerFamilyName: input.CustomerFamilyName,
		CustomerEmail:      input.CustomerEmail,
		CustomerPhone:      input.CustomerPhone,
		Items:              append([]OrderItem(nil), input.Items...),
		Total:              input.Total,
		Shipping:           input.Shipping,
		Tax:                input.Tax,
		ShippingOptionName: input.ShippingOptionName,
		Status:             OrderStatusPending,
		PaymentMethod:      PaymentMethodPending,
		PaymentStatus:      PaymentStatusPending,
		ShippingAddress:    input.ShippingAddress,
	}
}

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	Status OrderStatus
	UserID string
}

// Matches reports whether o passes the filter.
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	return true
}

// OrderStore persists orders. Each method is a single document write or read.
type OrderStore interface {
	// InsertOrder assigns ID, CreatedAt and UpdatedAt and stores the order.
	InsertOrder(ctx context.Context, order *Order) error

	// FindOrder returns nil, nil when no order has the id.
	FindOrder(ctx context.Context, id string) (*Order, error)

	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)

	// UpdateOrder loads the order, applies mutate and writes the result
	// atomically. Returns ErrOrderNotFound when the id is unknown. If mutate
	// returns an error nothing is written.
	UpdateOrder(ctx context.Context, id string, mutate func(*Order) error) (*Order, error)
}

// StockStore holds per-product stock counters.
type StockStore interface {
	// GetStock returns ErrProductNotFound for unknown products.
	GetStock(ctx context.Context, productID string) (int, error)

	// SetStock creates or overwrites a product's counter.
	SetStock(ctx context.Context, productID string, stock int) error

	// DecrementStock lowers the counter by quantity, never below zero.
	DecrementStock(ctx context.Context, productID string, quantity int) error

	// DecrementStockOnce applies the decrement at most once per
	// (orderID, productID). It reports false when the pair was already applied.
	// Callers pass the order's full quantity for the product, summed over
	// every line that names it.
	DecrementStockOnce(ctx context.Context, orderID, productID string, quantity int) (bool, error)
}
