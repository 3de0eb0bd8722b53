package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
)

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderConfirmationEmail is sent to the customer once payment is confirmed.
type OrderConfirmationEmail struct {
	OrderNumber    string
	CustomerName   string
	OrderDate      time.Time
	Items          []OrderItem
	SubtotalCents  int64
	ShippingCents  int64
	TaxCents       int64
	TotalCents     int64
	ShippingOption string
	ShippingAddr   Address
	OrderURL       string
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order Confirmation - " + e.OrderNumber
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation.html"
}

// OperatorOrderEmail tells the shop owner a paid order is waiting.
type OperatorOrderEmail struct {
	OrderNumber   string
	OrderID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PaymentMethod string
	Items         []OrderItem
	ItemCount     int
	TotalCents    int64
	ShippingAddr  Address
	AdminURL      string

	// Cancelled is set when payment arrived after the order was cancelled.
	Cancelled bool
}

func (e OperatorOrderEmail) Subject() string {
	if e.Cancelled {
		return fmt.Sprintf("Review needed: cancelled order %s was paid", e.OrderNumber)
	}
	return fmt.Sprintf("New order %s (%d items)", e.OrderNumber, e.ItemCount)
}

func (e OperatorOrderEmail) TemplateName() string {
	return "operator_new_order.html"
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ProductName string
	Quantity    int
	PriceCents  int64
	TotalCents  int64
	ImageURL    string // Optional product image
}

// Address represents a shipping address
type Address struct {
	Name       string
	Line1      string
	Line2      string // Optional
	City       string
	State      string
	PostalCode string
	Country    string
}

// OrderNumber is the short reference shown to people: the first eight
// characters of the order id, upper-cased.
func OrderNumber(orderID string) string {
	if len(orderID) > 8 {
		orderID = orderID[:8]
	}
	return "#" + strings.ToUpper(orderID)
}

func itemsFromOrder(o *domain.Order) []OrderItem {
	items := make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		name := it.Product.Name
		if name == "" {
			name = it.ProductID
		}
		items[i] = OrderItem{
			ProductName: name,
			Quantity:    it.Quantity,
			PriceCents:  it.Price,
			TotalCents:  it.LineTotal(),
			ImageURL:    it.Product.ImageURL,
		}
	}
	return items
}

func addressFromOrder(o *domain.Order) Address {
	a := o.ShippingAddress
	return Address{
		Name:       o.CustomerName,
		Line1:      a.Street,
		Line2:      a.Street2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// NewOrderConfirmation builds the customer email from the paid order.
func NewOrderConfirmation(o *domain.Order, baseURL string) OrderConfirmationEmail {
	return OrderConfirmationEmail{
		OrderNumber:    OrderNumber(o.ID),
		CustomerName:   o.CustomerGivenName,
		OrderDate:      o.CreatedAt,
		Items:          itemsFromOrder(o),
		SubtotalCents:  o.Subtotal(),
		ShippingCents:  o.Shipping,
		TaxCents:       o.Tax,
		TotalCents:     o.Total,
		ShippingOption: o.ShippingOptionName,
		ShippingAddr:   addressFromOrder(o),
		OrderURL:       baseURL + "/order-confirmation?orderId=" + o.ID,
	}
}

// NewOperatorOrder builds the operator notification from the paid order.
func NewOperatorOrder(o *domain.Order, baseURL string) OperatorOrderEmail {
	return OperatorOrderEmail{
		OrderNumber:   OrderNumber(o.ID),
		OrderID:       o.ID,
		Cancelled:     o.Status == domain.OrderStatusCancelled,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		PaymentMethod: o.PaymentMethod,
		Items:         itemsFromOrder(o),
		ItemCount:     o.ItemCount(),
		TotalCents:    o.Total,
		ShippingAddr:  addressFromOrder(o),
		AdminURL:      baseURL + "/admin/api/orders/" + o.ID,
	}
}
