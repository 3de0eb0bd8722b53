// Package cart holds the shopping cart as an explicit, serializable value.
//
// A Cart is plain data: mutations are methods on the value and persistence
// happens only through an adapter (see CookieStore).
package cart

import (
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/pricing"
)

// Line is one product in the cart. The product snapshot is taken when the
// line is added and travels with the cart until checkout.
type Line struct {
	ProductID string                 `json:"productId"`
	Product   domain.ProductSnapshot `json:"product"`
	Quantity  int                    `json:"quantity"`
}

// Cart is the browser session's cart.
type Cart struct {
	Lines          []Line `json:"lines"`
	ShippingOption string `json:"shippingOption,omitempty"`
}

// UnknownStock disables the stock clamp for a mutation.
const UnknownStock = -1

// SetQuantity sets the line for product to quantity. A quantity of zero or
// less removes the line. When stock is known the quantity is clamped to it,
// and a product with no stock is removed.
func (c *Cart) SetQuantity(product domain.ProductSnapshot, quantity, stock int) {
	if stock != UnknownStock && quantity > stock {
		quantity = stock
	}
	if quantity <= 0 {
		c.Remove(product.ID)
		return
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID == product.ID {
			c.Lines[i].Quantity = quantity
			c.Lines[i].Product = product
			return
		}
	}
	c.Lines = append(c.Lines, Line{ProductID: product.ID, Product: product, Quantity: quantity})
}

// Add increases the product's quantity by delta, subject to the same clamp
// as SetQuantity.
func (c *Cart) Add(product domain.ProductSnapshot, delta, stock int) {
	c.SetQuantity(product, c.Quantity(product.ID)+delta, stock)
}

// Quantity returns the quantity of productID in the cart.
func (c *Cart) Quantity(productID string) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID string) {
	lines := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			lines = append(lines, l)
		}
	}
	c.Lines = lines
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
	c.ShippingOption = ""
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// PricingLines converts the cart into lines for the pricing engine.
func (c *Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = pricing.Line{ProductID: l.ProductID, Price: l.Product.Price, Quantity: l.Quantity}
	}
	return lines
}

// Quote prices the cart with its selected shipping option.
func (c *Cart) Quote(p pricing.Policy) pricing.Quote {
	return pricing.QuoteFor(c.PricingLines(), p, c.ShippingOption)
}

// OrderItems snapshots the cart into order items for checkout.
func (c *Cart) OrderItems() []domain.OrderItem {
	items := make([]domain.OrderItem, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = domain.OrderItem{
			ProductID: l.ProductID,
			Product:   l.Product,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		}
	}
	return items
}
