// Package pricing computes cart subtotals, shipping and totals.
//
// Every amount is an integer in minor currency units (cents). Nothing in this
// package performs floating-point arithmetic; dividing by 100 is a display
// concern.
package pricing

import "github.com/dukerupert/loomworks/internal/domain"

// Shipping option codes.
const (
	OptionStandard = "standard"
	OptionExpress  = "express"
)

// Policy is the store's shipping configuration. A zero
// FreeShippingThreshold disables the free-shipping rule.
type Policy struct {
	FreeShippingThreshold int64
	StandardShippingCost  int64
	ExpressShippingCost   int64
}

// Line is a priced cart line.
type Line struct {
	ProductID string
	Price     int64
	Quantity  int
}

// Quote is the full price breakdown for a set of lines.
type Quote struct {
	Subtotal int64  `json:"subtotal"`
	Shipping int64  `json:"shipping"`
	Total    int64  `json:"total"`
	Option   string `json:"shippingOption"`

	// FreeShippingRemaining is how much more the customer must spend to
	// qualify for free standard shipping. Zero when already qualified or
	// when the rule is disabled.
	FreeShippingRemaining int64 `json:"freeShippingRemaining"`
}

// ShippingOption is one selectable delivery speed.
type ShippingOption struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Cost    int64  `json:"cost"`
	DaysMin int    `json:"daysMin"`
	DaysMax int    `json:"daysMax"`
}

// Subtotal returns Σ price × quantity.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Price * int64(l.Quantity)
	}
	return sum
}

// ShippingCost returns 0 when the threshold is enabled and met, otherwise
// the standard cost.
func ShippingCost(subtotal int64, p Policy) int64 {
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.StandardShippingCost
}

// Total returns subtotal plus standard shipping.
func Total(lines []Line, p Policy) int64 {
	subtotal := Subtotal(lines)
	return subtotal + ShippingCost(subtotal, p)
}

// ShippingOptions lists the delivery options for a subtotal. Express is
// never waived by the free-shipping threshold.
func ShippingOptions(subtotal int64, p Policy) []ShippingOption {
	opts := []ShippingOption{
		{Code: OptionStandard, Name: "Standard Shipping", Cost: ShippingCost(subtotal, p), DaysMin: 5, DaysMax: 7},
	}
	if p.ExpressShippingCost > 0 {
		opts = append(opts, ShippingOption{Code: OptionExpress, Name: "Express Shipping", Cost: p.ExpressShippingCost, DaysMin: 2, DaysMax: 3})
	}
	return opts
}

// ShippingCostFor returns the cost of the named option. Unknown or empty
// codes fall back to standard.
func ShippingCostFor(option string, subtotal int64, p Policy) (string, int64) {
	for _, o := range ShippingOptions(subtotal, p) {
		if o.Code == option {
			return o.Code, o.Cost
		}
	}
	return OptionStandard, ShippingCost(subtotal, p)
}

// QuoteFor prices lines with the given shipping option.
func QuoteFor(lines []Line, p Policy, option string) Quote {
	subtotal := Subtotal(lines)
	code, shipping := ShippingCostFor(option, subtotal, p)

	q := Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
		Option:   code,
	}
	if p.FreeShippingThreshold > 0 && subtotal < p.FreeShippingThreshold {
		q.FreeShippingRemaining = p.FreeShippingThreshold - subtotal
	}
	return q
}

// LinesFromItems converts frozen order items into pricing lines.
func LinesFromItems(items []domain.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{ProductID: item.ProductID, Price: item.Price, Quantity: item.Quantity}
	}
	return lines
}
