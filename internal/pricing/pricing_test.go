package pricing_test

import (
	"testing"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/stretchr/testify/assert"
)

var policy = pricing.Policy{
	FreeShippingThreshold: 5000,
	StandardShippingCost:  500,
	ExpressShippingCost:   1500,
}

func TestSubtotal(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: "a", Price: 1250, Quantity: 2},
		{ProductID: "b", Price: 999, Quantity: 1},
	}

	assert.Equal(t, int64(3499), pricing.Subtotal(lines))
	assert.Equal(t, int64(0), pricing.Subtotal(nil))
}

func TestShippingCost_FreeShippingBoundary(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"below threshold", 4999, 500},
		{"at threshold", 5000, 0},
		{"above threshold", 12000, 0},
		{"zero subtotal", 0, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.ShippingCost(tt.subtotal, policy))
		})
	}
}

func TestShippingCost_ThresholdDisabled(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 0, StandardShippingCost: 795}

	for _, subtotal := range []int64{0, 1, 5000, 1_000_000_00} {
		assert.Equal(t, int64(795), pricing.ShippingCost(subtotal, p))
	}
}

func TestTotal_IsSubtotalPlusShipping(t *testing.T) {
	policies := []pricing.Policy{
		policy,
		{FreeShippingThreshold: 0, StandardShippingCost: 795},
		{FreeShippingThreshold: 10000, StandardShippingCost: 0},
	}
	lineSets := [][]pricing.Line{
		{{Price: 100, Quantity: 1}},
		{{Price: 4999, Quantity: 1}},
		{{Price: 2500, Quantity: 2}},
		{{Price: 3333, Quantity: 3}, {Price: 1, Quantity: 7}},
	}

	for _, p := range policies {
		for _, lines := range lineSets {
			subtotal := pricing.Subtotal(lines)
			shipping := pricing.ShippingCost(subtotal, p)

			assert.Equal(t, subtotal+shipping, pricing.Total(lines, p))
			assert.Contains(t, []int64{0, p.StandardShippingCost}, shipping)
		}
	}
}

func TestQuoteFor_EndToEndCart(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 10000, StandardShippingCost: 500}
	lines := []pricing.Line{{ProductID: "mug", Price: 4500, Quantity: 2}}

	q := pricing.QuoteFor(lines, p, "")

	assert.Equal(t, int64(9000), q.Subtotal)
	assert.Equal(t, int64(500), q.Shipping)
	assert.Equal(t, int64(9500), q.Total)
	assert.Equal(t, pricing.OptionStandard, q.Option)
	assert.Equal(t, int64(1000), q.FreeShippingRemaining)
}

func TestQuoteFor_ExpressNeverWaived(t *testing.T) {
	lines := []pricing.Line{{Price: 6000, Quantity: 1}}

	q := pricing.QuoteFor(lines, policy, pricing.OptionExpress)

	assert.Equal(t, int64(1500), q.Shipping)
	assert.Equal(t, int64(7500), q.Total)
	assert.Equal(t, int64(0), q.FreeShippingRemaining)
}

func TestShippingOptions(t *testing.T) {
	opts := pricing.ShippingOptions(6000, policy)

	assert.Len(t, opts, 2)
	assert.Equal(t, pricing.OptionStandard, opts[0].Code)
	assert.Equal(t, int64(0), opts[0].Cost)
	assert.Equal(t, pricing.OptionExpress, opts[1].Code)

	noExpress := pricing.ShippingOptions(100, pricing.Policy{StandardShippingCost: 500})
	assert.Len(t, noExpress, 1)
}

func TestShippingCostFor_UnknownFallsBackToStandard(t *testing.T) {
	code, cost := pricing.ShippingCostFor("overnight", 100, policy)

	assert.Equal(t, pricing.OptionStandard, code)
	assert.Equal(t, int64(500), cost)
}

func TestLinesFromItems(t *testing.T) {
	items := []domain.OrderItem{
		{ProductID: "a", Price: 4500, Quantity: 2},
		{ProductID: "b", Price: 100, Quantity: 3},
	}

	lines := pricing.LinesFromItems(items)

	assert.Equal(t, int64(9300), pricing.Subtotal(lines))
	assert.Equal(t, "b", lines[1].ProductID)
}
