// Package storefront serves the customer-facing JSON API: cart, orders and
// payment sessions.
package storefront

import (
	"net/http"

	"github.com/dukerupert/loomworks/internal/cart"
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/dukerupert/loomworks/internal/service"
)

// CartHandler handles the cookie-backed cart.
type CartHandler struct {
	store     *cart.CookieStore
	inventory service.InventoryService
	policy    pricing.Policy
}

// NewCartHandler creates a cart handler. inventory may be nil, which turns
// off the stock clamp.
func NewCartHandler(store *cart.CookieStore, inventory service.InventoryService, policy pricing.Policy) *CartHandler {
	return &CartHandler{store: store, inventory: inventory, policy: policy}
}

// CartResponse is the cart plus its price breakdown.
type CartResponse struct {
	Lines           []cart.Line              `json:"lines"`
	Quote           pricing.Quote            `json:"quote"`
	ShippingOptions []pricing.ShippingOption `json:"shippingOptions"`
}

func (h *CartHandler) respond(w http.ResponseWriter, c cart.Cart) {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	quote := c.Quote(h.policy)
	handler.WriteJSON(w, http.StatusOK, CartResponse{
		Lines:           lines,
		Quote:           quote,
		ShippingOptions: pricing.ShippingOptions(quote.Subtotal, h.policy),
	})
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.store.Load(r))
}

// SetQuantityRequest sets one line. Product is required when the line is new.
type SetQuantityRequest struct {
	ProductID string                  `json:"productId"`
	Quantity  int                     `json:"quantity"`
	Product   *domain.ProductSnapshot `json:"product,omitempty"`
}

// SetQuantity handles POST /api/cart/items
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "cart.set_quantity"

	var req SetQuantityRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.ProductID == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "productId", "is required"))
		return
	}

	c := h.store.Load(r)

	product, ok := h.snapshotFor(c, req)
	if !ok {
		if req.Quantity <= 0 {
			h.respond(w, c)
			return
		}
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "product", "is required for a new cart line"))
		return
	}

	c.SetQuantity(product, req.Quantity, h.stockFor(r, req.ProductID))

	if err := h.store.Save(w, c); err != nil {
		handler.ErrorResponse(w, r, domain.Internal(err, op, "failed to save cart"))
		return
	}
	h.respond(w, c)
}

// snapshotFor prefers the product sent by the client and falls back to the
// snapshot already in the cart.
func (h *CartHandler) snapshotFor(c cart.Cart, req SetQuantityRequest) (domain.ProductSnapshot, bool) {
	if req.Product != nil {
		p := *req.Product
		p.ID = req.ProductID
		return p, true
	}
	for _, l := range c.Lines {
		if l.ProductID == req.ProductID {
			return l.Product, true
		}
	}
	return domain.ProductSnapshot{}, false
}

// stockFor returns cart.UnknownStock when stock cannot be determined.
func (h *CartHandler) stockFor(r *http.Request, productID string) int {
	if h.inventory == nil {
		return cart.UnknownStock
	}
	n, err := h.inventory.GetStock(r.Context(), productID)
	if err != nil {
		if !domain.IsNotFound(err) {
			middleware.GetLogger(r.Context()).Warn("stock lookup failed", "product_id", productID, "error", err)
		}
		return cart.UnknownStock
	}
	return n
}

// SetShipping handles POST /api/cart/shipping
func (h *CartHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	const op = "cart.set_shipping"

	var req struct {
		Option string `json:"shippingOption"`
	}
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Option != pricing.OptionStandard && req.Option != pricing.OptionExpress {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "shippingOption", "must be one of: standard express"))
		return
	}

	c := h.store.Load(r)
	c.ShippingOption = req.Option
	if err := h.store.Save(w, c); err != nil {
		handler.ErrorResponse(w, r, domain.Internal(err, op, "failed to save cart"))
		return
	}
	h.respond(w, c)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(w)
	h.respond(w, cart.Cart{})
}
