package admin

import (
	"net/http"

	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/service"
)

// StockHandler reads and overwrites product stock counters.
type StockHandler struct {
	inventory service.InventoryService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(inventory service.InventoryService) *StockHandler {
	return &StockHandler{inventory: inventory}
}

type stockResponse struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

// Get handles GET /admin/api/stock/{productId}
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	n, err := h.inventory.GetStock(r.Context(), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, stockResponse{ProductID: productID, Stock: n})
}

// Set handles PUT /admin/api/stock/{productId} with body {"stock": n}
func (h *StockHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock int `json:"stock"`
	}
	if err := handler.DecodeJSON(r, "admin.stock.set", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	productID := r.PathValue("productId")
	if err := h.inventory.SetStock(r.Context(), productID, req.Stock); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, stockResponse{ProductID: productID, Stock: req.Stock})
}
