package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/kiwari-pos/ordering/internal/middleware"
	"github.com/kiwari-pos/ordering/internal/session"
	"github.com/kiwari-pos/ordering/internal/snapshot"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartRegistry defines the session methods needed by cart handlers.
// Satisfied by *session.Registry.
type CartRegistry interface {
	Cart(ctx context.Context, sessionID uuid.UUID) *cart.Aggregator
	Restore(ctx context.Context, sessionID uuid.UUID) (cart.View, error)
}

// CartHandler serves the cart and order ledger of the caller's session.
type CartHandler struct {
	carts  CartRegistry
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts CartRegistry, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes registers cart endpoints. Mount under /cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Delete("/items/{id}", h.RemoveItem)
	r.Patch("/items/{id}/quantity", h.UpdateQuantity)
	r.Put("/table", h.SelectTable)
	r.Delete("/table", h.ClearTable)
	r.Put("/sidebar", h.SetSidebar)
	r.Post("/restore", h.Restore)
}

// RegisterLedgerRoutes registers order ledger endpoints. Mount under /orders.
func (h *CartHandler) RegisterLedgerRoutes(r chi.Router) {
	r.Get("/", h.ListOrders)
	r.Post("/", h.PlaceOrder)
	r.Delete("/", h.ClearLedger)
}

// --- Request / Response types ---

type addItemRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
}

type updateQuantityRequest struct {
	Delta *int `json:"delta"`
}

type selectTableRequest struct {
	TableID string `json:"table_id"`
}

type sidebarRequest struct {
	Open *bool `json:"open"`
}

type restoreResponse struct {
	Restored int                 `json:"restored"`
	Cart     session.CartPayload `json:"cart"`
}

type ledgerResponse struct {
	Orders []session.OrderPayload `json:"orders"`
	Count  int                    `json:"count"`
}

// --- Handlers ---

// Get returns the caller's cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeCart(w, h.cart(r).View())
}

// Clear empties the cart. Placed orders are kept.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	writeCart(w, h.cart(r).Clear())
}

// AddItem adds one unit of a menu item.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.UnitPrice == "" {
		writeError(w, http.StatusBadRequest, "unit_price is required")
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit_price")
		return
	}
	if price.IsNegative() {
		writeError(w, http.StatusBadRequest, "unit_price must not be negative")
		return
	}

	writeCart(w, h.cart(r).AddItem(cart.LineItemInput{
		ID:        req.ID,
		Name:      req.Name,
		Title:     req.Title,
		UnitPrice: price,
	}))
}

// RemoveItem deletes a line item. Unknown ids leave the cart unchanged.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	writeCart(w, h.cart(r).RemoveItem(chi.URLParam(r, "id")))
}

// UpdateQuantity applies a signed delta to a line item's quantity.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == nil {
		writeError(w, http.StatusBadRequest, "delta is required")
		return
	}

	writeCart(w, h.cart(r).UpdateQuantity(chi.URLParam(r, "id"), *req.Delta))
}

// SelectTable sets the dine-in table.
func (h *CartHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	var req selectTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TableID = strings.TrimSpace(req.TableID)
	if req.TableID == "" {
		writeError(w, http.StatusBadRequest, "table_id is required")
		return
	}

	writeCart(w, h.cart(r).SelectTable(req.TableID))
}

// ClearTable unsets the dine-in table.
func (h *CartHandler) ClearTable(w http.ResponseWriter, r *http.Request) {
	writeCart(w, h.cart(r).ClearTable())
}

// SetSidebar sets the sidebar hint, or toggles it when open is omitted.
func (h *CartHandler) SetSidebar(w http.ResponseWriter, r *http.Request) {
	var req sidebarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := h.cart(r)
	if req.Open == nil {
		writeCart(w, c.ToggleSidebar())
		return
	}
	writeCart(w, c.SetSidebarOpen(*req.Open))
}

// Restore reloads the cart from its last snapshot.
func (h *CartHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionFromContext(r.Context())
	v, err := h.carts.Restore(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			writeError(w, http.StatusNotFound, "no saved cart for this session")
		case errors.Is(err, session.ErrSnapshotsDisabled):
			writeError(w, http.StatusConflict, "cart snapshots are disabled")
		default:
			h.logger.Error("restore cart", zap.String("session_id", sessionID.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, restoreResponse{
		Restored: len(v.Items),
		Cart:     session.ViewPayload(v),
	})
}

// ListOrders returns the orders placed in this session, oldest first.
func (h *CartHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ledger := h.cart(r).Ledger()
	resp := ledgerResponse{Orders: make([]session.OrderPayload, len(ledger)), Count: len(ledger)}
	for i, o := range ledger {
		resp.Orders[i] = session.ToOrderPayload(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlaceOrder moves the cart into a new order on the ledger.
func (h *CartHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	order := h.cart(r).PlaceOrder()
	writeJSON(w, http.StatusCreated, session.ToOrderPayload(order))
}

// ClearLedger drops every placed order.
func (h *CartHandler) ClearLedger(w http.ResponseWriter, r *http.Request) {
	h.cart(r).ClearLedger()
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *CartHandler) cart(r *http.Request) *cart.Aggregator {
	return h.carts.Cart(r.Context(), middleware.SessionFromContext(r.Context()))
}

func writeCart(w http.ResponseWriter, v cart.View) {
	writeJSON(w, http.StatusOK, session.ViewPayload(v))
}
