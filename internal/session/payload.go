package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/ordering/internal/cart"
)

// ItemPayload is the JSON form of a line item. Money is rendered as a
// fixed two-decimal string.
type ItemPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// CartPayload is the JSON form of a cart.
type CartPayload struct {
	Items       []ItemPayload `json:"items"`
	Total       string        `json:"total"`
	ItemCount   int           `json:"item_count"`
	TableID     *string       `json:"table_id"`
	SidebarOpen bool          `json:"sidebar_open"`
	LastAdded   string        `json:"last_added,omitempty"`
}

// OrderPayload is the JSON form of a placed order.
type OrderPayload struct {
	ID        uuid.UUID     `json:"id"`
	Items     []ItemPayload `json:"items"`
	Total     string        `json:"total"`
	ItemCount int           `json:"item_count"`
	TableID   *string       `json:"table_id"`
	PlacedAt  time.Time     `json:"placed_at"`
}

// changePayload is pushed with every cart.updated event.
type changePayload struct {
	Op        cart.Op       `json:"op"`
	Items     []ItemPayload `json:"items"`
	Total     string        `json:"total"`
	ItemCount int           `json:"item_count"`
	TableID   *string       `json:"table_id"`
}

type itemAddedPayload struct {
	Label string `json:"label"`
}

func ItemsPayload(items []cart.LineItem) []ItemPayload {
	out := make([]ItemPayload, len(items))
	for i, it := range items {
		out[i] = ItemPayload{
			ID:        it.ID,
			Name:      it.Name,
			Title:     it.Title,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().StringFixed(2),
		}
	}
	return out
}

func ViewPayload(v cart.View) CartPayload {
	return CartPayload{
		Items:       ItemsPayload(v.Items),
		Total:       v.Total.StringFixed(2),
		ItemCount:   v.ItemCount,
		TableID:     optional(v.TableID),
		SidebarOpen: v.SidebarOpen,
		LastAdded:   v.LastTouched,
	}
}

func ToOrderPayload(o cart.Order) OrderPayload {
	return OrderPayload{
		ID:        o.ID,
		Items:     ItemsPayload(o.Items),
		Total:     o.Total().StringFixed(2),
		ItemCount: o.ItemCount(),
		TableID:   optional(o.TableID),
		PlacedAt:  o.PlacedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
