// Package cart holds the in-progress order of one ordering session: its
// line items, the selected table and the ledger of orders already placed.
package cart

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHook registers a hook at construction time.
func WithHook(h Hook) Option {
	return func(a *Aggregator) {
		a.hooks = append(a.hooks, h)
	}
}

// WithClock overrides the clock used to stamp placed orders.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator owns the cart of a single session. Every operation runs
// under one mutex, so the unique-id and positive-quantity invariants hold
// even when handlers call in from several goroutines.
type Aggregator struct {
	mu sync.Mutex

	items       []LineItem
	tableID     string
	sidebarOpen bool
	lastTouched string
	ledger      []Order

	hooks []Hook
	now   func() time.Time
}

// New creates an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Subscribe registers a hook after construction.
func (a *Aggregator) Subscribe(h Hook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, h)
}

// AddItem bumps the quantity of an item already in the cart, or appends
// the candidate with quantity 1. A re-added item keeps its original
// fields; only the quantity changes.
//
// Every mutator returns the View as it stood right after its own change.
func (a *Aggregator) AddItem(in LineItemInput) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.indexOf(in.ID); i >= 0 {
		a.items[i].Quantity = addQuantity(a.items[i].Quantity, 1)
	} else {
		a.items = append(a.items, LineItem{
			ID:        in.ID,
			Name:      in.Name,
			Title:     in.Title,
			UnitPrice: in.UnitPrice,
			Quantity:  1,
		})
	}
	a.lastTouched = in.label()
	a.emit(Change{Op: OpAddItem, Label: a.lastTouched})
	return a.view()
}

// RemoveItem deletes the item with the given id. Unknown ids are ignored.
func (a *Aggregator) RemoveItem(id string) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.indexOf(id); i >= 0 {
		a.items = append(a.items[:i], a.items[i+1:]...)
	}
	a.emit(Change{Op: OpRemoveItem})
	return a.view()
}

// UpdateQuantity applies delta to the item's quantity, clamping at zero.
// An item that reaches zero is removed. Unknown ids are ignored.
func (a *Aggregator) UpdateQuantity(id string, delta int) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.indexOf(id); i >= 0 {
		q := addQuantity(a.items[i].Quantity, delta)
		if q == 0 {
			a.items = append(a.items[:i], a.items[i+1:]...)
		} else {
			a.items[i].Quantity = q
		}
	}
	a.emit(Change{Op: OpUpdateQuantity})
	return a.view()
}

// addQuantity returns max(0, q+delta) without wrapping around on overflow.
func addQuantity(q, delta int) int {
	switch {
	case delta > 0 && q > math.MaxInt-delta:
		return math.MaxInt
	case q+delta < 0:
		return 0
	default:
		return q + delta
	}
}

// Clear empties the cart. The ledger is left alone.
func (a *Aggregator) Clear() View {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = nil
	a.emit(Change{Op: OpClear})
	return a.view()
}

// PlaceOrder moves the current items into a new Order on the ledger and
// empties the cart. An empty cart produces an Order with no items.
func (a *Aggregator) PlaceOrder() Order {
	a.mu.Lock()
	defer a.mu.Unlock()

	order := Order{
		ID:       uuid.New(),
		Items:    copyItems(a.items),
		TableID:  a.tableID,
		PlacedAt: a.now(),
	}
	a.ledger = append(a.ledger, order)
	a.items = nil

	ret := cloneOrder(order)
	a.emit(Change{Op: OpPlaceOrder, Order: &ret})
	return cloneOrder(order)
}

// ClearLedger drops every placed order.
func (a *Aggregator) ClearLedger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ledger = nil
	a.emit(Change{Op: OpClearLedger})
}

// SelectTable sets the dine-in table for the cart.
func (a *Aggregator) SelectTable(id string) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tableID = id
	a.emit(Change{Op: OpSelectTable})
	return a.view()
}

// ClearTable unsets the dine-in table.
func (a *Aggregator) ClearTable() View {
	return a.SelectTable("")
}

// SetSidebarOpen records the cart sidebar visibility hint.
func (a *Aggregator) SetSidebarOpen(open bool) View {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sidebarOpen = open
	return a.view()
}

// ToggleSidebar flips the sidebar hint.
func (a *Aggregator) ToggleSidebar() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sidebarOpen = !a.sidebarOpen
	return a.view()
}

// Restore replaces the cart contents with previously snapshotted items.
// Duplicate ids keep their first occurrence and items with quantity
// below 1 are dropped. Hooks are not fired.
func (a *Aggregator) Restore(items []LineItem) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool, len(items))
	restored := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		restored = append(restored, it)
	}
	a.items = restored
	return a.view()
}

// Items returns a copy of the current line items in insertion order.
func (a *Aggregator) Items() []LineItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyItems(a.items)
}

// Ledger returns copies of the placed orders, oldest first.
func (a *Aggregator) Ledger() []Order {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Order, len(a.ledger))
	for i, o := range a.ledger {
		out[i] = cloneOrder(o)
	}
	return out
}

// Total is Σ unitPrice × quantity over the current items.
func (a *Aggregator) Total() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sumTotal(a.items)
}

// ItemCount is Σ quantity over the current items.
func (a *Aggregator) ItemCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sumQuantity(a.items)
}

// LastTouchedLabel is the display name of the most recently added item.
func (a *Aggregator) LastTouchedLabel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTouched
}

// SelectedTable returns the selected table id, if any.
func (a *Aggregator) SelectedTable() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tableID, a.tableID != ""
}

// SidebarOpen returns the sidebar visibility hint.
func (a *Aggregator) SidebarOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sidebarOpen
}

// View returns the whole cart state read under a single lock.
func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

// view must be called with a.mu held.
func (a *Aggregator) view() View {
	return View{
		Items:       copyItems(a.items),
		Total:       sumTotal(a.items),
		ItemCount:   sumQuantity(a.items),
		TableID:     a.tableID,
		SidebarOpen: a.sidebarOpen,
		LastTouched: a.lastTouched,
		LedgerSize:  len(a.ledger),
	}
}

func (a *Aggregator) indexOf(id string) int {
	for i, it := range a.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// emit must be called with a.mu held.
func (a *Aggregator) emit(c Change) {
	if len(a.hooks) == 0 {
		return
	}
	c.Items = copyItems(a.items)
	c.TableID = a.tableID
	for _, h := range a.hooks {
		h(c)
	}
}

func cloneOrder(o Order) Order {
	o.Items = copyItems(o.Items)
	return o
}
