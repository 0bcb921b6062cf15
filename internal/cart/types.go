package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one product selected for the current order.
type LineItem struct {
	ID        string
	Name      string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Label returns the display name, falling back to Title.
func (li LineItem) Label() string {
	if li.Name != "" {
		return li.Name
	}
	return li.Title
}

// Subtotal is unit price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItemInput is the candidate passed to AddItem.
type LineItemInput struct {
	ID        string
	Name      string
	Title     string
	UnitPrice decimal.Decimal
}

func (in LineItemInput) label() string {
	if in.Name != "" {
		return in.Name
	}
	return in.Title
}

// Order is a snapshot of the cart at the moment it was placed.
type Order struct {
	ID       uuid.UUID
	Items    []LineItem
	TableID  string
	PlacedAt time.Time
}

// Total is the sum of the order's line subtotals.
func (o Order) Total() decimal.Decimal {
	return sumTotal(o.Items)
}

// ItemCount is the sum of the order's quantities.
func (o Order) ItemCount() int {
	return sumQuantity(o.Items)
}

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpAddItem        Op = "add_item"
	OpRemoveItem     Op = "remove_item"
	OpUpdateQuantity Op = "update_quantity"
	OpClear          Op = "clear"
	OpPlaceOrder     Op = "place_order"
	OpClearLedger    Op = "clear_ledger"
	OpSelectTable    Op = "select_table"

	// OpRestore labels notifications sent after Restore. The aggregator
	// itself never emits it.
	OpRestore Op = "restore"
)

// Change is delivered to hooks after every mutating operation.
// Items is a copy of the cart contents after the mutation.
type Change struct {
	Op      Op
	Items   []LineItem
	Order   *Order
	Label   string
	TableID string
}

// TouchesItems reports whether the operation may have changed the item set.
func (c Change) TouchesItems() bool {
	return c.Op != OpClearLedger && c.Op != OpSelectTable
}

// Hook observes cart mutations. Hooks run while the aggregator lock is
// held: they must not block and must not call back into the aggregator.
type Hook func(Change)

// View is a consistent read of the whole cart state.
type View struct {
	Items       []LineItem
	Total       decimal.Decimal
	ItemCount   int
	TableID     string
	SidebarOpen bool
	LastTouched string
	LedgerSize  int
}

func sumTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func sumQuantity(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
