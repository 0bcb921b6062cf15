package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/shopspring/decimal"
)

// record is the stored form of one line item. Prices are decimal strings
// so a restore reproduces the exact amounts.
type record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Title     string          `json:"title,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Encode serializes items as an ordered JSON array.
func Encode(items []cart.LineItem) ([]byte, error) {
	recs := make([]record, len(items))
	for i, it := range items {
		recs[i] = record{
			ID:        it.ID,
			Name:      it.Name,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode reverses Encode, keeping the stored order.
func Decode(b []byte) ([]cart.LineItem, error) {
	var recs []record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	items := make([]cart.LineItem, len(recs))
	for i, r := range recs {
		items[i] = cart.LineItem{
			ID:        r.ID,
			Name:      r.Name,
			Title:     r.Title,
			UnitPrice: r.UnitPrice,
			Quantity:  r.Quantity,
		}
	}
	return items, nil
}
