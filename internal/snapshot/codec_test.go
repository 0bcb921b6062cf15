package snapshot

import (
	"strings"
	"testing"

	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/shopspring/decimal"
)

func TestEncode_PricesAreDecimalStrings(t *testing.T) {
	b, err := Encode([]cart.LineItem{
		{ID: "A", Name: "Kopi", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 2},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), `"unit_price":"9.99"`) {
		t.Errorf("unit price should be a decimal string: %s", b)
	}
}

func TestEncode_EmptyCartIsEmptyArray(t *testing.T) {
	b, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("got %s, want []", b)
	}
}

func TestDecode_KeepsOrder(t *testing.T) {
	items, err := Decode([]byte(`[
		{"id":"C","title":"Kerupuk","unit_price":"2000","quantity":1},
		{"id":"A","name":"Kopi","unit_price":"9.99","quantity":3}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].ID != "C" || items[1].ID != "A" {
		t.Fatalf("order not kept: %+v", items)
	}
	if items[0].Label() != "Kerupuk" || items[1].Quantity != 3 {
		t.Errorf("fields not decoded: %+v", items)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte(`{"id":"A"}`)); err == nil {
		t.Error("expected error for non-array payload")
	}
}
