package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCartRecalculate(t *testing.T) {
	t.Parallel()

	cart := Cart{
		Items: []CartItem{
			{ProductID: "p1", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2},
			{ProductID: "p2", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 3},
		},
		ShippingCost: decimal.RequireFromString("5.99"),
		Currency:     "USD",
	}

	got := cart.Recalculate()
	if want := decimal.RequireFromString("54.98"); !got.Subtotal.Equal(want) {
		t.Fatalf("subtotal = %s, want %s", got.Subtotal, want)
	}
	if want := decimal.RequireFromString("60.97"); !got.Total.Equal(want) {
		t.Fatalf("total = %s, want %s", got.Total, want)
	}
}

func TestCartCloneDoesNotAliasItems(t *testing.T) {
	t.Parallel()

	cart := Cart{Items: []CartItem{{ProductID: "p1", Quantity: 1}}}
	clone := cart.Clone()
	clone.Items[0].Quantity = 9

	if cart.Items[0].Quantity != 1 {
		t.Fatal("clone mutated the original cart")
	}
}

func TestFindItem(t *testing.T) {
	t.Parallel()

	cart := Cart{Items: []CartItem{{ProductID: "a"}, {ProductID: "b"}}}
	if idx := cart.FindItem("b"); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := cart.FindItem("missing"); idx != -1 {
		t.Fatalf("expected -1 for missing product, got %d", idx)
	}
}
