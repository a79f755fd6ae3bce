package enums

import "testing"

func TestOrderStatusTransitionTable(t *testing.T) {
	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
		OrderStatusConfirmed: {OrderStatusShipped: true, OrderStatusCancelled: true},
		OrderStatusShipped:   {OrderStatusDelivered: true, OrderStatusCancelled: true},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}

	for _, from := range validOrderStatuses {
		for _, to := range validOrderStatuses {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if OrderStatus("bogus").IsTerminal() {
		t.Fatal("unknown status must not be terminal")
	}
}

func TestOrderStatusBuyerCancellable(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusConfirmed: true,
		OrderStatusShipped:   false,
		OrderStatusDelivered: false,
		OrderStatusCancelled: false,
	}
	for status, want := range cases {
		if got := status.BuyerCancellable(); got != want {
			t.Fatalf("%s: expected %v, got %v", status, want, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" Shipped ")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("returned"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLenientCatalogParsers(t *testing.T) {
	if ParseStockFilter("IN") != StockIn || ParseStockFilter("maybe") != StockAny {
		t.Fatal("stock filter parsing mismatch")
	}
	if ParsePriceSort("desc") != PriceSortDesc || ParsePriceSort("rating") != PriceSortNone {
		t.Fatal("price sort parsing mismatch")
	}
}
