package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
)

func TestGroupLinesBySeller(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	lines := []models.CartLine{
		{ItemID: uuid.New(), SellerID: sellerA, Quantity: 1},
		{ItemID: uuid.New(), SellerID: sellerB, Quantity: 2},
		{ItemID: uuid.New(), SellerID: sellerA, Quantity: 3},
	}

	groups := GroupLinesBySeller(lines)
	if len(groups) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(groups))
	}
	if len(groups[sellerA]) != 2 || len(groups[sellerB]) != 1 {
		t.Fatalf("unexpected bucket sizes: %d and %d", len(groups[sellerA]), len(groups[sellerB]))
	}
}

func TestSortedSellerIDsIsStable(t *testing.T) {
	groups := map[uuid.UUID][]models.CartLine{}
	for i := 0; i < 5; i++ {
		groups[uuid.New()] = nil
	}

	first := SortedSellerIDs(groups)
	second := SortedSellerIDs(groups)
	if len(first) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ordering is not stable at index %d", i)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].String() >= first[i].String() {
			t.Fatalf("ids are not sorted at index %d", i)
		}
	}
}

func TestSellerSubtotal(t *testing.T) {
	itemA := models.CatalogItem{ID: uuid.New(), Price: decimal.RequireFromString("350.50")}
	itemB := models.CatalogItem{ID: uuid.New(), Price: decimal.RequireFromString("120.00")}
	byID := map[uuid.UUID]models.CatalogItem{itemA.ID: itemA, itemB.ID: itemB}

	lines := []models.CartLine{
		{ItemID: itemA.ID, Quantity: 2},
		{ItemID: itemB.ID, Quantity: 1},
		{ItemID: uuid.New(), Quantity: 4},
	}

	total := SellerSubtotal(lines, byID)
	if total.StringFixed(2) != "821.00" {
		t.Fatalf("expected 821.00, got %s", total.StringFixed(2))
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"821.00", 82100},
		{"0.01", 1},
		{"1050.00", 105000},
		{"99.99", 9999},
	}
	for _, tt := range tests {
		got := ToMinorUnits(decimal.RequireFromString(tt.amount))
		if got != tt.want {
			t.Fatalf("amount %s: expected %d, got %d", tt.amount, tt.want, got)
		}
	}
}
