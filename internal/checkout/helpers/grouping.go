package helpers

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
)

// GroupLinesBySeller splits cart lines into per-seller buckets. Each bucket
// becomes its own order with its own gateway payment.
func GroupLinesBySeller(lines []models.CartLine) map[uuid.UUID][]models.CartLine {
	groups := make(map[uuid.UUID][]models.CartLine)
	for _, line := range lines {
		groups[line.SellerID] = append(groups[line.SellerID], line)
	}
	return groups
}

// SortedSellerIDs returns the bucket keys in a stable order so gateway
// orders are always created in the same sequence for a given cart.
func SortedSellerIDs(groups map[uuid.UUID][]models.CartLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// SellerSubtotal sums unit price times quantity across the bucket using the
// current catalog prices.
func SellerSubtotal(lines []models.CartLine, itemsByID map[uuid.UUID]models.CatalogItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		item, ok := itemsByID[line.ItemID]
		if !ok {
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ToMinorUnits converts a major-unit amount into integer minor units, the
// denomination the payment gateway expects.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
