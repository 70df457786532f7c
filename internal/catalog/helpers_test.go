package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
)

func mustCreateTestItem(t *testing.T, tx *gorm.DB, sellerID uuid.UUID, title string, qty int, status enums.CatalogStatus) *models.CatalogItem {
	t.Helper()
	item := &models.CatalogItem{
		ID:        uuid.New(),
		SellerID:  sellerID,
		SKU:       fmt.Sprintf("SKU-%s", uuid.NewString()),
		Title:     title,
		Tags:      pq.StringArray{"handmade"},
		Materials: pq.StringArray{"cotton"},
		Price:     decimal.NewFromInt(450),
		Currency:  enums.CurrencyINR,
		Quantity:  qty,
		Status:    status,
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("create catalog item: %v", err)
	}
	return item
}
