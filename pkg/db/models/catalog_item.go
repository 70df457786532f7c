package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/enums"
)

// CatalogItem represents a seller's canonical listing.
type CatalogItem struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	SKU         string              `gorm:"column:sku;not null"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	Category    *string             `gorm:"column:category"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	Materials   pq.StringArray      `gorm:"column:materials;type:text[];not null;default:ARRAY[]::text[]"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Currency    enums.Currency      `gorm:"column:currency;type:text;not null;default:'INR'"`
	Quantity    int                 `gorm:"column:quantity;not null;default:0"`
	Status      enums.CatalogStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	ImageURL    *string             `gorm:"column:image_url"`
	Region      *string             `gorm:"column:region"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
