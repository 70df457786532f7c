package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
)

// ItemDTO represents the catalog item payload returned to clients.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	SKU         string    `json:"sku"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        []string  `json:"tags"`
	Materials   []string  `json:"materials"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Region      *string   `json:"region,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateItemInput holds the validated payload to create a listing.
type CreateItemInput struct {
	SKU         string
	Title       string
	Description *string
	Category    *string
	Tags        []string
	Materials   []string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    *string
	Region      *string
}

// UpdateItemInput holds optional mutation values for a draft listing.
type UpdateItemInput struct {
	SKU         *string
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Materials   *[]string
	Price       *decimal.Decimal
	Quantity    *int
	ImageURL    *string
	Region      *string
}

func toItemDTO(item *models.CatalogItem) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		ID:          item.ID,
		SellerID:    item.SellerID,
		SKU:         item.SKU,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Tags:        item.Tags,
		Materials:   item.Materials,
		Price:       item.Price.StringFixed(2),
		Currency:    item.Currency.String(),
		Quantity:    item.Quantity,
		Status:      item.Status.String(),
		ImageURL:    item.ImageURL,
		Region:      item.Region,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toItemDTOs(items []models.CatalogItem) []ItemDTO {
	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *toItemDTO(&items[i]))
	}
	return dtos
}
