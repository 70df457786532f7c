package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
)

// LineDTO is a cart line joined with its current catalog snapshot.
type LineDTO struct {
	ItemID    uuid.UUID `json:"item_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Title     string    `json:"title"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
	Available int       `json:"available"`
}

// CartDTO is the buyer-facing cart payload.
type CartDTO struct {
	ID        uuid.UUID `json:"id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Status    string    `json:"status"`
	Lines     []LineDTO `json:"lines"`
	Subtotal  string    `json:"subtotal"`
	UpdatedAt time.Time `json:"updated_at"`
}

func buildCartDTO(cart *models.CartRecord, items map[uuid.UUID]models.CatalogItem) *CartDTO {
	dto := &CartDTO{
		ID:        cart.ID,
		BuyerID:   cart.BuyerID,
		Status:    cart.Status.String(),
		Lines:     make([]LineDTO, 0, len(cart.Lines)),
		UpdatedAt: cart.UpdatedAt,
	}

	subtotal := decimal.Zero
	for _, line := range cart.Lines {
		item, ok := items[line.ItemID]
		if !ok {
			continue
		}
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		dto.Lines = append(dto.Lines, LineDTO{
			ItemID:    line.ItemID,
			SellerID:  line.SellerID,
			Title:     item.Title,
			UnitPrice: item.Price.StringFixed(2),
			Quantity:  line.Quantity,
			LineTotal: lineTotal.StringFixed(2),
			Available: item.Quantity,
		})
	}
	dto.Subtotal = subtotal.StringFixed(2)
	return dto
}
