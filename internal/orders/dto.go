package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/types"
)

// LineDTO is a purchased line snapshot.
type LineDTO struct {
	ItemID    uuid.UUID `json:"item_id"`
	Title     string    `json:"title"`
	SKU       string    `json:"sku"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

// OrderDTO is the order payload returned to buyers and sellers.
type OrderDTO struct {
	ID               uuid.UUID      `json:"id"`
	BuyerID          uuid.UUID      `json:"buyer_id"`
	SellerID         uuid.UUID      `json:"seller_id"`
	Receipt          string         `json:"receipt"`
	Currency         string         `json:"currency"`
	Status           string         `json:"status"`
	TotalAmount      string         `json:"total_amount"`
	AmountPaise      int64          `json:"amount_paise"`
	GatewayOrderID   string         `json:"gateway_order_id"`
	GatewayPaymentID *string        `json:"gateway_payment_id,omitempty"`
	ShippingAddress  *types.Address `json:"shipping_address,omitempty"`
	TrackingNumber   *string        `json:"tracking_number,omitempty"`
	Lines            []LineDTO      `json:"lines"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	ShippedAt        *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ToOrderDTO converts the order row into its API shape.
func ToOrderDTO(order *models.SellerOrder) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:               order.ID,
		BuyerID:          order.BuyerID,
		SellerID:         order.SellerID,
		Receipt:          order.Receipt,
		Currency:         order.Currency.String(),
		Status:           order.Status.String(),
		TotalAmount:      order.TotalAmount.StringFixed(2),
		AmountPaise:      order.AmountPaise,
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		ShippingAddress:  order.ShippingAddress,
		TrackingNumber:   order.TrackingNumber,
		PaidAt:           order.PaidAt,
		ShippedAt:        order.ShippedAt,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
		CreatedAt:        order.CreatedAt,
	}
	for _, line := range order.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ItemID:    line.ItemID,
			Title:     line.Title,
			SKU:       line.SKU,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}
	return dto
}

// ToOrderDTOs converts a batch of rows.
func ToOrderDTOs(rows []models.SellerOrder) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *ToOrderDTO(&rows[i]))
	}
	return dtos
}
