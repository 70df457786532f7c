package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout split across sellers.
type OrderCreatedEvent struct {
	CartID         *uuid.UUID  `json:"cart_id,omitempty"`
	BuyerID        uuid.UUID   `json:"buyer_id"`
	SellerOrderIDs []uuid.UUID `json:"seller_order_ids"`
}

// PaymentConfirmedEvent is emitted once a gateway payment verifies.
type PaymentConfirmedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	SellerID         uuid.UUID `json:"seller_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AmountPaise      int64     `json:"amount_paise"`
	PaidAt           time.Time `json:"paid_at"`
}

// OrderStatusChangedEvent reports a fulfilment transition on a seller order.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	BuyerID  uuid.UUID         `json:"buyer_id"`
	SellerID uuid.UUID         `json:"seller_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
}

// StockReconciliationEvent flags an item whose stock decrement raced to zero
// mid-confirmation and needs operator review.
type StockReconciliationEvent struct {
	ItemID    uuid.UUID `json:"item_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Requested int       `json:"requested"`
}

// CatalogReindexEvent asks downstream search to refresh a listing.
type CatalogReindexEvent struct {
	ItemID   uuid.UUID `json:"item_id"`
	SellerID uuid.UUID `json:"seller_id"`
}
