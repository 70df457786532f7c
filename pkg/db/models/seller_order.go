package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftloom/craftloom-backend/pkg/enums"
	"github.com/craftloom/craftloom-backend/pkg/types"
)

// SellerOrder is the per-seller order split out of a checkout. Each order
// carries its own payment gateway order and receipt.
type SellerOrder struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID         uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	CartID           *uuid.UUID        `gorm:"column:cart_id;type:uuid"`
	Receipt          string            `gorm:"column:receipt;size:40;not null"`
	Currency         enums.Currency    `gorm:"column:currency;type:text;not null;default:'INR'"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'created'"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AmountPaise      int64             `gorm:"column:amount_paise;not null"`
	GatewayOrderID   string            `gorm:"column:gateway_order_id;not null;uniqueIndex:ux_seller_orders_gateway_order"`
	GatewayPaymentID *string           `gorm:"column:gateway_payment_id;uniqueIndex:ux_seller_orders_gateway_payment"`
	ShippingAddress  *types.Address    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Notes            *string           `gorm:"column:notes"`
	TrackingNumber   *string           `gorm:"column:tracking_number"`
	PaidAt           *time.Time        `gorm:"column:paid_at"`
	ShippedAt        *time.Time        `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at"`
	Lines            []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
