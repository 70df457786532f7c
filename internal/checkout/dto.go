package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/pkg/types"
)

// SubmitInput carries the checkout request for the buyer's active cart.
type SubmitInput struct {
	ShippingAddress *types.Address
	Notes           *string
}

// ConfirmInput carries the gateway callback the buyer relays after paying.
// OrderID is optional; when present the stored gateway reference must match
// GatewayOrderID.
type ConfirmInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          *uuid.UUID
}

// OrderSummaryDTO describes one seller order produced by a checkout split.
type OrderSummaryDTO struct {
	OrderID        uuid.UUID `json:"order_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Receipt        string    `json:"receipt"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	TotalAmount    string    `json:"total_amount"`
	AmountPaise    int64     `json:"amount_paise"`
	GatewayOrderID string    `json:"gateway_order_id"`
	LineCount      int       `json:"line_count"`
}

// CheckoutDTO is the response to a checkout submission.
type CheckoutDTO struct {
	CartID uuid.UUID         `json:"cart_id"`
	Orders []OrderSummaryDTO `json:"orders"`
}

// ConfirmResultDTO reports the outcome of a payment confirmation. Replayed
// marks confirmations that had already been applied.
type ConfirmResultDTO struct {
	OrderID          uuid.UUID  `json:"order_id"`
	Status           string     `json:"status"`
	GatewayOrderID   string     `json:"gateway_order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	Replayed         bool       `json:"replayed"`
}
