package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
)

// Repository wires together seller order persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateSellerOrderTx inserts an order row inside the transaction.
func (r *Repository) CreateSellerOrderTx(ctx context.Context, tx *gorm.DB, order *models.SellerOrder) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.WithContext(ctx).Create(order).Error
}

// CreateOrderLineItemsTx inserts the order's line snapshots inside the transaction.
func (r *Repository) CreateOrderLineItemsTx(ctx context.Context, tx *gorm.DB, lines []models.OrderLineItem) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&lines).Error
}

// FindByID loads the order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerOrder, error) {
	var order models.SellerOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayOrderID loads the order the gateway order maps to.
func (r *Repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.SellerOrder, error) {
	var order models.SellerOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.SellerOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.SellerOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListBySeller returns the seller's orders, newest first. Status narrows the
// list when provided.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.SellerOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.SellerOrder
	err := query.Find(&rows).Error
	return rows, err
}

// MarkPaidTx flips created -> paid, recording the gateway payment, in one
// conditional statement. A zero row count means another confirmation won.
func (r *Repository) MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	result := tx.WithContext(ctx).Model(&models.SellerOrder{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusCreated).
		Updates(map[string]any{
			"status":             enums.OrderStatusPaid,
			"gateway_payment_id": paymentID,
			"paid_at":            paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateStatusTx applies a fulfilment transition guarded on the current
// status. Set-once timestamps are written only alongside their transition.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time, tracking *string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	updates := map[string]any{"status": to}
	switch to {
	case enums.OrderStatusShipped:
		updates["shipped_at"] = at
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = at
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = at
	}
	if tracking != nil {
		updates["tracking_number"] = *tracking
	}
	result := tx.WithContext(ctx).Model(&models.SellerOrder{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IsNotFound reports whether err is the GORM missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
