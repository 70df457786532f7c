package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
)

// Repository wires together cart persistence helpers.
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

// FindActiveByBuyer loads the buyer's active cart with its lines.
func (r *Repository) FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("buyer_id = ? AND status = ?", buyerID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureActive loads the buyer's active cart, creating one when absent.
func (r *Repository) EnsureActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := r.FindActiveByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.CartRecord{BuyerID: buyerID, Status: enums.CartStatusActive}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	fresh.Lines = nil
	return fresh, nil
}

// UpsertLine inserts the line or bumps the quantity of an existing one.
func (r *Repository) UpsertLine(ctx context.Context, cartID, itemID, sellerID uuid.UUID, qty int) error {
	tx := r.db.WithContext(ctx)

	var existing models.CartLine
	err := tx.Where("cart_id = ? AND item_id = ?", cartID, itemID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		line := models.CartLine{CartID: cartID, ItemID: itemID, SellerID: sellerID, Quantity: qty}
		return tx.Create(&line).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&models.CartLine{}).
		Where("id = ?", existing.ID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

// SetLineQuantity overwrites the quantity of an existing line.
func (r *Repository) SetLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CartLine{}).
		Where("cart_id = ? AND item_id = ?", cartID, itemID).
		Update("quantity", qty)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteLine removes a single line from the cart.
func (r *Repository) DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND item_id = ?", cartID, itemID).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClearLines removes every line from the cart.
func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{}).Error
}

// MarkCheckedOut flips the cart out of the active state after a successful
// checkout so the buyer's next add starts a fresh cart.
func (r *Repository) MarkCheckedOut(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusCheckedOut).Error
}

// MarkCheckedOutTx runs MarkCheckedOut inside the provided transaction.
func (r *Repository) MarkCheckedOutTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if tx == nil {
		return r.MarkCheckedOut(ctx, cartID)
	}
	return r.WithTx(tx).MarkCheckedOut(ctx, cartID)
}

// IsNotFound reports whether err is the GORM missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
