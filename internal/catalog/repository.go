package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
)

// Repository wires together catalog item persistence helpers.
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

// FindByID loads the item regardless of status.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindPublishedByID loads the item only when it is purchasable.
func (r *Repository) FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.CatalogStatusPublished).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads items by id preserving no particular order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

// Create inserts a new catalog item row.
func (r *Repository) Create(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Update saves an existing catalog item row.
func (r *Repository) Update(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ListBySeller returns the seller's items, newest first. Status filters the
// list when provided.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.CatalogStatus) ([]models.CatalogItem, error) {
	query := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var items []models.CatalogItem
	err := query.Find(&items).Error
	return items, err
}

// ListPublished returns published items for buyer-facing browse.
func (r *Repository) ListPublished(ctx context.Context, limit, offset int) ([]models.CatalogItem, error) {
	if limit <= 0 {
		limit = 20
	}
	var items []models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.CatalogStatusPublished).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

// DecrementStock atomically deducts quantity when enough stock remains. The
// status flips to out_of_stock in the same statement when the row hits zero,
// so two concurrent confirmations can never both win the last unit.
func (r *Repository) DecrementStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, errors.New("decrement quantity must be positive")
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE catalog_items
		SET quantity = quantity - ?,
		    status = CASE WHEN quantity - ? <= 0 THEN ? ELSE status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ?`,
		qty, qty, enums.CatalogStatusOutOfStock, itemID, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementStockTx runs DecrementStock inside the provided transaction.
func (r *Repository) DecrementStockTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return r.DecrementStock(ctx, itemID, qty)
	}
	return r.WithTx(tx).DecrementStock(ctx, itemID, qty)
}

// Restock adds quantity back and revives out_of_stock and removed listings
// to published in the same statement.
func (r *Repository) Restock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, errors.New("restock quantity must be positive")
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE catalog_items
		SET quantity = quantity + ?,
		    status = CASE WHEN status IN (?, ?) THEN ? ELSE status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		qty, enums.CatalogStatusOutOfStock, enums.CatalogStatusRemoved, enums.CatalogStatusPublished, itemID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestockTx runs Restock inside the provided transaction.
func (r *Repository) RestockTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return r.Restock(ctx, itemID, qty)
	}
	return r.WithTx(tx).Restock(ctx, itemID, qty)
}

// FindPublishedByTitle matches the exact title among published items. Ties
// break deterministically on title, then id.
func (r *Repository) FindPublishedByTitle(ctx context.Context, title string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("title = ? AND status = ?", title, enums.CatalogStatusPublished).
		Order("title ASC").
		Order("id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindPublishedByTitleFold matches the title ignoring case.
func (r *Repository) FindPublishedByTitleFold(ctx context.Context, title string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("LOWER(title) = LOWER(?) AND status = ?", title, enums.CatalogStatusPublished).
		Order("title ASC").
		Order("id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindPublishedByTitleFuzzy matches published titles on any word of the
// term longer than three characters, case-insensitively. Short words carry
// no signal and are skipped. The alphabetically first title wins so
// repeated lookups stay stable.
func (r *Repository) FindPublishedByTitleFuzzy(ctx context.Context, term string) (*models.CatalogItem, error) {
	var conds []string
	var args []any
	for _, word := range strings.Fields(term) {
		if len([]rune(word)) <= 3 {
			continue
		}
		conds = append(conds, "LOWER(title) LIKE LOWER(?) ESCAPE '\\'")
		args = append(args, "%"+escapeLike(word)+"%")
	}
	if len(conds) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	args = append(args, enums.CatalogStatusPublished)

	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("("+strings.Join(conds, " OR ")+") AND status = ?", args...).
		Order("title ASC").
		Order("id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// IsNotFound reports whether err is the GORM missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
