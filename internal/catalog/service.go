package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	"github.com/craftloom/craftloom-backend/pkg/outbox"
	"github.com/craftloom/craftloom-backend/pkg/outbox/payloads"
)

// Service exposes seller catalog management operations.
type Service interface {
	CreateItem(ctx context.Context, sellerID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, sellerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	PublishItem(ctx context.Context, sellerID, itemID uuid.UUID) (*ItemDTO, error)
	RemoveItem(ctx context.Context, sellerID, itemID uuid.UUID) error
	RestockItem(ctx context.Context, sellerID, itemID uuid.UUID, qty int) (*ItemDTO, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error)
	ListSellerItems(ctx context.Context, sellerID uuid.UUID, status *enums.CatalogStatus) ([]ItemDTO, error)
	BrowsePublished(ctx context.Context, limit, offset int) ([]ItemDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo         *Repository
	txRunner     txRunner
	outbox       outboxEmitter
	logg         *logger.Logger
	baseCurrency enums.Currency
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, runner txRunner, emitter outboxEmitter, logg *logger.Logger, baseCurrency enums.Currency) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !baseCurrency.IsValid() {
		return nil, fmt.Errorf("invalid base currency %q", baseCurrency)
	}
	return &service{
		repo:         repo,
		txRunner:     runner,
		outbox:       emitter,
		logg:         logg,
		baseCurrency: baseCurrency,
	}, nil
}

func (s *service) CreateItem(ctx context.Context, sellerID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	item := &models.CatalogItem{
		SellerID:    sellerID,
		SKU:         sku,
		Title:       title,
		Description: input.Description,
		Category:    input.Category,
		Tags:        pq.StringArray(input.Tags),
		Materials:   pq.StringArray(input.Materials),
		Price:       input.Price,
		Currency:    s.baseCurrency,
		Quantity:    input.Quantity,
		Status:      enums.CatalogStatusDraft,
		ImageURL:    input.ImageURL,
		Region:      input.Region,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "creating catalog item")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"item_id": created.ID.String(), "seller_id": sellerID.String()})
	s.logg.Info(logCtx, "catalog item created")
	return toItemDTO(created), nil
}

func (s *service) UpdateItem(ctx context.Context, sellerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.CatalogStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft listings can be edited")
	}

	applyUpdate(item, input)
	if strings.TrimSpace(item.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if item.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if item.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating catalog item")
	}
	return toItemDTO(updated), nil
}

func (s *service) PublishItem(ctx context.Context, sellerID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.CatalogStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft listings can be published")
	}
	if !item.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "published listings need a positive price")
	}
	if item.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "published listings need stock")
	}

	item.Status = enums.CatalogStatusPublished
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, item); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventCatalogReindexNeeded,
			AggregateType: enums.OutboxAggregateCatalog,
			AggregateID:   item.ID,
			Data:          payloads.CatalogReindexEvent{ItemID: item.ID, SellerID: item.SellerID},
			Version:       1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "publishing catalog item")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"item_id": item.ID.String()})
	s.logg.Info(logCtx, "catalog item published")
	return toItemDTO(item), nil
}

func (s *service) RemoveItem(ctx context.Context, sellerID, itemID uuid.UUID) error {
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return err
	}
	if item.Status == enums.CatalogStatusRemoved {
		return nil
	}

	item.Status = enums.CatalogStatusRemoved
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, item); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventCatalogReindexNeeded,
			AggregateType: enums.OutboxAggregateCatalog,
			AggregateID:   item.ID,
			Data:          payloads.CatalogReindexEvent{ItemID: item.ID, SellerID: item.SellerID},
			Version:       1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "removing catalog item")
	}
	return nil
}

func (s *service) RestockItem(ctx context.Context, sellerID, itemID uuid.UUID, qty int) (*ItemDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if _, err := s.loadOwned(ctx, sellerID, itemID); err != nil {
		return nil, err
	}

	ok, err := s.repo.Restock(ctx, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "restocking catalog item")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
	}

	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "reloading catalog item")
	}
	return toItemDTO(item), nil
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading catalog item")
	}
	return toItemDTO(item), nil
}

func (s *service) ListSellerItems(ctx context.Context, sellerID uuid.UUID, status *enums.CatalogStatus) ([]ItemDTO, error) {
	items, err := s.repo.ListBySeller(ctx, sellerID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing catalog items")
	}
	return toItemDTOs(items), nil
}

func (s *service) BrowsePublished(ctx context.Context, limit, offset int) ([]ItemDTO, error) {
	items, err := s.repo.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "browsing catalog")
	}
	return toItemDTOs(items), nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, itemID uuid.UUID) (*models.CatalogItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading catalog item")
	}
	if item.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
	}
	return item, nil
}

func applyUpdate(item *models.CatalogItem, input UpdateItemInput) {
	if input.SKU != nil {
		item.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Category != nil {
		item.Category = input.Category
	}
	if input.Tags != nil {
		item.Tags = pq.StringArray(*input.Tags)
	}
	if input.Materials != nil {
		item.Materials = pq.StringArray(*input.Materials)
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}
	if input.Region != nil {
		item.Region = input.Region
	}
}
