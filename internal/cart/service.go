package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

const maxLineQuantity = 50

// Service exposes buyer cart operations.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (*CartDTO, error)
	SetItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, buyerID uuid.UUID) error
}

type itemReader interface {
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogItem, error)
}

type cartStore interface {
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	EnsureActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	UpsertLine(ctx context.Context, cartID, itemID, sellerID uuid.UUID, qty int) error
	SetLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (bool, error)
	DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

type service struct {
	repo  cartStore
	items itemReader
	logg  *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(repo cartStore, items itemReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, items: items, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.EnsureActive(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}
	return s.hydrate(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 || qty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}

	item, err := s.items.FindPublishedByID(ctx, itemID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is not available for purchase")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading item")
	}
	if item.Quantity < qty {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for the requested quantity").
			WithDetails(map[string]any{"item_id": itemID, "available": item.Quantity})
	}

	cart, err := s.repo.EnsureActive(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}
	if err := s.repo.UpsertLine(ctx, cart.ID, itemID, item.SellerID, qty); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "adding cart line")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"cart_id": cart.ID.String(), "item_id": itemID.String()})
	s.logg.Info(logCtx, "item added to cart")
	return s.reload(ctx, buyerID)
}

func (s *service) SetItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 || qty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}

	item, err := s.items.FindPublishedByID(ctx, itemID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is not available for purchase")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading item")
	}
	if item.Quantity < qty {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for the requested quantity").
			WithDetails(map[string]any{"item_id": itemID, "available": item.Quantity})
	}

	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}

	found, err := s.repo.SetLineQuantity(ctx, cart.ID, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating cart line")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}

	found, err := s.repo.DeleteLine(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "removing cart line")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) ClearCart(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}
	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "clearing cart")
	}
	return nil
}

func (s *service) reload(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "reloading cart")
	}
	return s.hydrate(ctx, cart)
}

func (s *service) hydrate(ctx context.Context, cart *models.CartRecord) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ItemID)
	}
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart items")
	}
	byID := make(map[uuid.UUID]models.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return buildCartDTO(cart, byID), nil
}
