package cart

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

type stubItemReader struct {
	published map[uuid.UUID]*models.CatalogItem
}

func (s *stubItemReader) FindPublishedByID(_ context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	item, ok := s.published[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubItemReader) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	for _, id := range ids {
		if item, ok := s.published[id]; ok {
			items = append(items, *item)
		}
	}
	return items, nil
}

type stubCartStore struct {
	cart  *models.CartRecord
	lines map[uuid.UUID]int
}

func newStubCartStore(buyerID uuid.UUID) *stubCartStore {
	return &stubCartStore{
		cart:  &models.CartRecord{ID: uuid.New(), BuyerID: buyerID, Status: enums.CartStatusActive},
		lines: map[uuid.UUID]int{},
	}
}

func (s *stubCartStore) snapshot() *models.CartRecord {
	cart := *s.cart
	cart.Lines = nil
	for itemID, qty := range s.lines {
		cart.Lines = append(cart.Lines, models.CartLine{CartID: cart.ID, ItemID: itemID, Quantity: qty})
	}
	return &cart
}

func (s *stubCartStore) FindActiveByBuyer(_ context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if s.cart.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.snapshot(), nil
}

func (s *stubCartStore) EnsureActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	return s.FindActiveByBuyer(ctx, buyerID)
}

func (s *stubCartStore) UpsertLine(_ context.Context, _, itemID, _ uuid.UUID, qty int) error {
	s.lines[itemID] += qty
	return nil
}

func (s *stubCartStore) SetLineQuantity(_ context.Context, _, itemID uuid.UUID, qty int) (bool, error) {
	if _, ok := s.lines[itemID]; !ok {
		return false, nil
	}
	s.lines[itemID] = qty
	return true, nil
}

func (s *stubCartStore) DeleteLine(_ context.Context, _, itemID uuid.UUID) (bool, error) {
	if _, ok := s.lines[itemID]; !ok {
		return false, nil
	}
	delete(s.lines, itemID)
	return true, nil
}

func (s *stubCartStore) ClearLines(_ context.Context, _ uuid.UUID) error {
	s.lines = map[uuid.UUID]int{}
	return nil
}

func newTestService(t *testing.T, store *stubCartStore, items *stubItemReader) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(store, items, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func publishedItem(sellerID uuid.UUID, title string, price int64, qty int) *models.CatalogItem {
	return &models.CatalogItem{
		ID:       uuid.New(),
		SellerID: sellerID,
		Title:    title,
		Price:    decimal.NewFromInt(price),
		Currency: enums.CurrencyINR,
		Quantity: qty,
		Status:   enums.CatalogStatusPublished,
	}
}

func TestAddItemAccumulatesAndTotals(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	item := publishedItem(sellerID, "Cane Basket", 350, 10)

	store := newStubCartStore(buyerID)
	items := &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{item.ID: item}}
	svc := newTestService(t, store, items)

	if _, err := svc.AddItem(context.Background(), buyerID, item.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	dto, err := svc.AddItem(context.Background(), buyerID, item.ID, 1)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}

	if len(dto.Lines) != 1 || dto.Lines[0].Quantity != 3 {
		t.Fatalf("expected one line with qty 3, got %+v", dto.Lines)
	}
	if dto.Subtotal != "1050.00" {
		t.Fatalf("expected subtotal 1050.00, got %s", dto.Subtotal)
	}
}

func TestAddItemRejectsUnpublished(t *testing.T) {
	buyerID := uuid.New()
	store := newStubCartStore(buyerID)
	svc := newTestService(t, store, &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{}})

	_, err := svc.AddItem(context.Background(), buyerID, uuid.New(), 1)
	var domainErr *pkgerrors.Error
	if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeItemUnavailable {
		t.Fatalf("expected ITEM_UNAVAILABLE, got %v", err)
	}
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	buyerID := uuid.New()
	item := publishedItem(uuid.New(), "Silk Stole", 1200, 1)
	store := newStubCartStore(buyerID)
	svc := newTestService(t, store, &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{item.ID: item}})

	_, err := svc.AddItem(context.Background(), buyerID, item.ID, 2)
	var domainErr *pkgerrors.Error
	if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
}

func TestSetItemQuantityMissingLine(t *testing.T) {
	buyerID := uuid.New()
	item := publishedItem(uuid.New(), "Jute Rug", 900, 5)
	store := newStubCartStore(buyerID)
	svc := newTestService(t, store, &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{item.ID: item}})

	_, err := svc.SetItemQuantity(context.Background(), buyerID, item.ID, 2)
	var domainErr *pkgerrors.Error
	if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	buyerID := uuid.New()
	item := publishedItem(uuid.New(), "Copper Bottle", 700, 5)
	store := newStubCartStore(buyerID)
	svc := newTestService(t, store, &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{item.ID: item}})

	if _, err := svc.AddItem(context.Background(), buyerID, item.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	dto, err := svc.RemoveItem(context.Background(), buyerID, item.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", dto.Lines)
	}

	if err := svc.ClearCart(context.Background(), buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestQuantityBounds(t *testing.T) {
	buyerID := uuid.New()
	store := newStubCartStore(buyerID)
	svc := newTestService(t, store, &stubItemReader{published: map[uuid.UUID]*models.CatalogItem{}})

	for _, qty := range []int{0, -1, maxLineQuantity + 1} {
		_, err := svc.AddItem(context.Background(), buyerID, uuid.New(), qty)
		var domainErr *pkgerrors.Error
		if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("qty %d: expected VALIDATION_ERROR, got %v", qty, err)
		}
	}
}
