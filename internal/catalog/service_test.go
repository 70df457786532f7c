package catalog

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
	"github.com/craftloom/craftloom-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newValidationOnlyService(t *testing.T) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(NewRepository(nil), stubTxRunner{}, &stubEmitter{}, logg, enums.CurrencyINR)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceValidatesDeps(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	if _, err := NewService(nil, stubTxRunner{}, &stubEmitter{}, logg, enums.CurrencyINR); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(NewRepository(nil), stubTxRunner{}, &stubEmitter{}, logg, enums.Currency("XXX")); err == nil {
		t.Fatal("expected error for invalid currency")
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc := newValidationOnlyService(t)
	sellerID := uuid.New()

	cases := []struct {
		name  string
		input CreateItemInput
	}{
		{"missing title", CreateItemInput{SKU: "SKU-1", Price: decimal.NewFromInt(100)}},
		{"missing sku", CreateItemInput{Title: "Clay Bowl", Price: decimal.NewFromInt(100)}},
		{"negative price", CreateItemInput{SKU: "SKU-1", Title: "Clay Bowl", Price: decimal.NewFromInt(-5)}},
		{"negative quantity", CreateItemInput{SKU: "SKU-1", Title: "Clay Bowl", Price: decimal.NewFromInt(5), Quantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), sellerID, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var domainErr *pkgerrors.Error
			if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestRestockItemRejectsNonPositiveQuantity(t *testing.T) {
	svc := newValidationOnlyService(t)
	_, err := svc.RestockItem(context.Background(), uuid.New(), uuid.New(), 0)
	var domainErr *pkgerrors.Error
	if !pkgerrors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestApplyUpdate(t *testing.T) {
	title := "  Painted Tray  "
	qty := 12
	price := decimal.NewFromInt(799)
	tags := []string{"wood", "painted"}

	item := &models.CatalogItem{Title: "Old", Quantity: 1, Price: decimal.NewFromInt(100)}
	applyUpdate(item, UpdateItemInput{
		Title:    &title,
		Quantity: &qty,
		Price:    &price,
		Tags:     &tags,
	})

	if item.Title != "Painted Tray" {
		t.Fatalf("title not trimmed: %q", item.Title)
	}
	if item.Quantity != 12 || !item.Price.Equal(price) {
		t.Fatalf("quantity/price not applied: %d %s", item.Quantity, item.Price)
	}
	if len(item.Tags) != 2 {
		t.Fatalf("tags not applied: %v", item.Tags)
	}
}
