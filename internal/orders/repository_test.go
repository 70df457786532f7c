package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("CRAFTLOOM_DB_DSN")
	if dsn == "" {
		t.Skip("CRAFTLOOM_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func mustCreateTestOrder(t *testing.T, tx *gorm.DB, status enums.OrderStatus) *models.SellerOrder {
	t.Helper()
	order := &models.SellerOrder{
		ID:             uuid.New(),
		BuyerID:        uuid.New(),
		SellerID:       uuid.New(),
		Receipt:        "rcpt_" + uuid.NewString()[:8],
		Currency:       enums.CurrencyINR,
		Status:         status,
		TotalAmount:    decimal.NewFromInt(450),
		AmountPaise:    45000,
		GatewayOrderID: "order_gw_" + uuid.NewString()[:8],
	}
	if err := tx.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestMarkPaidTxIsConditional(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	order := mustCreateTestOrder(t, tx, enums.OrderStatusCreated)
	paidAt := time.Now().UTC()

	won, err := repo.MarkPaidTx(context.Background(), tx, order.ID, "pay_first", paidAt)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !won {
		t.Fatal("expected the first confirmation to win")
	}

	// A second confirmation finds the order already paid and must not win.
	won, err = repo.MarkPaidTx(context.Background(), tx, order.ID, "pay_second", paidAt)
	if err != nil {
		t.Fatalf("mark paid again: %v", err)
	}
	if won {
		t.Fatal("expected the replayed confirmation to lose")
	}

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", reloaded.Status)
	}
	if reloaded.GatewayPaymentID == nil || *reloaded.GatewayPaymentID != "pay_first" {
		t.Fatalf("payment id must stay from the winning confirmation, got %v", reloaded.GatewayPaymentID)
	}
	if reloaded.PaidAt == nil {
		t.Fatal("paid_at must be set")
	}
}

func TestUpdateStatusTxGuardsOnCurrentStatus(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	order := mustCreateTestOrder(t, tx, enums.OrderStatusPaid)
	now := time.Now().UTC()

	tracking := "IN987654321"
	moved, err := repo.UpdateStatusTx(context.Background(), tx, order.ID, enums.OrderStatusPaid, enums.OrderStatusShipped, now, &tracking)
	if err != nil || !moved {
		t.Fatalf("ship failed: moved=%v err=%v", moved, err)
	}

	// Guard expects paid; the row is shipped now, so this must not move.
	moved, err = repo.UpdateStatusTx(context.Background(), tx, order.ID, enums.OrderStatusPaid, enums.OrderStatusDelivered, now, nil)
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if moved {
		t.Fatal("expected stale guard to lose")
	}

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.OrderStatusShipped || reloaded.ShippedAt == nil {
		t.Fatalf("expected shipped with timestamp, got %s", reloaded.Status)
	}
	if reloaded.TrackingNumber == nil || *reloaded.TrackingNumber != tracking {
		t.Fatalf("expected tracking %q, got %v", tracking, reloaded.TrackingNumber)
	}
}

func TestListBySellerNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	sellerID := uuid.New()
	for i := 0; i < 3; i++ {
		order := mustCreateTestOrder(t, tx, enums.OrderStatusCreated)
		order.SellerID = sellerID
		if err := tx.Save(order).Error; err != nil {
			t.Fatalf("retag seller: %v", err)
		}
	}

	rows, err := repo.ListBySeller(context.Background(), sellerID, nil, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected limit 2, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].CreatedAt.Before(rows[i].CreatedAt) {
			t.Fatal("rows are not newest first")
		}
	}
}
