package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	"github.com/craftloom/craftloom-backend/pkg/outbox"
	"github.com/craftloom/craftloom-backend/pkg/outbox/payloads"
)

const maxPageSize = 100

// Service exposes order tracking and fulfilment operations.
type Service interface {
	GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*OrderDTO, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]OrderDTO, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]OrderDTO, error)
	AdvanceStatus(ctx context.Context, sellerID, orderID uuid.UUID, to enums.OrderStatus, tracking *string) (*OrderDTO, error)
	CancelOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SellerOrder, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.SellerOrder, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.SellerOrder, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time, tracking *string) (bool, error)
}

type restocker interface {
	RestockTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    orderStore
	items   restocker
	tx      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo orderStore, items restocker, runner txRunner, emitter outboxEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("restocker required")
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
	return &service{repo: repo, items: items, tx: runner, outbox: emitter, logg: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != requesterID && order.SellerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return ToOrderDTO(order), nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]OrderDTO, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.repo.ListByBuyer(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing buyer orders")
	}
	return ToOrderDTOs(rows), nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]OrderDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	limit, offset = clampPage(limit, offset)
	rows, err := s.repo.ListBySeller(ctx, sellerID, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing seller orders")
	}
	return ToOrderDTOs(rows), nil
}

func (s *service) AdvanceStatus(ctx context.Context, sellerID, orderID uuid.UUID, to enums.OrderStatus, tracking *string) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
	}
	return s.transition(ctx, order, to, tracking)
}

// CancelOrder lets either party back out any time before delivery. Orders
// that reached paid get their stock returned since the decrement happened
// at confirmation.
func (s *service) CancelOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID && order.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return s.transition(ctx, order, enums.OrderStatusCancelled, nil)
}

func (s *service) transition(ctx context.Context, order *models.SellerOrder, to enums.OrderStatus, tracking *string) (*OrderDTO, error) {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed").
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}

	now := time.Now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.UpdateStatusTx(ctx, tx, order.ID, from, to, now, tracking)
		if err != nil {
			return err
		}
		if !moved {
			return errTransitionLost
		}
		if to == enums.OrderStatusCancelled && from != enums.OrderStatusCreated {
			if err := s.returnStock(ctx, tx, order); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderStatusChanged,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:  order.ID,
				BuyerID:  order.BuyerID,
				SellerID: order.SellerID,
				From:     from,
				To:       to,
			},
		})
	})
	if err != nil {
		if errors.Is(err, errTransitionLost) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
				WithDetails(map[string]any{"from": from.String(), "to": to.String()})
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating order status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     from.String(),
		"to":       to.String(),
	})
	s.logg.Info(logCtx, "order status changed")

	refreshed, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "reloading order")
	}
	return ToOrderDTO(refreshed), nil
}

// returnStock puts cancelled quantities back on the shelf. Lines whose item
// row has vanished are logged and skipped rather than failing the cancel.
func (s *service) returnStock(ctx context.Context, tx *gorm.DB, order *models.SellerOrder) error {
	for _, line := range order.Lines {
		ok, err := s.items.RestockTx(ctx, tx, line.ItemID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"item_id":  line.ItemID.String(),
			})
			s.logg.Warn(logCtx, "cancelled line could not be restocked")
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.SellerOrder, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading order")
	}
	return order, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var errTransitionLost = errors.New("order transition lost the race")
