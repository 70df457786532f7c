package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/internal/checkout/helpers"
	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	"github.com/craftloom/craftloom-backend/pkg/metrics"
	"github.com/craftloom/craftloom-backend/pkg/outbox"
	"github.com/craftloom/craftloom-backend/pkg/outbox/payloads"
	"github.com/craftloom/craftloom-backend/pkg/razorpay"
)

// Service turns a cart into per-seller orders and settles their payments.
type Service interface {
	SubmitCheckout(ctx context.Context, buyerID uuid.UUID, input SubmitInput) (*CheckoutDTO, error)
	ConfirmPayment(ctx context.Context, buyerID uuid.UUID, input ConfirmInput) (*ConfirmResultDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type cartStore interface {
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	MarkCheckedOutTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type itemStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogItem, error)
	DecrementStockTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error)
}

type orderStore interface {
	CreateSellerOrderTx(ctx context.Context, tx *gorm.DB, order *models.SellerOrder) error
	CreateOrderLineItemsTx(ctx context.Context, tx *gorm.DB, lines []models.OrderLineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SellerOrder, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.SellerOrder, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, paymentID string, paidAt time.Time) (bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx           txRunner
	gateway      gatewayClient
	carts        cartStore
	items        itemStore
	orders       orderStore
	outbox       outboxEmitter
	metrics      *metrics.CommerceMetrics
	logg         *logger.Logger
	baseCurrency enums.Currency
}

// NewService constructs a checkout service instance. Metrics may be nil.
func NewService(
	runner txRunner,
	gateway gatewayClient,
	carts cartStore,
	items itemStore,
	orders orderStore,
	emitter outboxEmitter,
	commerceMetrics *metrics.CommerceMetrics,
	logg *logger.Logger,
	baseCurrency enums.Currency,
) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if items == nil {
		return nil, fmt.Errorf("item store required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
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
		tx:           runner,
		gateway:      gateway,
		carts:        carts,
		items:        items,
		orders:       orders,
		outbox:       emitter,
		metrics:      commerceMetrics,
		logg:         logg,
		baseCurrency: baseCurrency,
	}, nil
}

type pendingOrder struct {
	order *models.SellerOrder
	lines []models.OrderLineItem
}

func (s *service) SubmitCheckout(ctx context.Context, buyerID uuid.UUID, input SubmitInput) (*CheckoutDTO, error) {
	if input.ShippingAddress != nil {
		input.ShippingAddress.Normalize()
		if err := input.ShippingAddress.Validate(); err != nil {
			s.metrics.IncCheckout("validation_failed")
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid shipping address")
		}
	}

	cart, err := s.carts.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if isNotFound(err) {
			s.metrics.IncCheckout("empty_cart")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading cart")
	}
	if len(cart.Lines) == 0 {
		s.metrics.IncCheckout("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	byID, err := s.loadItems(ctx, cart.Lines)
	if err != nil {
		return nil, err
	}
	for _, line := range cart.Lines {
		item, ok := byID[line.ItemID]
		if !ok || !item.Status.Purchasable() {
			s.metrics.IncCheckout("item_unavailable")
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "an item in the cart is no longer available").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		if item.Quantity < line.Quantity {
			s.metrics.IncCheckout("insufficient_stock")
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for the requested quantity").
				WithDetails(map[string]any{"item_id": line.ItemID, "available": item.Quantity})
		}
	}

	// Gateway orders are created before the transaction opens. If the
	// transaction later rolls back, the gateway orders simply expire unpaid.
	groups := helpers.GroupLinesBySeller(cart.Lines)
	now := time.Now().UTC()
	pending := make([]pendingOrder, 0, len(groups))
	orderIDs := make([]uuid.UUID, 0, len(groups))
	for _, sellerID := range helpers.SortedSellerIDs(groups) {
		bucket := groups[sellerID]
		total := helpers.SellerSubtotal(bucket, byID)
		amountPaise := helpers.ToMinorUnits(total)
		receipt := BuildReceipt(buyerID, sellerID, now)

		gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
			AmountPaise: amountPaise,
			Currency:    s.baseCurrency.String(),
			Receipt:     receipt,
			Notes: map[string]string{
				"buyer_id":  buyerID.String(),
				"seller_id": sellerID.String(),
			},
		})
		if err != nil {
			s.metrics.IncCheckout("gateway_error")
			return nil, err
		}

		order := &models.SellerOrder{
			ID:              uuid.New(),
			BuyerID:         buyerID,
			SellerID:        sellerID,
			CartID:          &cart.ID,
			Receipt:         receipt,
			Currency:        s.baseCurrency,
			Status:          enums.OrderStatusCreated,
			TotalAmount:     total,
			AmountPaise:     amountPaise,
			GatewayOrderID:  gatewayOrder.ID,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
		}
		pending = append(pending, pendingOrder{order: order, lines: buildLineSnapshots(order.ID, bucket, byID)})
		orderIDs = append(orderIDs, order.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, p := range pending {
			if err := s.orders.CreateSellerOrderTx(ctx, tx, p.order); err != nil {
				return err
			}
			if err := s.orders.CreateOrderLineItemsTx(ctx, tx, p.lines); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.OutboxEventOrderCreated,
				AggregateType: enums.OutboxAggregateOrder,
				AggregateID:   p.order.ID,
				Actor:         &outbox.ActorRef{UserID: buyerID, Role: "buyer"},
				Data: payloads.OrderCreatedEvent{
					CartID:         &cart.ID,
					BuyerID:        buyerID,
					SellerOrderIDs: orderIDs,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return s.carts.MarkCheckedOutTx(ctx, tx, cart.ID)
	})
	if err != nil {
		s.metrics.IncCheckout("persist_failed")
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "persisting checkout")
	}

	s.metrics.IncCheckout("success")
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"cart_id":     cart.ID.String(),
		"buyer_id":    buyerID.String(),
		"order_count": len(pending),
	})
	s.logg.Info(logCtx, "checkout split into seller orders")

	dto := &CheckoutDTO{CartID: cart.ID}
	for _, p := range pending {
		dto.Orders = append(dto.Orders, OrderSummaryDTO{
			OrderID:        p.order.ID,
			SellerID:       p.order.SellerID,
			Receipt:        p.order.Receipt,
			Currency:       p.order.Currency.String(),
			Status:         p.order.Status.String(),
			TotalAmount:    p.order.TotalAmount.StringFixed(2),
			AmountPaise:    p.order.AmountPaise,
			GatewayOrderID: p.order.GatewayOrderID,
			LineCount:      len(p.lines),
		})
	}
	return dto, nil
}

func (s *service) ConfirmPayment(ctx context.Context, buyerID uuid.UUID, input ConfirmInput) (*ConfirmResultDTO, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id, and signature are required")
	}

	// The signature gates everything else. Checking it first keeps the
	// response identical for known and unknown gateway references.
	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncPaymentVerification("signature_mismatch")
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"gateway_order_id": input.GatewayOrderID,
		})
		s.logg.Warn(logCtx, "payment signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature verification failed")
	}

	order, err := s.locateOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		s.metrics.IncPaymentVerification("order_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeOrderMismatch, "order does not match payment reference")
	}

	if order.Status != enums.OrderStatusCreated {
		return s.resolveReplay(order, input.GatewayPaymentID)
	}

	paidAt := time.Now().UTC()
	var won bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		won, txErr = s.orders.MarkPaidTx(ctx, tx, order.ID, input.GatewayPaymentID, paidAt)
		if txErr != nil {
			return txErr
		}
		if !won {
			return nil
		}
		if err := s.settleStock(ctx, tx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventPaymentConfirmed,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: "buyer"},
			Data: payloads.PaymentConfirmedEvent{
				OrderID:          order.ID,
				BuyerID:          order.BuyerID,
				SellerID:         order.SellerID,
				GatewayOrderID:   order.GatewayOrderID,
				GatewayPaymentID: input.GatewayPaymentID,
				AmountPaise:      order.AmountPaise,
				PaidAt:           paidAt,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "confirming payment")
	}

	if !won {
		refreshed, err := s.orders.FindByGatewayOrderID(ctx, input.GatewayOrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "reloading order")
		}
		return s.resolveReplay(refreshed, input.GatewayPaymentID)
	}

	s.metrics.IncPaymentVerification("verified")
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":         order.ID.String(),
		"gateway_order_id": order.GatewayOrderID,
		"amount_paise":     order.AmountPaise,
	})
	s.logg.Info(logCtx, "payment confirmed")

	return &ConfirmResultDTO{
		OrderID:          order.ID,
		Status:           enums.OrderStatusPaid.String(),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		PaidAt:           &paidAt,
	}, nil
}

// locateOrder finds the order a confirmation refers to. An explicit order
// id wins, but its stored gateway reference must agree with the callback.
func (s *service) locateOrder(ctx context.Context, input ConfirmInput) (*models.SellerOrder, error) {
	if input.OrderID != nil {
		order, err := s.orders.FindByID(ctx, *input.OrderID)
		if err != nil {
			if isNotFound(err) {
				s.metrics.IncPaymentVerification("unknown_order")
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading order")
		}
		if order.GatewayOrderID != input.GatewayOrderID {
			s.metrics.IncPaymentVerification("order_mismatch")
			return nil, pkgerrors.New(pkgerrors.CodeOrderMismatch, "order does not match payment reference")
		}
		return order, nil
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if isNotFound(err) {
			s.metrics.IncPaymentVerification("unknown_order")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order exists for the gateway reference")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading order")
	}
	return order, nil
}

// settleStock decrements every purchased line. A line that lost the race to
// the last unit does not fail the confirmation; it is flagged for operator
// review instead, since the buyer has already been charged.
func (s *service) settleStock(ctx context.Context, tx *gorm.DB, order *models.SellerOrder) error {
	var accumulated error
	for _, line := range order.Lines {
		ok, err := s.items.DecrementStockTx(ctx, tx, line.ItemID, line.Quantity)
		if err != nil {
			accumulated = multierr.Append(accumulated, err)
			continue
		}
		if ok {
			continue
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":  order.ID.String(),
			"item_id":   line.ItemID.String(),
			"requested": line.Quantity,
		})
		s.logg.Warn(logCtx, "stock decrement lost the race, flagging for reconciliation")
		emitErr := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventStockReconciliation,
			AggregateType: enums.OutboxAggregateCatalog,
			AggregateID:   line.ItemID,
			Data: payloads.StockReconciliationEvent{
				ItemID:    line.ItemID,
				SellerID:  order.SellerID,
				OrderID:   order.ID,
				Requested: line.Quantity,
			},
		})
		accumulated = multierr.Append(accumulated, emitErr)
	}
	return accumulated
}

// resolveReplay decides what a confirmation against a non-created order
// means. The same payment id is an idempotent replay; anything else is a
// state conflict.
func (s *service) resolveReplay(order *models.SellerOrder, paymentID string) (*ConfirmResultDTO, error) {
	if order.Status == enums.OrderStatusCancelled ||
		order.GatewayPaymentID == nil ||
		*order.GatewayPaymentID != paymentID {
		s.metrics.IncPaymentVerification("state_conflict")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot accept this payment").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	s.metrics.IncPaymentVerification("replay")
	return &ConfirmResultDTO{
		OrderID:          order.ID,
		Status:           order.Status.String(),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: paymentID,
		PaidAt:           order.PaidAt,
		Replayed:         true,
	}, nil
}

func (s *service) loadItems(ctx context.Context, lines []models.CartLine) (map[uuid.UUID]models.CatalogItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
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
	return byID, nil
}

func buildLineSnapshots(orderID uuid.UUID, lines []models.CartLine, itemsByID map[uuid.UUID]models.CatalogItem) []models.OrderLineItem {
	snapshots := make([]models.OrderLineItem, 0, len(lines))
	for _, line := range lines {
		item := itemsByID[line.ItemID]
		qty := decimal.NewFromInt(int64(line.Quantity))
		snapshots = append(snapshots, models.OrderLineItem{
			OrderID:   orderID,
			ItemID:    line.ItemID,
			Title:     item.Title,
			SKU:       item.SKU,
			UnitPrice: item.Price,
			Quantity:  line.Quantity,
			LineTotal: item.Price.Mul(qty),
		})
	}
	return snapshots
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
