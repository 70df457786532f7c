package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/api/middleware"
	orderssvc "github.com/craftloom/craftloom-backend/internal/orders"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
)

type stubOrdersService struct {
	order      *orderssvc.OrderDTO
	orders     []orderssvc.OrderDTO
	err        error
	advancedTo enums.OrderStatus
	tracking   *string
}

func (s *stubOrdersService) GetOrder(_ context.Context, _, _ uuid.UUID) (*orderssvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListBuyerOrders(_ context.Context, _ uuid.UUID, _, _ int) ([]orderssvc.OrderDTO, error) {
	return s.orders, s.err
}

func (s *stubOrdersService) ListSellerOrders(_ context.Context, _ uuid.UUID, _ *enums.OrderStatus, _, _ int) ([]orderssvc.OrderDTO, error) {
	return s.orders, s.err
}

func (s *stubOrdersService) AdvanceStatus(_ context.Context, _, _ uuid.UUID, to enums.OrderStatus, tracking *string) (*orderssvc.OrderDTO, error) {
	s.advancedTo = to
	s.tracking = tracking
	return s.order, s.err
}

func (s *stubOrdersService) CancelOrder(_ context.Context, _, _ uuid.UUID) (*orderssvc.OrderDTO, error) {
	return s.order, s.err
}

func orderRequestWithParam(method, url, param, value string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	rc.URLParams.Add(param, value)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestOrderGetSuccess(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubOrdersService{order: &orderssvc.OrderDTO{ID: orderID, Status: "paid"}}
	handler := OrderGet(svc, nil)

	req := orderRequestWithParam(http.MethodGet, "/api/v1/orders/"+orderID.String(), "orderID", orderID.String(), "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data orderssvc.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if envelope.Data.ID != orderID {
		t.Fatalf("expected order %s got %s", orderID, envelope.Data.ID)
	}
}

func TestOrderGetRejectsBadID(t *testing.T) {
	t.Parallel()

	handler := OrderGet(&stubOrdersService{}, nil)

	req := orderRequestWithParam(http.MethodGet, "/api/v1/orders/nope", "orderID", "nope", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSellerOrderAdvanceParsesStatus(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubOrdersService{order: &orderssvc.OrderDTO{ID: orderID, Status: "shipped"}}
	handler := SellerOrderAdvance(svc, nil)

	req := orderRequestWithParam(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/status", "orderID", orderID.String(), `{"status":"shipped","tracking_number":"IN123456789"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.advancedTo != enums.OrderStatusShipped {
		t.Fatalf("expected shipped got %s", svc.advancedTo)
	}
	if svc.tracking == nil || *svc.tracking != "IN123456789" {
		t.Fatalf("expected tracking number forwarded, got %v", svc.tracking)
	}
}

func TestSellerOrderAdvanceRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	handler := SellerOrderAdvance(&stubOrdersService{}, nil)

	req := orderRequestWithParam(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/status", "orderID", orderID.String(), `{"status":"teleported"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCancelConflictSurfacesStateConflict(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	handler := OrderCancel(&stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")}, nil)

	req := orderRequestWithParam(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "orderID", orderID.String(), "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT got %s", payload.Error.Code)
	}
}

func TestOrdersListBuyerClampsLimit(t *testing.T) {
	t.Parallel()

	handler := OrdersListBuyer(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5000", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range limit got %d", resp.Code)
	}
}
