package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/api/responses"
	"github.com/craftloom/craftloom-backend/api/validators"
	checkoutsvc "github.com/craftloom/craftloom-backend/internal/checkout"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	"github.com/craftloom/craftloom-backend/pkg/types"
)

// CheckoutSubmit converts the buyer's active cart into per-seller orders.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitCheckout(r.Context(), buyerID, checkoutsvc.SubmitInput{
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutConfirm verifies the gateway payment callback and marks orders paid.
func CheckoutConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var orderID *uuid.UUID
		if payload.OrderID != "" {
			parsed, parseErr := uuid.Parse(payload.OrderID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order_id"))
				return
			}
			orderID = &parsed
		}

		result, err := svc.ConfirmPayment(r.Context(), buyerID, checkoutsvc.ConfirmInput{
			GatewayOrderID:   payload.GatewayOrderID,
			GatewayPaymentID: payload.GatewayPaymentID,
			Signature:        payload.Signature,
			OrderID:          orderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type checkoutRequest struct {
	ShippingAddress *types.Address `json:"shipping_address" validate:"required"`
	Notes           *string        `json:"notes,omitempty"`
}

type confirmRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
	OrderID          string `json:"order_id,omitempty"`
}
