package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	"github.com/inkmint/inkmint-backend/internal/checkout"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

type initiateCheckoutPayload struct {
	AddressID  uuid.UUID `json:"address_id" validate:"required"`
	CouponCode *string   `json:"coupon_code,omitempty"`
}

// InitiateCheckout prices the cart and opens a gateway order. No
// domain order exists until the payment callback verifies.
func InitiateCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload initiateCheckoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Initiate(ctx, userID, checkout.InitiateInput{
			AddressID:  payload.AddressID,
			CouponCode: payload.CouponCode,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VerifyPayment authenticates the gateway callback and materializes
// the order.
func VerifyPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkout.VerifyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Verify(ctx, userID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
