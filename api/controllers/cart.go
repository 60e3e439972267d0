package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	"github.com/inkmint/inkmint-backend/internal/cart"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.GetCart(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

type addCartItemPayload struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	DesignRefs []string   `json:"design_refs,omitempty"`
}

func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.AddItem(ctx, userID, cart.AddItemInput{
			ProductID:  payload.ProductID,
			VariantID:  payload.VariantID,
			Quantity:   payload.Quantity,
			DesignRefs: payload.DesignRefs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

type updateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.UpdateItemQuantity(ctx, userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.RemoveItem(ctx, userID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
