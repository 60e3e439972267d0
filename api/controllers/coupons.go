package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	coupon "github.com/inkmint/inkmint-backend/internal/coupons"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

type validateCouponPayload struct {
	Code string `json:"code" validate:"required"`
}

type excludedLine struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`
}

type couponAssessmentResponse struct {
	Code          string         `json:"code"`
	Validity      string         `json:"validity"`
	DiscountCents int            `json:"discount_cents"`
	Message       string         `json:"message,omitempty"`
	ExcludedLines []excludedLine `json:"excluded_lines,omitempty"`
}

// ValidateCoupon previews a code against the caller's current cart.
// Ineligibility is reported in the body, not as an HTTP error.
func ValidateCoupon(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload validateCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ValidateForUser(ctx, userID, payload.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := couponAssessmentResponse{
			Code:          payload.Code,
			Validity:      result.Validity.String(),
			DiscountCents: result.DiscountCents,
			Message:       result.Message,
		}
		if result.Coupon != nil {
			resp.Code = result.Coupon.Code
		}
		for _, assessment := range result.IneligibleLines {
			resp.ExcludedLines = append(resp.ExcludedLines, excludedLine{
				CartItemID: assessment.Line.CartItemID,
				Title:      assessment.Line.Title,
				Reason:     assessment.Reason,
			})
		}

		responses.WriteSuccess(w, resp)
	}
}

type couponPayload struct {
	Code             string     `json:"code" validate:"required"`
	Description      *string    `json:"description,omitempty"`
	DiscountType     string     `json:"discount_type" validate:"required"`
	DiscountValue    int        `json:"discount_value" validate:"required,min=1"`
	MinPurchaseCents *int       `json:"min_purchase_cents,omitempty" validate:"omitempty,min=0"`
	MaxDiscountCents *int       `json:"max_discount_cents,omitempty" validate:"omitempty,min=1"`
	Scope            string     `json:"scope" validate:"required"`
	ScopeCategoryID  *uuid.UUID `json:"scope_category_id,omitempty"`
	ScopeProductID   *uuid.UUID `json:"scope_product_id,omitempty"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	UsageLimit       *int       `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive         bool       `json:"is_active"`
}

func (p couponPayload) toInput() (coupon.CouponInput, error) {
	discountType, err := enums.ParseDiscountType(p.DiscountType)
	if err != nil {
		return coupon.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	scope, err := enums.ParseCouponScope(p.Scope)
	if err != nil {
		return coupon.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon scope")
	}
	return coupon.CouponInput{
		Code:             p.Code,
		Description:      p.Description,
		DiscountType:     discountType,
		DiscountValue:    p.DiscountValue,
		MinPurchaseCents: p.MinPurchaseCents,
		MaxDiscountCents: p.MaxDiscountCents,
		Scope:            scope,
		ScopeCategoryID:  p.ScopeCategoryID,
		ScopeProductID:   p.ScopeProductID,
		StartsAt:         p.StartsAt,
		ExpiresAt:        p.ExpiresAt,
		UsageLimit:       p.UsageLimit,
		IsActive:         p.IsActive,
	}, nil
}

func AdminListCoupons(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		items, err := svc.ListCoupons(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"coupons": items})
	}
}

func AdminGetCoupon(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.GetCoupon(ctx, couponID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminCreateCoupon(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload couponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.CreateCoupon(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func AdminUpdateCoupon(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload couponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.UpdateCoupon(ctx, couponID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminDeleteCoupon(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteCoupon(ctx, couponID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
