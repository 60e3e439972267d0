package controllers

import (
	"net/http"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	review "github.com/inkmint/inkmint-backend/internal/reviews"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

// ListProductReviews serves the approved reviews for a product along
// with the aggregate rating.
func ListProductReviews(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListProductReviews(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rating, err := svc.ProductRating(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"reviews": items,
			"rating":  rating,
		})
	}
}

func CreateReview(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload review.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.CreateReview(ctx, userID, productID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// AdminListPendingReviews is the moderation queue.
func AdminListPendingReviews(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		items, err := svc.ListPendingReviews(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"reviews": items})
	}
}

func AdminApproveReview(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviewID, err := pathUUID(r, "reviewID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ApproveReview(ctx, reviewID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

func AdminDeleteReview(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviewID, err := pathUUID(r, "reviewID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteReview(ctx, reviewID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
