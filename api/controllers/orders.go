package controllers

import (
	"net/http"
	"strings"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	order "github.com/inkmint/inkmint-backend/internal/orders"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

func ListMyOrders(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListOrdersForUser(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders":      result.Orders,
			"next_cursor": result.NextCursor,
		})
	}
}

func GetMyOrder(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.GetOrderForUser(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// AdminListOrders pages the full order book with optional status and
// user filters.
func AdminListOrders(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter := order.ListFilter{UserID: userID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, parseErr := enums.ParsePaymentStatus(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status"))
				return
			}
			filter.PaymentStatus = &status
		}

		result, err := svc.ListOrders(ctx, filter, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders":      result.Orders,
			"next_cursor": result.NextCursor,
		})
	}
}

func AdminGetOrder(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type updateOrderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

func AdminUpdateOrderStatus(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		item, err := svc.UpdateOrderStatus(ctx, orderID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminRefundOrder(svc order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.RefundOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
