package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

// ListResult is one page of orders.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// Service exposes order reads for customers plus back-office management.
type Service interface {
	GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	RefundOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

type service struct {
	repo orderStore
}

// NewService constructs an order service instance.
func NewService(repo orderStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrdersForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	return s.ListOrders(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Orders: rows}
	if len(rows) > limit {
		result.Orders = rows[:limit]
		last := result.Orders[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// UpdateOrderStatus moves the fulfillment state along the allowed
// transitions only.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = status
	return order, nil
}

// RefundOrder flags the payment as refunded. The gateway-side money
// movement happens in the Razorpay dashboard; this records the outcome.
func (s *service) RefundOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusSuccess {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only successfully paid orders can be refunded")
	}

	if err := s.repo.UpdatePaymentStatus(ctx, orderID, enums.PaymentStatusRefunded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment status")
	}
	if order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		if err := s.repo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling refunded order")
		}
		order.Status = enums.OrderStatusCancelled
	}
	order.PaymentStatus = enums.PaymentStatusRefunded
	return order, nil
}
