package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

type fakeOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	store := &fakeOrderStore{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range orders {
		store.orders[o.ID] = o
	}
	return store
}

func (f *fakeOrderStore) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderStore) List(_ context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && o.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = status
	return nil
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func paidOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "INK-20260214-ABCD1234",
		UserID:        userID,
		SubtotalCents: 25500,
		TotalCents:    34990,
		PaymentStatus: enums.PaymentStatusSuccess,
		Status:        enums.OrderStatusProcessing,
		CreatedAt:     time.Now(),
	}
}

func TestGetOrderForUserHidesForeignOrders(t *testing.T) {
	owner := uuid.New()
	existing := paidOrder(owner)
	svc, err := NewService(newFakeOrderStore(existing))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.GetOrderForUser(ctx, owner, existing.ID)
	require.NoError(t, err)
	require.Equal(t, existing.OrderNumber, got.OrderNumber)

	_, err = svc.GetOrderForUser(ctx, uuid.New(), existing.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOrdersForUserScopesToCaller(t *testing.T) {
	owner := uuid.New()
	svc, err := NewService(newFakeOrderStore(paidOrder(owner), paidOrder(owner), paidOrder(uuid.New())))
	require.NoError(t, err)

	result, err := svc.ListOrdersForUser(context.Background(), owner, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	for _, o := range result.Orders {
		require.Equal(t, owner, o.UserID)
	}
}

func TestUpdateOrderStatusFollowsFulfillmentFlow(t *testing.T) {
	existing := paidOrder(uuid.New())
	svc, err := NewService(newFakeOrderStore(existing))
	require.NoError(t, err)
	ctx := context.Background()

	shipped, err := svc.UpdateOrderStatus(ctx, existing.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, shipped.Status)

	_, err = svc.UpdateOrderStatus(ctx, existing.ID, enums.OrderStatusProcessing)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRefundOrderMarksPaymentAndCancels(t *testing.T) {
	existing := paidOrder(uuid.New())
	store := newFakeOrderStore(existing)
	svc, err := NewService(store)
	require.NoError(t, err)

	refunded, err := svc.RefundOrder(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
	require.Equal(t, enums.OrderStatusCancelled, refunded.Status)
	require.Equal(t, enums.PaymentStatusRefunded, store.orders[existing.ID].PaymentStatus)
}

func TestRefundOrderRejectsDoubleRefund(t *testing.T) {
	existing := paidOrder(uuid.New())
	existing.PaymentStatus = enums.PaymentStatusRefunded
	svc, err := NewService(newFakeOrderStore(existing))
	require.NoError(t, err)

	_, err = svc.RefundOrder(context.Background(), existing.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRefundShippedOrderKeepsFulfillmentState(t *testing.T) {
	existing := paidOrder(uuid.New())
	existing.Status = enums.OrderStatusShipped
	svc, err := NewService(newFakeOrderStore(existing))
	require.NoError(t, err)

	refunded, err := svc.RefundOrder(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
	require.Equal(t, enums.OrderStatusShipped, refunded.Status)
}
