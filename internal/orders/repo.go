package order

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

// ListFilter narrows the back-office order listing.
type ListFilter struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// Repository wires together order persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order and its items, inside tx when provided.
// Items travel through the association so the whole snapshot commits
// or none of it does.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayOrderID loads the order materialized for a gateway
// order id, if verification already completed once.
func (r *Repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "gateway_order_id = ?", gatewayOrderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List pages through orders newest first using a created_at/id cursor.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")

	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *filter.PaymentStatus)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	err = q.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus persists a fulfillment status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// UpdatePaymentStatus persists a payment status change (refunds).
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("payment_status", status).Error
}
