package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together cart persistence helpers.
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

// ListByUser returns the user's cart lines oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID loads a single cart line.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine returns the existing line for the product/variant pair, if any.
func (r *Repository) FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	if err := q.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new cart line.
func (r *Repository) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Update persists quantity/design changes on an existing line.
func (r *Repository) Update(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a single line.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

// DeleteByIDs removes exactly the given lines, inside tx when provided.
// Used at order materialization so lines added mid-checkout survive.
func (r *Repository) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartItem{}).Error
}

// ClearByUser empties the user's cart.
func (r *Repository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
