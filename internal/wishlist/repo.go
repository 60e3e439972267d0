package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together wishlist persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's wishlist, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a wishlist entry.
func (r *Repository) Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the user's entry for a product. The returned count
// tells the caller whether anything matched.
func (r *Repository) Delete(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return result.RowsAffected, result.Error
}
