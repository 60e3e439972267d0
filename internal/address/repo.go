package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together address persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's saved addresses, default first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// FindForUser loads an address only when the user owns it.
func (r *Repository) FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		First(&addr, "id = ? AND user_id = ?", addressID, userID).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// Create inserts an address.
func (r *Repository) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Create(addr).Error; err != nil {
		return nil, err
	}
	return addr, nil
}

// Update saves the full address row.
func (r *Repository) Update(ctx context.Context, addr *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Save(addr).Error; err != nil {
		return nil, err
	}
	return addr, nil
}

// Delete removes an address owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{}).Error
}

// ClearDefault unsets the default flag on all of the user's addresses.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).Error
}
