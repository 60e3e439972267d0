package coupon

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together coupon persistence helpers.
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

// FindByCode loads a coupon by its code, case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByID loads a coupon row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List returns all coupons newest first. Admin surface only.
func (r *Repository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// Create inserts a new coupon row.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update persists coupon mutations.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{}).Error
}

// IncrementUsage bumps the redemption counter after an order
// materializes, inside tx when provided.
func (r *Repository) IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
