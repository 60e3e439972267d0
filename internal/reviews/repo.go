package review

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together review persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a review by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByProduct returns reviews for a product, newest first.
// approvedOnly narrows to the storefront-visible set.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if approvedOnly {
		q = q.Where("is_approved")
	}

	var reviews []models.Review
	if err := q.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListPending returns reviews awaiting moderation, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("NOT is_approved").
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create inserts a review.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// SetApproved flips the moderation flag.
func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		UpdateColumn("is_approved", approved).Error
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// AverageRating reports the mean approved rating and review count.
func (r *Repository) AverageRating(ctx context.Context, productID uuid.UUID) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ? AND is_approved", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}
