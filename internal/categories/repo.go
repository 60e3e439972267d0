package category

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

// Repository wires together category persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a category by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindBySlug loads a category by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns categories ordered by name. activeOnly narrows the
// result to the storefront-visible set.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		q = q.Where("is_active")
	}

	var categories []models.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// Update saves the full category row.
func (r *Repository) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

// CountProducts reports how many products reference the category.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountChildren reports how many categories list this one as parent.
func (r *Repository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}
