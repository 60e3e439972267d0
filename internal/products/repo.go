package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Search     string
	ActiveOnly bool
	MaxCents   *int
	MinCents   *int
}

// Repository wires together catalog persistence helpers.
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

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its storefront slug, variants included.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", "is_active = ?", true).
		First(&product, "slug = ?", strings.ToLower(strings.TrimSpace(slug))).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDetail loads the product with all variants. Admin surface.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariantByID loads a single variant.
func (r *Repository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// List pages through the catalog newest first using a created_at/id cursor.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	if filter.MinCents != nil {
		q = q.Where("COALESCE(selling_price_cents, base_price_cents) >= ?", *filter.MinCents)
	}
	if filter.MaxCents != nil {
		q = q.Where("COALESCE(selling_price_cents, base_price_cents) <= ?", *filter.MaxCents)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	err = q.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Create inserts a product row along with any provided variants.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists product mutations.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID. Variants cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// CreateVariant inserts a new variant row.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) (*models.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

// UpdateVariant persists variant mutations.
func (r *Repository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) (*models.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Save(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

// DeleteVariant removes a variant row.
func (r *Repository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductVariant{}).Error
}
