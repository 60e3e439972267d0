package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

// ListResult is one page of catalog products.
type ListResult struct {
	Products   []models.Product
	NextCursor string
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	CategoryID        uuid.UUID
	SKU               string
	Title             string
	Slug              string
	Description       *string
	BasePriceCents    int
	SellingPriceCents *int
	IsActive          bool
	IsCustomizable    bool
	Tags              []string
	Variants          []VariantInput
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID        *uuid.UUID
	SKU               *string
	Title             *string
	Slug              *string
	Description       *string
	BasePriceCents    *int
	SellingPriceCents *int
	ClearSellingPrice bool
	IsActive          *bool
	IsCustomizable    *bool
	Tags              *[]string
}

// VariantInput is the payload for creating or replacing a variant.
type VariantInput struct {
	Name               string
	SKU                string
	PriceOverrideCents *int
	PriceModifierCents int
	StockQty           int
	IsActive           bool
}

// Service exposes catalog reads plus back-office product management.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, variantID uuid.UUID, input VariantInput) (*models.ProductVariant, error)
	DeleteVariant(ctx context.Context, variantID uuid.UUID) error
}

type categoryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo       *Repository
	categories categoryReader
}

// NewService constructs a product service instance.
func NewService(repo *Repository, categories categoryReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category reader required")
	}
	return &service{repo: repo, categories: categories}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Products: rows}
	if len(rows) > limit {
		result.Products = rows[:limit]
		last := result.Products[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindDetail(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := s.validateCreate(ctx, input); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:        input.CategoryID,
		SKU:               strings.TrimSpace(input.SKU),
		Title:             strings.TrimSpace(input.Title),
		Slug:              normalizeSlug(input.Slug),
		Description:       input.Description,
		BasePriceCents:    input.BasePriceCents,
		SellingPriceCents: input.SellingPriceCents,
		IsActive:          input.IsActive,
		IsCustomizable:    input.IsCustomizable,
		Tags:              pq.StringArray(input.Tags),
	}
	for _, v := range input.Variants {
		if err := validateVariantInput(v); err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:               strings.TrimSpace(v.Name),
			SKU:                strings.TrimSpace(v.SKU),
			PriceOverrideCents: v.PriceOverrideCents,
			PriceModifierCents: v.PriceModifierCents,
			StockQty:           v.StockQty,
			IsActive:           v.IsActive,
		})
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this sku or slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}
	applyUpdateToProduct(product, input)
	if product.BasePriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this sku or slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, productID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	} else if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	variant := &models.ProductVariant{
		ProductID:          productID,
		Name:               strings.TrimSpace(input.Name),
		SKU:                strings.TrimSpace(input.SKU),
		PriceOverrideCents: input.PriceOverrideCents,
		PriceModifierCents: input.PriceModifierCents,
		StockQty:           input.StockQty,
		IsActive:           input.IsActive,
	}
	created, err := s.repo.CreateVariant(ctx, variant)
	if err != nil {
		if db.IsUniqueViolation(err, "product_variants_sku_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a variant with this sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating variant")
	}
	return created, nil
}

func (s *service) UpdateVariant(ctx context.Context, variantID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	variant, err := s.repo.FindVariantByID(ctx, variantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
	}

	variant.Name = strings.TrimSpace(input.Name)
	variant.SKU = strings.TrimSpace(input.SKU)
	variant.PriceOverrideCents = input.PriceOverrideCents
	variant.PriceModifierCents = input.PriceModifierCents
	variant.StockQty = input.StockQty
	variant.IsActive = input.IsActive

	updated, err := s.repo.UpdateVariant(ctx, variant)
	if err != nil {
		if db.IsUniqueViolation(err, "product_variants_sku_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a variant with this sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating variant")
	}
	return updated, nil
}

func (s *service) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	if _, err := s.repo.FindVariantByID(ctx, variantID); errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
	}
	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting variant")
	}
	return nil
}

func (s *service) validateCreate(ctx context.Context, input CreateProductInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if normalizeSlug(input.Slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if input.BasePriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if input.SellingPriceCents != nil && *input.SellingPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
	}
	return s.ensureCategory(ctx, input.CategoryID)
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	_, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	return nil
}

func validateVariantInput(input VariantInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
	}
	if input.PriceOverrideCents != nil && *input.PriceOverrideCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant price override cannot be negative")
	}
	if input.StockQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		product.Slug = normalizeSlug(*input.Slug)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.BasePriceCents != nil {
		product.BasePriceCents = *input.BasePriceCents
	}
	if input.ClearSellingPrice {
		product.SellingPriceCents = nil
	} else if input.SellingPriceCents != nil {
		product.SellingPriceCents = input.SellingPriceCents
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsCustomizable != nil {
		product.IsCustomizable = *input.IsCustomizable
	}
	if input.Tags != nil {
		product.Tags = pq.StringArray(*input.Tags)
	}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
