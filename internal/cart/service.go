package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

// Line is one aggregated cart entry with its live-derived price.
type Line struct {
	CartItemID     uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	CategoryID     uuid.UUID
	Title          string
	VariantName    *string
	Quantity       int
	UnitPriceCents int
	LineTotalCents int
	DesignRefs     []string
	Unavailable    bool
	// UnavailableReason is set when the backing product or variant
	// disappeared or was deactivated after the line was added.
	UnavailableReason string
}

// Summary is the aggregated cart. SubtotalCents covers available lines only.
type Summary struct {
	Lines         []Line
	SubtotalCents int
}

// AvailableLines filters out lines whose product is gone or inactive.
func (s *Summary) AvailableLines() []Line {
	out := make([]Line, 0, len(s.Lines))
	for _, line := range s.Lines {
		if !line.Unavailable {
			out = append(out, line)
		}
	}
	return out
}

// HasUnavailableLines reports whether any line cannot currently be purchased.
func (s *Summary) HasUnavailableLines() bool {
	for _, line := range s.Lines {
		if line.Unavailable {
			return true
		}
	}
	return false
}

// AddItemInput is the validated payload for adding a cart line.
type AddItemInput struct {
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
	Quantity   int
	DesignRefs []string
}

// Service exposes cart operations for the authenticated user.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Summary, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Summary, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Summary, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Summary, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type lineStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	Update(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     lineStore
	products productReader
}

// NewService constructs a cart service instance.
func NewService(repo lineStore, products productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products}, nil
}

// GetCart aggregates the user's cart against live catalog pricing.
// An empty cart is a valid state, not an error.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return s.aggregate(ctx, items)
}

func (s *service) aggregate(ctx context.Context, items []models.CartItem) (*Summary, error) {
	summary := &Summary{Lines: make([]Line, 0, len(items))}
	for _, item := range items {
		line := Line{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Quantity:   item.Quantity,
			DesignRefs: []string(item.DesignRefs),
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			line.Unavailable = true
			line.UnavailableReason = "product no longer exists"
			summary.Lines = append(summary.Lines, line)
			continue
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart product")
		}

		line.CategoryID = product.CategoryID
		line.Title = product.Title
		if !product.IsActive {
			line.Unavailable = true
			line.UnavailableReason = "product is no longer available"
			summary.Lines = append(summary.Lines, line)
			continue
		}

		var variant *models.ProductVariant
		if item.VariantID != nil {
			variant, err = s.products.FindVariantByID(ctx, *item.VariantID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				line.Unavailable = true
				line.UnavailableReason = "selected option no longer exists"
				summary.Lines = append(summary.Lines, line)
				continue
			case err != nil:
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart variant")
			}
			if !variant.IsActive {
				line.Unavailable = true
				line.UnavailableReason = "selected option is no longer available"
				summary.Lines = append(summary.Lines, line)
				continue
			}
			line.VariantName = &variant.Name
		}

		line.UnitPriceCents = UnitPriceCents(product, variant)
		line.LineTotalCents = line.UnitPriceCents * line.Quantity
		summary.SubtotalCents += line.LineTotalCents
		summary.Lines = append(summary.Lines, line)
	}
	return summary, nil
}

// AddItem validates the product/variant pair and merges into an
// existing line when one matches.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Summary, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available for purchase")
	}
	if len(input.DesignRefs) > 0 && !product.IsCustomizable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not accept custom designs")
	}

	if input.VariantID != nil {
		variant, err := s.products.FindVariantByID(ctx, *input.VariantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
		}
		if variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		if !variant.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product variant is not available")
		}
	}

	existing, err := s.repo.FindLine(ctx, userID, input.ProductID, input.VariantID)
	switch {
	case err == nil:
		existing.Quantity += input.Quantity
		if len(input.DesignRefs) > 0 {
			existing.DesignRefs = pq.StringArray(input.DesignRefs)
		}
		if _, err := s.repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			UserID:     userID,
			ProductID:  input.ProductID,
			VariantID:  input.VariantID,
			Quantity:   input.Quantity,
			DesignRefs: pq.StringArray(input.DesignRefs),
		}
		if _, err := s.repo.Create(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking cart line")
	}

	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity replaces the quantity on a line the user owns.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Summary, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.ownedLine(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if _, err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line the user owns.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Summary, error) {
	item, err := s.ownedLine(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
	}
	return s.GetCart(ctx, userID)
}

// Clear removes every line from the user's cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ClearByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) ownedLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart line")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}
