package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

// Entry is one wishlist item joined with its live product.
type Entry struct {
	Item    models.WishlistItem `json:"item"`
	Product *models.Product     `json:"product,omitempty"`
}

// Service manages the per-user liked products list.
type Service interface {
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
}

type wishlistStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (int64, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     wishlistStore
	products productReader
}

// NewService constructs a wishlist service instance.
func NewService(repo wishlistStore, products productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products}, nil
}

// ListWishlist returns the user's entries with their products attached.
// A product that has since been deactivated or removed still lists, just
// without catalog data.
func (s *service) ListWishlist(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing wishlist")
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry := Entry{Item: item}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err == nil && product.IsActive {
			entry.Product = product
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wishlist product")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *service) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	item, err := s.repo.Create(ctx, &models.WishlistItem{UserID: userID, ProductID: productID})
	if err != nil {
		if db.IsUniqueViolation(err, "wishlist_items_user_product_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is already on the wishlist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding to wishlist")
	}
	return item, nil
}

func (s *service) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing from wishlist")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the wishlist")
	}
	return nil
}
