package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

type fakeWishlistStore struct {
	items []*models.WishlistItem
}

func (f *fakeWishlistStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeWishlistStore) Create(_ context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	for _, existing := range f.items {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			return nil, errors.New(`duplicate key value violates unique constraint "wishlist_items_user_product_key"`)
		}
	}
	item.ID = uuid.New()
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeWishlistStore) Delete(_ context.Context, userID, productID uuid.UUID) (int64, error) {
	for i, item := range f.items {
		if item.UserID == userID && item.ProductID == productID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeProductReader struct {
	byID map[uuid.UUID]*models.Product
}

func (f *fakeProductReader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestAddToWishlistIsUniquePerProduct(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Title: "Classic Tee", IsActive: true}
	svc, err := NewService(&fakeWishlistStore{}, &fakeProductReader{byID: map[uuid.UUID]*models.Product{product.ID: product}})
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	_, err = svc.AddToWishlist(ctx, userID, product.ID)
	require.NoError(t, err)

	_, err = svc.AddToWishlist(ctx, userID, product.ID)
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestAddToWishlistRejectsInactiveProduct(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Title: "Retired Tee", IsActive: false}
	svc, err := NewService(&fakeWishlistStore{}, &fakeProductReader{byID: map[uuid.UUID]*models.Product{product.ID: product}})
	require.NoError(t, err)

	_, err = svc.AddToWishlist(context.Background(), uuid.New(), product.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListWishlistKeepsEntriesForVanishedProducts(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Title: "Classic Tee", IsActive: true}
	store := &fakeWishlistStore{}
	products := &fakeProductReader{byID: map[uuid.UUID]*models.Product{product.ID: product}}
	svc, err := NewService(store, products)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	_, err = svc.AddToWishlist(ctx, userID, product.ID)
	require.NoError(t, err)

	delete(products.byID, product.ID)

	entries, err := svc.ListWishlist(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].Product, "vanished product listed without catalog data")
}

func TestRemoveFromWishlist(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Title: "Classic Tee", IsActive: true}
	store := &fakeWishlistStore{}
	svc, err := NewService(store, &fakeProductReader{byID: map[uuid.UUID]*models.Product{product.ID: product}})
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	_, err = svc.AddToWishlist(ctx, userID, product.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveFromWishlist(ctx, userID, product.ID))

	err = svc.RemoveFromWishlist(ctx, userID, product.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}
