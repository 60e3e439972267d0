package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

type fakeProductReader struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
}

func newFakeProductReader() *fakeProductReader {
	return &fakeProductReader{
		products: make(map[uuid.UUID]*models.Product),
		variants: make(map[uuid.UUID]*models.ProductVariant),
	}
}

func (f *fakeProductReader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductReader) FindVariantByID(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if v, ok := f.variants[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeLineStore struct {
	lines map[uuid.UUID]*models.CartItem
}

func newFakeLineStore() *fakeLineStore {
	return &fakeLineStore{lines: make(map[uuid.UUID]*models.CartItem)}
}

func (f *fakeLineStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range f.lines {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeLineStore) FindByID(_ context.Context, id uuid.UUID) (*models.CartItem, error) {
	if item, ok := f.lines[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLineStore) FindLine(_ context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	for _, item := range f.lines {
		if item.UserID != userID || item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if variantID != nil && *item.VariantID != *variantID {
			continue
		}
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLineStore) Create(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	f.lines[item.ID] = &copied
	return item, nil
}

func (f *fakeLineStore) Update(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	copied := *item
	f.lines[item.ID] = &copied
	return item, nil
}

func (f *fakeLineStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.lines, id)
	return nil
}

func (f *fakeLineStore) ClearByUser(_ context.Context, userID uuid.UUID) error {
	for id, item := range f.lines {
		if item.UserID == userID {
			delete(f.lines, id)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }

func seedProduct(reader *fakeProductReader, priceCents int, sellingCents *int) *models.Product {
	p := &models.Product{
		ID:                uuid.New(),
		CategoryID:        uuid.New(),
		Title:             "Classic Tee",
		BasePriceCents:    priceCents,
		SellingPriceCents: sellingCents,
		IsActive:          true,
		IsCustomizable:    true,
	}
	reader.products[p.ID] = p
	return p
}

func seedVariant(reader *fakeProductReader, productID uuid.UUID, override *int, modifier int) *models.ProductVariant {
	v := &models.ProductVariant{
		ID:                 uuid.New(),
		ProductID:          productID,
		Name:               "XL / Black",
		PriceOverrideCents: override,
		PriceModifierCents: modifier,
		IsActive:           true,
	}
	reader.variants[v.ID] = v
	return v
}

func TestUnitPriceCentsPrecedence(t *testing.T) {
	product := &models.Product{BasePriceCents: 10000, SellingPriceCents: intPtr(8000)}

	require.Equal(t, 8000, UnitPriceCents(product, nil), "selling price wins over base")
	require.Equal(t, 10000, UnitPriceCents(&models.Product{BasePriceCents: 10000}, nil), "base price when no selling price")

	withModifier := &models.ProductVariant{PriceModifierCents: 500}
	require.Equal(t, 8500, UnitPriceCents(product, withModifier), "modifier applies on top of selling price")

	withOverride := &models.ProductVariant{PriceOverrideCents: intPtr(12000), PriceModifierCents: 500}
	require.Equal(t, 12000, UnitPriceCents(product, withOverride), "override replaces price and ignores modifier")
}

func TestGetCartSubtotalSumsLines(t *testing.T) {
	ctx := context.Background()
	reader := newFakeProductReader()
	store := newFakeLineStore()
	svc, err := NewService(store, reader)
	require.NoError(t, err)

	userID := uuid.New()
	productA := seedProduct(reader, 10000, nil)
	productB := seedProduct(reader, 5000, nil)
	variant := seedVariant(reader, productA.ID, nil, 250)

	_, err = store.Create(ctx, &models.CartItem{UserID: userID, ProductID: productA.ID, VariantID: &variant.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = store.Create(ctx, &models.CartItem{UserID: userID, ProductID: productB.ID, Quantity: 1})
	require.NoError(t, err)

	summary, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)

	var total int
	for _, line := range summary.Lines {
		require.Equal(t, line.UnitPriceCents*line.Quantity, line.LineTotalCents)
		total += line.LineTotalCents
	}
	require.Equal(t, total, summary.SubtotalCents)
	require.Equal(t, 2*10250+5000, summary.SubtotalCents)
}

func TestGetCartEmptyIsValid(t *testing.T) {
	svc, err := NewService(newFakeLineStore(), newFakeProductReader())
	require.NoError(t, err)

	summary, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, summary.Lines)
	require.Zero(t, summary.SubtotalCents)
}

func TestGetCartFlagsUnavailableLines(t *testing.T) {
	ctx := context.Background()
	reader := newFakeProductReader()
	store := newFakeLineStore()
	svc, err := NewService(store, reader)
	require.NoError(t, err)

	userID := uuid.New()
	active := seedProduct(reader, 4000, nil)
	inactive := seedProduct(reader, 3000, nil)
	inactive.IsActive = false

	_, err = store.Create(ctx, &models.CartItem{UserID: userID, ProductID: active.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = store.Create(ctx, &models.CartItem{UserID: userID, ProductID: inactive.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = store.Create(ctx, &models.CartItem{UserID: userID, ProductID: uuid.New(), Quantity: 1})
	require.NoError(t, err)

	summary, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 3)
	require.True(t, summary.HasUnavailableLines())
	require.Len(t, summary.AvailableLines(), 1)
	require.Equal(t, 4000, summary.SubtotalCents, "unavailable lines excluded from subtotal")

	for _, line := range summary.Lines {
		if line.Unavailable {
			require.NotEmpty(t, line.UnavailableReason)
		}
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	reader := newFakeProductReader()
	store := newFakeLineStore()
	svc, err := NewService(store, reader)
	require.NoError(t, err)

	userID := uuid.New()
	product := seedProduct(reader, 2500, nil)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	summary, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, summary.Lines, 1, "same product/variant pair merges")
	require.Equal(t, 3, summary.Lines[0].Quantity)
}

func TestAddItemValidations(t *testing.T) {
	ctx := context.Background()
	reader := newFakeProductReader()
	store := newFakeLineStore()
	svc, err := NewService(store, reader)
	require.NoError(t, err)

	userID := uuid.New()
	product := seedProduct(reader, 2500, nil)
	product.IsCustomizable = false
	otherProduct := seedProduct(reader, 1000, nil)
	variant := seedVariant(reader, otherProduct.ID, nil, 0)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 0})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 1, DesignRefs: []string{"upload-1"}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, VariantID: &variant.ID, Quantity: 1})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestRemoveItemChecksOwnership(t *testing.T) {
	ctx := context.Background()
	reader := newFakeProductReader()
	store := newFakeLineStore()
	svc, err := NewService(store, reader)
	require.NoError(t, err)

	owner := uuid.New()
	product := seedProduct(reader, 2000, nil)
	item, err := store.Create(ctx, &models.CartItem{UserID: owner, ProductID: product.ID, Quantity: 1, DesignRefs: pq.StringArray{"upload-9"}})
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, uuid.New(), item.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	summary, err := svc.RemoveItem(ctx, owner, item.ID)
	require.NoError(t, err)
	require.Empty(t, summary.Lines)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}
