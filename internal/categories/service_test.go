package category

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

type fakeCategoryStore struct {
	byID     map[uuid.UUID]*models.Category
	products map[uuid.UUID]int64
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{
		byID:     map[uuid.UUID]*models.Category{},
		products: map[uuid.UUID]int64{},
	}
}

func (f *fakeCategoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := f.byID[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range f.byID {
		if c.Slug == slug {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryStore) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.byID {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCategoryStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	c.ID = uuid.New()
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCategoryStore) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeCategoryStore) CountProducts(_ context.Context, id uuid.UUID) (int64, error) {
	return f.products[id], nil
}

func (f *fakeCategoryStore) CountChildren(_ context.Context, id uuid.UUID) (int64, error) {
	var count int64
	for _, c := range f.byID {
		if c.ParentID != nil && *c.ParentID == id {
			count++
		}
	}
	return count, nil
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestCreateCategoryNormalizesSlug(t *testing.T) {
	svc, err := NewService(newFakeCategoryStore())
	require.NoError(t, err)

	created, err := svc.CreateCategory(context.Background(), Input{Name: " Tees ", Slug: "  Graphic-Tees ", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "Tees", created.Name)
	require.Equal(t, "graphic-tees", created.Slug)
}

func TestCreateCategoryRejectsUnknownParent(t *testing.T) {
	svc, err := NewService(newFakeCategoryStore())
	require.NoError(t, err)

	parentID := uuid.New()
	_, err = svc.CreateCategory(context.Background(), Input{Name: "Tees", Slug: "tees", ParentID: &parentID})
	requireCode(t, err, pkgerrors.CodeValidation)
	require.True(t, strings.Contains(err.Error(), "parent"))
}

func TestGetCategoryBySlugHidesInactive(t *testing.T) {
	store := newFakeCategoryStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	created, err := svc.CreateCategory(context.Background(), Input{Name: "Tees", Slug: "tees", IsActive: false})
	require.NoError(t, err)

	_, err = svc.GetCategoryBySlug(context.Background(), created.Slug)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteCategoryGuards(t *testing.T) {
	store := newFakeCategoryStore()
	svc, err := NewService(store)
	require.NoError(t, err)
	ctx := context.Background()

	parent, err := svc.CreateCategory(ctx, Input{Name: "Apparel", Slug: "apparel", IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, Input{Name: "Tees", Slug: "tees", ParentID: &parent.ID, IsActive: true})
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, parent.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	loner, err := svc.CreateCategory(ctx, Input{Name: "Mugs", Slug: "mugs", IsActive: true})
	require.NoError(t, err)
	store.products[loner.ID] = 3
	err = svc.DeleteCategory(ctx, loner.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	store.products[loner.ID] = 0
	require.NoError(t, svc.DeleteCategory(ctx, loner.ID))
}

func TestCategoryTreeNestsChildren(t *testing.T) {
	store := newFakeCategoryStore()
	svc, err := NewService(store)
	require.NoError(t, err)
	ctx := context.Background()

	parent, err := svc.CreateCategory(ctx, Input{Name: "Apparel", Slug: "apparel", IsActive: true})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, Input{Name: "Tees", Slug: "tees", ParentID: &parent.ID, IsActive: true})
	require.NoError(t, err)

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, parent.ID, tree[0].Category.ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, child.ID, tree[0].Children[0].Category.ID)
}
