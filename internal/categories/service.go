package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

// Input is the payload for creating or replacing a category.
type Input struct {
	Name        string     `json:"name" validate:"required"`
	Slug        string     `json:"slug" validate:"required"`
	Description *string    `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// Node is a category with its direct children, for the storefront tree.
type Node struct {
	Category models.Category `json:"category"`
	Children []Node          `json:"children,omitempty"`
}

// Service exposes the storefront category tree plus back-office management.
type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	CategoryTree(ctx context.Context) ([]Node, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)

	CreateCategory(ctx context.Context, input Input) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input Input) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoryStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo categoryStore
}

// NewService constructs a category service instance.
func NewService(repo categoryStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	return categories, nil
}

// CategoryTree arranges active categories into parent/child nodes.
// Orphans whose parent is inactive surface as roots rather than vanish.
func (s *service) CategoryTree(ctx context.Context) ([]Node, error) {
	categories, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}

	present := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		present[c.ID] = true
	}

	childrenOf := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range categories {
		if c.ParentID != nil && present[*c.ParentID] {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	nodes := make([]Node, 0, len(roots))
	for _, root := range roots {
		node := Node{Category: root}
		for _, child := range childrenOf[root.ID] {
			node.Children = append(node.Children, Node{Category: child})
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(ctx, normalizeSlug(slug))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	if !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	return category, nil
}

func (s *service) CreateCategory(ctx context.Context, input Input) (*models.Category, error) {
	if err := s.validateInput(ctx, input, uuid.Nil); err != nil {
		return nil, err
	}

	category := &models.Category{}
	applyInput(category, input)
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "categories_slug_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input Input) (*models.Category, error) {
	if err := s.validateInput(ctx, input, id); err != nil {
		return nil, err
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	applyInput(category, input)
	updated, err := s.repo.Update(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "categories_slug_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}
	return updated, nil
}

// DeleteCategory refuses to orphan products or child categories.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}

	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting category products")
	}
	if products > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has products assigned")
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting child categories")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has child categories")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	return nil
}

func (s *service) validateInput(ctx context.Context, input Input, selfID uuid.UUID) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if normalizeSlug(input.Slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	if input.ParentID != nil {
		if *input.ParentID == selfID {
			return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
		}
		if _, err := s.GetCategory(ctx, *input.ParentID); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
			return err
		}
	}
	return nil
}

func applyInput(category *models.Category, input Input) {
	category.Name = strings.TrimSpace(input.Name)
	category.Slug = normalizeSlug(input.Slug)
	category.Description = input.Description
	category.ParentID = input.ParentID
	category.IsActive = input.IsActive
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
