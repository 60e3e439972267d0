package review

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

// Input is the payload for leaving a review.
type Input struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Title  *string `json:"title,omitempty"`
	Body   *string `json:"body,omitempty"`
}

// RatingSummary aggregates the approved ratings on a product.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Service covers customer reviews and their moderation. One review per
// user per product; nothing shows on the storefront until approved.
type Service interface {
	CreateReview(ctx context.Context, userID, productID uuid.UUID, input Input) (*models.Review, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	ProductRating(ctx context.Context, productID uuid.UUID) (*RatingSummary, error)

	ListPendingReviews(ctx context.Context) ([]models.Review, error)
	ApproveReview(ctx context.Context, id uuid.UUID) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type reviewStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]models.Review, error)
	ListPending(ctx context.Context) ([]models.Review, error)
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	AverageRating(ctx context.Context, productID uuid.UUID) (float64, int64, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     reviewStore
	products productReader
}

// NewService constructs a review service instance.
func NewService(repo reviewStore, products productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) CreateReview(ctx context.Context, userID, productID uuid.UUID, input Input) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

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

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     trimPtr(input.Title),
		Body:      trimPtr(input.Body),
	}
	created, err := s.repo.Create(ctx, review)
	if err != nil {
		if db.IsUniqueViolation(err, "reviews_product_user_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating review")
	}
	return created, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reviews")
	}
	return reviews, nil
}

func (s *service) ProductRating(ctx context.Context, productID uuid.UUID) (*RatingSummary, error) {
	avg, count, err := s.repo.AverageRating(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating ratings")
	}
	return &RatingSummary{Average: avg, Count: count}, nil
}

func (s *service) ListPendingReviews(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing pending reviews")
	}
	return reviews, nil
}

func (s *service) ApproveReview(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getReview(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approving review")
	}
	return nil
}

func (s *service) DeleteReview(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getReview(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting review")
	}
	return nil
}

func (s *service) getReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading review")
	}
	return review, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
