package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/internal/cart"
	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

// Service exposes coupon validation plus back-office management.
type Service interface {
	// ValidateForUser assesses a code against the user's current cart.
	// Ordinary ineligibility comes back as an invalid Result, not an error.
	ValidateForUser(ctx context.Context, userID uuid.UUID, code string) (*Result, error)
	// AssessCode assesses a code against already-aggregated lines.
	AssessCode(ctx context.Context, code string, lines []cart.Line, subtotalCents int) (*Result, error)

	CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
}

// CouponInput is the validated payload for creating or replacing a coupon.
type CouponInput struct {
	Code             string
	Description      *string
	DiscountType     enums.DiscountType
	DiscountValue    int
	MinPurchaseCents *int
	MaxDiscountCents *int
	Scope            enums.CouponScope
	ScopeCategoryID  *uuid.UUID
	ScopeProductID   *uuid.UUID
	StartsAt         *time.Time
	ExpiresAt        *time.Time
	UsageLimit       *int
	IsActive         bool
}

type couponStore interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartReader interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cart.Summary, error)
}

type service struct {
	repo  couponStore
	carts cartReader
	now   func() time.Time
}

// NewService constructs a coupon service instance.
func NewService(repo couponStore, carts cartReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	return &service{repo: repo, carts: carts, now: time.Now}, nil
}

func (s *service) ValidateForUser(ctx context.Context, userID uuid.UUID, code string) (*Result, error) {
	summary, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.AssessCode(ctx, code, summary.Lines, summary.SubtotalCents)
}

func (s *service) AssessCode(ctx context.Context, code string, lines []cart.Line, subtotalCents int) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return invalidResult(nil, "coupon code is required"), nil
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalidResult(nil, "coupon not found"), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	return Assess(coupon, lines, subtotalCents, s.now()), nil
}

func (s *service) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon := couponFromInput(input)
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "coupons_code_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a coupon with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating coupon")
	}
	return created, nil
}

func (s *service) UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	applyCouponInput(existing, input)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "coupons_code_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a coupon with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating coupon")
	}
	return updated, nil
}

func (s *service) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCoupon(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting coupon")
	}
	return nil
}

func (s *service) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	return coupon, nil
}

func (s *service) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing coupons")
	}
	return coupons, nil
}

func validateCouponInput(input CouponInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if !input.Scope.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon scope")
	}
	if input.Scope == enums.CouponScopeCategory && input.ScopeCategoryID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category-scoped coupon requires a category id")
	}
	if input.Scope == enums.CouponScopeProduct && input.ScopeProductID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product-scoped coupon requires a product id")
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be after the start date")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}
	return nil
}

func couponFromInput(input CouponInput) *models.Coupon {
	coupon := &models.Coupon{}
	applyCouponInput(coupon, input)
	return coupon
}

func applyCouponInput(coupon *models.Coupon, input CouponInput) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	coupon.Description = input.Description
	coupon.DiscountType = input.DiscountType
	coupon.DiscountValue = input.DiscountValue
	coupon.MinPurchaseCents = input.MinPurchaseCents
	coupon.MaxDiscountCents = input.MaxDiscountCents
	coupon.Scope = input.Scope
	coupon.ScopeCategoryID = nil
	coupon.ScopeProductID = nil
	switch input.Scope {
	case enums.CouponScopeCategory:
		coupon.ScopeCategoryID = input.ScopeCategoryID
	case enums.CouponScopeProduct:
		coupon.ScopeProductID = input.ScopeProductID
	}
	coupon.StartsAt = input.StartsAt
	coupon.ExpiresAt = input.ExpiresAt
	coupon.UsageLimit = input.UsageLimit
	coupon.IsActive = input.IsActive
}
