package coupon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/internal/cart"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
)

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }
func uuidPtr(u uuid.UUID) *uuid.UUID { return &u }

func line(title string, categoryID, productID uuid.UUID, unitCents, qty int) cart.Line {
	return cart.Line{
		CartItemID:     uuid.New(),
		ProductID:      productID,
		CategoryID:     categoryID,
		Title:          title,
		Quantity:       qty,
		UnitPriceCents: unitCents,
		LineTotalCents: unitCents * qty,
	}
}

func percentCoupon(value int) *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: value,
		Scope:         enums.CouponScopeAll,
		IsActive:      true,
	}
}

func TestAssessWorkedExample(t *testing.T) {
	// cart = [{A, 100.00, qty 2}, {B, 50.00, qty 1}], subtotal 250.00
	// SAVE10 = 10% off, min purchase 100.00 -> discount 25.00
	catID := uuid.New()
	lines := []cart.Line{
		line("Product A", catID, uuid.New(), 10000, 2),
		line("Product B", catID, uuid.New(), 5000, 1),
	}
	coupon := percentCoupon(10)
	coupon.MinPurchaseCents = intPtr(10000)

	result := Assess(coupon, lines, 25000, time.Now())
	require.Equal(t, enums.CouponValidityFull, result.Validity)
	require.Equal(t, 2500, result.DiscountCents)
	require.Len(t, result.EligibleLines, 2)
	require.Empty(t, result.IneligibleLines)
}

func TestAssessMinPurchaseNotMet(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.MinPurchaseCents = intPtr(30000)

	lines := []cart.Line{line("Product A", uuid.New(), uuid.New(), 10000, 2)}
	result := Assess(coupon, lines, 20000, time.Now())

	require.True(t, result.Invalid())
	require.Zero(t, result.DiscountCents)
	require.Contains(t, result.Message, "minimum")
}

func TestAssessCategoryScopePartition(t *testing.T) {
	teesCategory := uuid.New()
	mugsCategory := uuid.New()
	lines := []cart.Line{
		line("Classic Tee", teesCategory, uuid.New(), 10000, 1),
		line("Logo Mug", mugsCategory, uuid.New(), 5000, 2),
	}

	coupon := percentCoupon(20)
	coupon.Scope = enums.CouponScopeCategory
	coupon.ScopeCategoryID = uuidPtr(teesCategory)

	result := Assess(coupon, lines, 20000, time.Now())
	require.Equal(t, enums.CouponValidityPartial, result.Validity)
	// 20% over the eligible 100.00 only
	require.Equal(t, 2000, result.DiscountCents)
	require.Len(t, result.EligibleLines, 1)
	require.Len(t, result.IneligibleLines, 1)
	require.Equal(t, "Logo Mug", result.IneligibleLines[0].Line.Title)
	require.NotEmpty(t, result.IneligibleLines[0].Reason)
}

func TestAssessProductScopeNoEligibleLines(t *testing.T) {
	coupon := percentCoupon(20)
	coupon.Scope = enums.CouponScopeProduct
	coupon.ScopeProductID = uuidPtr(uuid.New())

	lines := []cart.Line{line("Classic Tee", uuid.New(), uuid.New(), 10000, 1)}
	result := Assess(coupon, lines, 10000, time.Now())

	require.True(t, result.Invalid())
	require.Contains(t, result.Message, "eligible")
}

func TestAssessMaxDiscountClamp(t *testing.T) {
	coupon := percentCoupon(50)
	coupon.MaxDiscountCents = intPtr(1500)

	lines := []cart.Line{line("Classic Tee", uuid.New(), uuid.New(), 10000, 1)}
	result := Assess(coupon, lines, 10000, time.Now())

	require.Equal(t, enums.CouponValidityFull, result.Validity)
	require.Equal(t, 1500, result.DiscountCents)
}

func TestAssessFixedDiscountClampedToEligibleSubtotal(t *testing.T) {
	coupon := &models.Coupon{
		ID:            uuid.New(),
		Code:          "FLAT500",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 50000,
		Scope:         enums.CouponScopeAll,
		IsActive:      true,
	}

	lines := []cart.Line{line("Logo Mug", uuid.New(), uuid.New(), 5000, 1)}
	result := Assess(coupon, lines, 5000, time.Now())

	require.Equal(t, 5000, result.DiscountCents, "discount never exceeds what is being charged")
}

func TestAssessValidityWindowAndUsage(t *testing.T) {
	now := time.Now()

	expired := percentCoupon(10)
	expired.ExpiresAt = timePtr(now.Add(-time.Hour))
	result := Assess(expired, []cart.Line{line("A", uuid.New(), uuid.New(), 10000, 1)}, 10000, now)
	require.True(t, result.Invalid())
	require.Contains(t, result.Message, "expired")

	future := percentCoupon(10)
	future.StartsAt = timePtr(now.Add(time.Hour))
	result = Assess(future, []cart.Line{line("A", uuid.New(), uuid.New(), 10000, 1)}, 10000, now)
	require.True(t, result.Invalid())

	exhausted := percentCoupon(10)
	exhausted.UsageLimit = intPtr(5)
	exhausted.UsageCount = 5
	result = Assess(exhausted, []cart.Line{line("A", uuid.New(), uuid.New(), 10000, 1)}, 10000, now)
	require.True(t, result.Invalid())
	require.Contains(t, result.Message, "limit")

	inactive := percentCoupon(10)
	inactive.IsActive = false
	result = Assess(inactive, []cart.Line{line("A", uuid.New(), uuid.New(), 10000, 1)}, 10000, now)
	require.True(t, result.Invalid())
}

func TestAssessSkipsUnavailableLines(t *testing.T) {
	gone := line("Discontinued Tee", uuid.New(), uuid.New(), 4000, 1)
	gone.Unavailable = true
	gone.UnavailableReason = "product is no longer available"

	lines := []cart.Line{
		line("Classic Tee", uuid.New(), uuid.New(), 10000, 1),
		gone,
	}

	result := Assess(percentCoupon(10), lines, 10000, time.Now())
	require.Equal(t, enums.CouponValidityPartial, result.Validity)
	require.Equal(t, 1000, result.DiscountCents)
	require.Len(t, result.IneligibleLines, 1)
}

type fakeCouponStore struct {
	byCode map[string]*models.Coupon
}

func (f *fakeCouponStore) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	if c, ok := f.byCode[strings.ToLower(code)]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCouponStore) FindByID(context.Context, uuid.UUID) (*models.Coupon, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeCouponStore) List(context.Context) ([]models.Coupon, error) { return nil, nil }
func (f *fakeCouponStore) Create(_ context.Context, c *models.Coupon) (*models.Coupon, error) {
	return c, nil
}
func (f *fakeCouponStore) Update(_ context.Context, c *models.Coupon) (*models.Coupon, error) {
	return c, nil
}
func (f *fakeCouponStore) Delete(context.Context, uuid.UUID) error { return nil }

type staticCartReader struct {
	summary *cart.Summary
}

func (s *staticCartReader) GetCart(context.Context, uuid.UUID) (*cart.Summary, error) {
	return s.summary, nil
}

func TestAssessCodeUnknownCouponIsInvalidNotError(t *testing.T) {
	svc, err := NewService(&fakeCouponStore{byCode: map[string]*models.Coupon{}}, &staticCartReader{summary: &cart.Summary{}})
	require.NoError(t, err)

	result, err := svc.AssessCode(context.Background(), "NOPE", nil, 0)
	require.NoError(t, err, "unknown coupon is a displayed outcome, not an error")
	require.True(t, result.Invalid())
	require.Equal(t, "coupon not found", result.Message)
}

func TestValidateForUserUsesCurrentCart(t *testing.T) {
	catID := uuid.New()
	summary := &cart.Summary{
		Lines:         []cart.Line{line("Classic Tee", catID, uuid.New(), 10000, 2)},
		SubtotalCents: 20000,
	}
	store := &fakeCouponStore{byCode: map[string]*models.Coupon{"save10": percentCoupon(10)}}

	svc, err := NewService(store, &staticCartReader{summary: summary})
	require.NoError(t, err)

	result, err := svc.ValidateForUser(context.Background(), uuid.New(), "save10")
	require.NoError(t, err)
	require.Equal(t, enums.CouponValidityFull, result.Validity)
	require.Equal(t, 2000, result.DiscountCents)
}
