package coupon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkmint/inkmint-backend/internal/cart"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
)

// LineAssessment is a cart line excluded from the discount base plus
// the human-readable reason shown to the shopper.
type LineAssessment struct {
	Line   cart.Line
	Reason string
}

// Result is the outcome of assessing a coupon against a cart. Ordinary
// ineligibility is a normal, displayed outcome, never an error.
type Result struct {
	Coupon          *models.Coupon
	Validity        enums.CouponValidity
	DiscountCents   int
	EligibleLines   []cart.Line
	IneligibleLines []LineAssessment
	Message         string
}

// Invalid reports whether the coupon yields no discount at all.
func (r *Result) Invalid() bool {
	return r.Validity == enums.CouponValidityInvalid
}

func invalidResult(coupon *models.Coupon, message string) *Result {
	return &Result{
		Coupon:   coupon,
		Validity: enums.CouponValidityInvalid,
		Message:  message,
	}
}

// Assess partitions the cart lines by the coupon's scope and computes
// the discount over the eligible subset only. subtotalCents is the
// running subtotal of all purchasable lines and is what the minimum
// purchase threshold is checked against.
func Assess(coupon *models.Coupon, lines []cart.Line, subtotalCents int, now time.Time) *Result {
	if coupon == nil {
		return invalidResult(nil, "coupon not found")
	}
	if !coupon.IsActive {
		return invalidResult(coupon, "this coupon is no longer active")
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return invalidResult(coupon, "this coupon is not active yet")
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return invalidResult(coupon, "this coupon has expired")
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return invalidResult(coupon, "this coupon has reached its redemption limit")
	}
	if coupon.MinPurchaseCents != nil && subtotalCents < *coupon.MinPurchaseCents {
		return invalidResult(coupon, fmt.Sprintf(
			"order subtotal does not meet the %s minimum for this coupon",
			formatCents(*coupon.MinPurchaseCents)))
	}

	eligible, ineligible := partitionLines(coupon, lines)
	if len(eligible) == 0 {
		return invalidResult(coupon, "no items in the cart are eligible for this coupon")
	}

	var eligibleSubtotal int
	for _, line := range eligible {
		eligibleSubtotal += line.LineTotalCents
	}

	discount := discountCents(coupon, eligibleSubtotal)
	if discount <= 0 {
		return invalidResult(coupon, "this coupon does not apply to the current cart")
	}

	result := &Result{
		Coupon:          coupon,
		Validity:        enums.CouponValidityFull,
		DiscountCents:   discount,
		EligibleLines:   eligible,
		IneligibleLines: ineligible,
	}
	if len(ineligible) > 0 {
		result.Validity = enums.CouponValidityPartial
		result.Message = "coupon applied to eligible items only"
	}
	return result
}

func partitionLines(coupon *models.Coupon, lines []cart.Line) ([]cart.Line, []LineAssessment) {
	var eligible []cart.Line
	var ineligible []LineAssessment

	for _, line := range lines {
		if line.Unavailable {
			ineligible = append(ineligible, LineAssessment{Line: line, Reason: line.UnavailableReason})
			continue
		}
		switch coupon.Scope {
		case enums.CouponScopeAll:
			eligible = append(eligible, line)
		case enums.CouponScopeCategory:
			if coupon.ScopeCategoryID != nil && line.CategoryID == *coupon.ScopeCategoryID {
				eligible = append(eligible, line)
			} else {
				ineligible = append(ineligible, LineAssessment{
					Line:   line,
					Reason: fmt.Sprintf("%s is outside the coupon's category", line.Title),
				})
			}
		case enums.CouponScopeProduct:
			if coupon.ScopeProductID != nil && line.ProductID == *coupon.ScopeProductID {
				eligible = append(eligible, line)
			} else {
				ineligible = append(ineligible, LineAssessment{
					Line:   line,
					Reason: fmt.Sprintf("the coupon does not apply to %s", line.Title),
				})
			}
		default:
			ineligible = append(ineligible, LineAssessment{
				Line:   line,
				Reason: "the coupon does not apply to this item",
			})
		}
	}
	return eligible, ineligible
}

// discountCents computes the raw discount over the eligible subtotal,
// clamped to the configured maximum and to the subtotal itself.
func discountCents(coupon *models.Coupon, eligibleSubtotalCents int) int {
	var discount int
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		d := decimal.NewFromInt(int64(eligibleSubtotalCents)).
			Mul(decimal.NewFromInt(int64(coupon.DiscountValue))).
			Div(decimal.NewFromInt(100)).
			Round(0)
		discount = int(d.IntPart())
	case enums.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return 0
	}

	if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
		discount = *coupon.MaxDiscountCents
	}
	if discount > eligibleSubtotalCents {
		discount = eligibleSubtotalCents
	}
	return discount
}

func formatCents(cents int) string {
	d := decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
	return d.StringFixed(2)
}
