package enums

import "fmt"

// CouponValidity is the outcome of validating a coupon against a cart.
type CouponValidity string

const (
	CouponValidityFull    CouponValidity = "fully_valid"
	CouponValidityPartial CouponValidity = "partially_valid"
	CouponValidityInvalid CouponValidity = "invalid"
)

var validCouponValidities = []CouponValidity{
	CouponValidityFull,
	CouponValidityPartial,
	CouponValidityInvalid,
}

// String implements fmt.Stringer.
func (c CouponValidity) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponValidity.
func (c CouponValidity) IsValid() bool {
	for _, candidate := range validCouponValidities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponValidity converts raw input into a CouponValidity.
func ParseCouponValidity(value string) (CouponValidity, error) {
	for _, candidate := range validCouponValidities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon validity %q", value)
}
