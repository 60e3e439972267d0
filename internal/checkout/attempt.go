package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/pkg/types"
)

// attemptLine is the authorized snapshot of one cart line. Verification
// reconciles the live cart against these values before materializing.
type attemptLine struct {
	CartItemID     uuid.UUID  `json:"cart_item_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Title          string     `json:"title"`
	VariantName    *string    `json:"variant_name,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	DesignRefs     []string   `json:"design_refs,omitempty"`
}

// paymentAttempt is the transient checkout state stashed in Redis for
// the lifetime of the gateway widget, keyed by gateway order id.
type paymentAttempt struct {
	UserID          uuid.UUID     `json:"user_id"`
	ShippingAddress types.Address `json:"shipping_address"`
	CouponID        *uuid.UUID    `json:"coupon_id,omitempty"`
	CouponCode      *string       `json:"coupon_code,omitempty"`
	Lines           []attemptLine `json:"lines"`
	SubtotalCents   int           `json:"subtotal_cents"`
	DiscountCents   int           `json:"discount_cents"`
	ShippingCents   int           `json:"shipping_cents"`
	TaxCents        int           `json:"tax_cents"`
	TotalCents      int           `json:"total_cents"`
	InitiatedAt     time.Time     `json:"initiated_at"`
}

func (a *paymentAttempt) encode() (string, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encoding payment attempt: %w", err)
	}
	return string(raw), nil
}

func decodeAttempt(raw string) (*paymentAttempt, error) {
	var attempt paymentAttempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return nil, fmt.Errorf("decoding payment attempt: %w", err)
	}
	return &attempt, nil
}

// newOrderNumber produces a human-quotable order reference.
func newOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	return fmt.Sprintf("INK-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}
