package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/internal/cart"
	coupon "github.com/inkmint/inkmint-backend/internal/coupons"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
	"github.com/inkmint/inkmint-backend/pkg/metrics"
	"github.com/inkmint/inkmint-backend/pkg/razorpay"
	"github.com/inkmint/inkmint-backend/pkg/types"
)

const contactSupportSuffix = "contact support if any amount was deducted"

// InitiateInput starts a checkout for the caller's current cart.
type InitiateInput struct {
	AddressID  uuid.UUID
	CouponCode *string
}

// AmountBreakdown is the charge composition frozen at initiation.
type AmountBreakdown struct {
	SubtotalCents int `json:"subtotal_cents"`
	DiscountCents int `json:"discount_cents"`
	ShippingCents int `json:"shipping_cents"`
	TaxCents      int `json:"tax_cents"`
	TotalCents    int `json:"total_cents"`
}

// InitiateResult carries everything the client needs to open the
// payment widget. No domain order exists yet at this point.
type InitiateResult struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	AmountCents    int             `json:"amount_cents"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
	Breakdown      AmountBreakdown `json:"breakdown"`
}

// VerifyInput is the callback payload the client echoes after paying.
type VerifyInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// Service runs the two-phase checkout: initiation prices the cart and
// opens a gateway order, verification authenticates the callback and
// materializes the domain order.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, input InitiateInput) (*InitiateResult, error)
	Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error)
}

type cartReader interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cart.Summary, error)
}

type addressReader interface {
	FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type couponAssessor interface {
	AssessCode(ctx context.Context, code string, lines []cart.Line, subtotalCents int) (*coupon.Result, error)
}

type couponRedeemer interface {
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type orderStore interface {
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error)
}

type lineRemover interface {
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, amountCents int, receipt string, notes map[string]string) (*razorpay.GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	Currency() string
}

type attemptStore interface {
	StashPaymentAttempt(ctx context.Context, gatewayOrderID string, payload string, ttl time.Duration) error
	GetPaymentAttempt(ctx context.Context, gatewayOrderID string) (string, error)
	DropPaymentAttempt(ctx context.Context, gatewayOrderID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	carts     cartReader
	addresses addressReader
	coupons   couponAssessor
	redeemer  couponRedeemer
	orders    orderStore
	cartLines lineRemover
	gateway   paymentGateway
	attempts  attemptStore
	tx        txRunner
	cfg       config.CheckoutConfig
	keyID     string
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the checkout flow. metrics and logg may be nil.
func NewService(
	carts cartReader,
	addresses addressReader,
	coupons couponAssessor,
	redeemer couponRedeemer,
	orders orderStore,
	cartLines lineRemover,
	gateway paymentGateway,
	attempts attemptStore,
	tx txRunner,
	cfg config.CheckoutConfig,
	keyID string,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address reader required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon assessor required")
	}
	if redeemer == nil {
		return nil, fmt.Errorf("coupon redeemer required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if cartLines == nil {
		return nil, fmt.Errorf("cart line remover required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		carts:     carts,
		addresses: addresses,
		coupons:   coupons,
		redeemer:  redeemer,
		orders:    orders,
		cartLines: cartLines,
		gateway:   gateway,
		attempts:  attempts,
		tx:        tx,
		cfg:       cfg,
		keyID:     keyID,
		metrics:   checkoutMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Initiate prices the current cart, opens a gateway order for the total
// and stashes the authorized snapshot for later reconciliation. Nothing
// is written to the orders table here.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, input InitiateInput) (*InitiateResult, error) {
	summary, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		s.metrics.IncInitiated("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if summary.HasUnavailableLines() {
		s.metrics.IncInitiated("unavailable_lines")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "some items in the cart are no longer available, remove them to continue")
	}

	address, err := s.addresses.FindForUser(ctx, userID, input.AddressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.IncInitiated("missing_address")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shipping address")
	}

	discount := 0
	var couponID *uuid.UUID
	var couponCode *string
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		result, err := s.coupons.AssessCode(ctx, *input.CouponCode, summary.Lines, summary.SubtotalCents)
		if err != nil {
			return nil, err
		}
		if result.Invalid() {
			s.metrics.IncInitiated("coupon_invalid")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, result.Message)
		}
		// A partially valid coupon proceeds with the discount it
		// earned over the eligible lines.
		discount = result.DiscountCents
		couponID = &result.Coupon.ID
		couponCode = &result.Coupon.Code
	}

	breakdown := s.priceOrder(summary.SubtotalCents, discount)

	gatewayOrder, err := s.gateway.CreateOrder(ctx, breakdown.TotalCents, newReceipt(), map[string]string{
		"user_id": userID.String(),
	})
	if err != nil {
		s.metrics.IncInitiated("gateway_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "creating payment order")
	}

	attempt := &paymentAttempt{
		UserID:          userID,
		ShippingAddress: shippingAddressOf(address),
		CouponID:        couponID,
		CouponCode:      couponCode,
		Lines:           attemptLinesOf(summary.Lines),
		SubtotalCents:   breakdown.SubtotalCents,
		DiscountCents:   breakdown.DiscountCents,
		ShippingCents:   breakdown.ShippingCents,
		TaxCents:        breakdown.TaxCents,
		TotalCents:      breakdown.TotalCents,
		InitiatedAt:     s.now().UTC(),
	}
	payload, err := attempt.encode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout state")
	}
	if err := s.attempts.StashPaymentAttempt(ctx, gatewayOrder.ID, payload, s.cfg.PaymentAttemptTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stashing checkout state")
	}

	s.metrics.IncInitiated("ok")
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"gateway_order_id": gatewayOrder.ID,
			"total_cents":      breakdown.TotalCents,
		}), "checkout initiated")
	}

	return &InitiateResult{
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    breakdown.TotalCents,
		Currency:       s.gateway.Currency(),
		KeyID:          s.keyID,
		Breakdown:      breakdown,
	}, nil
}

// Verify authenticates the payment callback and, on success, turns the
// stashed checkout into a persisted order. The signature check and the
// cart reconciliation both fail closed: nothing is written unless the
// callback matches exactly what was authorized.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id and signature are required")
	}

	// A replayed callback for an already materialized order is answered
	// with that order rather than re-running the reconciliation. This
	// lookup intentionally precedes the signature check: the caller is
	// authenticated and must own the order, and the first verification
	// already proved the signature before anything was written.
	existing, err := s.orders.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err == nil {
		if existing.UserID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		s.metrics.IncVerified("replay")
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking for existing order")
	}

	raw, err := s.attempts.GetPaymentAttempt(ctx, input.GatewayOrderID)
	if errors.Is(err, goredis.Nil) {
		s.metrics.IncVerified("attempt_expired")
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "this checkout session has expired, "+contactSupportSuffix)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout state")
	}
	attempt, err := decodeAttempt(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout state")
	}
	if attempt.UserID != userID {
		s.metrics.IncVerified("user_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "payment could not be verified, "+contactSupportSuffix)
	}

	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncVerified("signature_mismatch")
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "gateway_order_id", input.GatewayOrderID), "payment signature mismatch")
		}
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "payment signature mismatch, "+contactSupportSuffix)
	}

	reconciledIDs, err := s.reconcileCart(ctx, userID, attempt)
	if err != nil {
		s.metrics.IncVerified("cart_drift")
		return nil, err
	}

	orderNumber, err := newOrderNumber(s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
	}
	order := orderFromAttempt(attempt, userID, orderNumber, input.GatewayOrderID, input.GatewayPaymentID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		if err := s.cartLines.DeleteByIDs(ctx, tx, reconciledIDs); err != nil {
			return fmt.Errorf("clearing reconciled cart lines: %w", err)
		}
		if attempt.CouponID != nil {
			if err := s.redeemer.IncrementUsage(ctx, tx, *attempt.CouponID); err != nil {
				return fmt.Errorf("recording coupon redemption: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncVerified("persist_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "materializing order")
	}

	// Best effort. The stash expires on its own and a replay is caught
	// by the gateway order id lookup above.
	if err := s.attempts.DropPaymentAttempt(ctx, input.GatewayOrderID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "gateway_order_id", input.GatewayOrderID), "dropping payment attempt stash failed")
	}

	s.metrics.IncVerified("ok")
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":         order.ID.String(),
			"order_number":     order.OrderNumber,
			"gateway_order_id": input.GatewayOrderID,
		}), "order materialized")
	}
	return order, nil
}

// reconcileCart confirms the live cart still matches the authorized
// snapshot line by line. Any drift in quantity or unit price since
// initiation invalidates the whole verification.
func (s *service) reconcileCart(ctx context.Context, userID uuid.UUID, attempt *paymentAttempt) ([]uuid.UUID, error) {
	summary, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	liveByID := make(map[uuid.UUID]cart.Line, len(summary.Lines))
	for _, line := range summary.Lines {
		liveByID[line.CartItemID] = line
	}

	ids := make([]uuid.UUID, 0, len(attempt.Lines))
	for _, authorized := range attempt.Lines {
		live, ok := liveByID[authorized.CartItemID]
		if !ok || live.Unavailable ||
			live.Quantity != authorized.Quantity ||
			live.UnitPriceCents != authorized.UnitPriceCents {
			return nil, pkgerrors.New(pkgerrors.CodeVerification,
				"the cart changed while the payment was in progress, "+contactSupportSuffix)
		}
		ids = append(ids, authorized.CartItemID)
	}
	return ids, nil
}

// priceOrder derives shipping and tax from the discounted subtotal.
func (s *service) priceOrder(subtotalCents, discountCents int) AmountBreakdown {
	if discountCents > subtotalCents {
		discountCents = subtotalCents
	}
	discounted := subtotalCents - discountCents

	shipping := s.cfg.ShippingFlatCents
	if discounted >= s.cfg.FreeShippingMinCents {
		shipping = 0
	}

	tax := int(decimal.NewFromInt(int64(discounted)).
		Mul(decimal.NewFromFloat(s.cfg.TaxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).IntPart())

	return AmountBreakdown{
		SubtotalCents: subtotalCents,
		DiscountCents: discountCents,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    discounted + shipping + tax,
	}
}

func attemptLinesOf(lines []cart.Line) []attemptLine {
	out := make([]attemptLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, attemptLine{
			CartItemID:     line.CartItemID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Title:          line.Title,
			VariantName:    line.VariantName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			DesignRefs:     line.DesignRefs,
		})
	}
	return out
}

func shippingAddressOf(address *models.Address) types.Address {
	return types.Address{
		Name:       address.Name,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
		Phone:      address.Phone,
	}
}

func orderFromAttempt(attempt *paymentAttempt, userID uuid.UUID, orderNumber, gatewayOrderID, gatewayPaymentID string) *models.Order {
	items := make([]models.OrderItem, 0, len(attempt.Lines))
	for _, line := range attempt.Lines {
		productID := line.ProductID
		var name *string
		if line.VariantName != nil {
			v := *line.VariantName
			name = &v
		}
		items = append(items, models.OrderItem{
			ProductID:      &productID,
			Title:          line.Title,
			VariantName:    name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.UnitPriceCents * line.Quantity,
			DesignRefs:     line.DesignRefs,
		})
	}

	return &models.Order{
		OrderNumber:      orderNumber,
		UserID:           userID,
		Items:            items,
		ShippingAddress:  attempt.ShippingAddress,
		SubtotalCents:    attempt.SubtotalCents,
		DiscountCents:    attempt.DiscountCents,
		ShippingCents:    attempt.ShippingCents,
		TaxCents:         attempt.TaxCents,
		TotalCents:       attempt.TotalCents,
		CouponCode:       attempt.CouponCode,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		PaymentStatus:    enums.PaymentStatusSuccess,
		Status:           enums.OrderStatusProcessing,
	}
}

func newReceipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
