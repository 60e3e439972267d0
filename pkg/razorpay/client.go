package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpaysdk "github.com/razorpay/razorpay-go"

	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

// GatewayOrder is the gateway-side order created before the shopper pays.
// Its ID is the reconciliation handle the client echoes back at verification.
type GatewayOrder struct {
	ID          string
	AmountCents int
	Currency    string
	Receipt     string
}

// Client wraps the Razorpay SDK plus the signing secret used for
// payment signature verification.
type Client struct {
	api       *razorpaysdk.Client
	keySecret string
	currency  string
}

// NewClient initializes the Razorpay SDK once with the configured credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	api := razorpaysdk.NewClient(keyID, keySecret)

	if logg != nil {
		logg.Info(ctx, "razorpay client initialized")
	}

	return &Client{
		api:       api,
		keySecret: keySecret,
		currency:  cfg.Currency,
	}, nil
}

// CreateOrder registers an order with the gateway for the given amount.
// The notes map travels to the Razorpay dashboard verbatim.
func (c *Client) CreateOrder(ctx context.Context, amountCents int, receipt string, notes map[string]string) (*GatewayOrder, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amountCents)
	}

	data := map[string]interface{}{
		"amount":   amountCents,
		"currency": c.currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		noteData := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			noteData[k] = v
		}
		data["notes"] = noteData
	}

	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("creating razorpay order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order response missing id")
	}

	return &GatewayOrder{
		ID:          id,
		AmountCents: amountCents,
		Currency:    c.currency,
		Receipt:     receipt,
	}, nil
}

// VerifyPaymentSignature checks the client-supplied signature against the
// order/payment pair using this client's key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c == nil {
		return false
	}
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

// Currency reports the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}
