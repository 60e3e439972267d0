package razorpay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	sig := SignPayment("test_secret", "order_123", "pay_456")
	require.NotEmpty(t, sig)
	require.True(t, VerifySignature("test_secret", "order_123", "pay_456", sig))
}

func TestVerifySignatureRejectsTamper(t *testing.T) {
	sig := SignPayment("test_secret", "order_123", "pay_456")

	require.False(t, VerifySignature("test_secret", "order_999", "pay_456", sig), "different order id must fail")
	require.False(t, VerifySignature("test_secret", "order_123", "pay_999", sig), "different payment id must fail")
	require.False(t, VerifySignature("other_secret", "order_123", "pay_456", sig), "different secret must fail")
	require.False(t, VerifySignature("test_secret", "order_123", "pay_456", sig+"ff"), "mangled signature must fail")
}

func TestVerifySignatureRejectsEmptyInputs(t *testing.T) {
	sig := SignPayment("test_secret", "order_123", "pay_456")

	require.False(t, VerifySignature("", "order_123", "pay_456", sig))
	require.False(t, VerifySignature("test_secret", "", "pay_456", sig))
	require.False(t, VerifySignature("test_secret", "order_123", "", sig))
	require.False(t, VerifySignature("test_secret", "order_123", "pay_456", ""))
}
