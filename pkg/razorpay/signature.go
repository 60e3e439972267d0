package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment computes the hex HMAC-SHA256 of "orderID|paymentID" under
// the key secret. This is the signature Razorpay hands the client after
// a successful payment.
func SignPayment(keySecret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the provided signature matches the
// expected HMAC for the order/payment pair. Comparison is constant time.
func VerifySignature(keySecret, orderID, paymentID, signature string) bool {
	if keySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := SignPayment(keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
