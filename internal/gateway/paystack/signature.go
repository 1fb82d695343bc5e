package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader is the HTTP header carrying the webhook signature.
const SignatureHeader = "x-paystack-signature"

// ValidSignature verifies a webhook payload against its signature. The check
// runs over the raw request bytes, before any parsing, so a forged body can
// never reach the finalizer.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
