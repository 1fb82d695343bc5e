package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	t.Parallel()

	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-001"}}`)

	if !ValidSignature(secret, body, sign(secret, body)) {
		t.Error("correctly signed payload should validate")
	}
}

func TestValidSignatureRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"charge.success"}`)

	if ValidSignature("sk_test_secret", body, sign("sk_other_secret", body)) {
		t.Error("signature from a different secret should not validate")
	}
}

func TestValidSignatureRejectsTamperedBody(t *testing.T) {
	t.Parallel()

	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"amount":5000}}`)
	signature := sign(secret, body)

	tampered := []byte(`{"event":"charge.success","data":{"amount":9999}}`)
	if ValidSignature(secret, tampered, signature) {
		t.Error("tampered payload should not validate")
	}
}

func TestValidSignatureRejectsEmptySignature(t *testing.T) {
	t.Parallel()

	if ValidSignature("sk_test_secret", []byte(`{}`), "") {
		t.Error("empty signature should not validate")
	}
}
