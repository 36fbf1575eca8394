package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"reference":"abc","amount_cents":990}`)
	secret := "test-webhook-secret"
	sig := signPayload(payload, secret)

	if !VerifyWebhookSignature(payload, sig, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if !VerifyWebhookSignature(payload, "sha256="+sig, secret) {
		t.Fatalf("expected prefixed signature to verify")
	}
}

func TestVerifyWebhookSignatureRejects(t *testing.T) {
	payload := []byte(`{"reference":"abc"}`)
	secret := "test-webhook-secret"
	sig := signPayload(payload, secret)

	tests := []struct {
		name    string
		payload []byte
		sig     string
		secret  string
	}{
		{name: "tampered payload", payload: []byte(`{"reference":"xyz"}`), sig: sig, secret: secret},
		{name: "wrong secret", payload: payload, sig: sig, secret: "other-secret"},
		{name: "empty signature", payload: payload, sig: "", secret: secret},
		{name: "empty secret", payload: payload, sig: sig, secret: ""},
		{name: "not hex", payload: payload, sig: "zz-not-hex", secret: secret},
	}

	for _, tt := range tests {
		if VerifyWebhookSignature(tt.payload, tt.sig, tt.secret) {
			t.Fatalf("%s: expected verification to fail", tt.name)
		}
	}
}
