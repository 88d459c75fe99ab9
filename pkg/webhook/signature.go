package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the request header carrying the signature.
const SignatureHeader = "X-Webhook-Signature"

// Sign returns the hex-encoded HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks signature against payload in constant time. An optional
// "sha256=" prefix, as sent by several providers, is accepted.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return ErrMissingSignature
	}

	expected := Sign(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}
