package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Outbound request headers
const (
	HeaderSignature  = "X-Webhook-Signature"
	HeaderEvent      = "X-Webhook-Event"
	HeaderDeliveryID = "X-Webhook-Delivery-Id"
	HeaderAttempt    = "X-Webhook-Attempt"
	HeaderTimestamp  = "X-Webhook-Timestamp"
)

const signaturePrefix = "sha256="

// Sign returns "sha256=" followed by the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return signaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature header value in constant time. Receivers can use it
// to authenticate deliveries.
func Verify(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}
