package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateNonce returns a URL-safe random token, or "" if the system
// randomness source fails.
func GenerateNonce() string {
	b := make([]byte, 16) // 16 bytes = 128 bits
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// FallbackClientID builds the pseudo-identifier used when a visitor's
// address cannot be determined.
func FallbackClientID() string {
	n := GenerateNonce()
	if n == "" {
		return ""
	}
	return "anon-" + n
}
