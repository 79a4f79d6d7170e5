package otp

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACHasher computes hex-encoded HMAC-SHA256 digests with a server-held
// secret. Rotating the secret invalidates every outstanding code.
type HMACHasher struct {
	secret []byte
}

// NewHMACHasher creates a hasher keyed with secret.
func NewHMACHasher(secret []byte) *HMACHasher {
	return &HMACHasher{secret: secret}
}

// Hash returns the hex digest of value.
func (h *HMACHasher) Hash(value string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal reports whether candidate hashes to storedHex, in constant time.
func (h *HMACHasher) Equal(storedHex, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHex), []byte(h.Hash(candidate))) == 1
}
