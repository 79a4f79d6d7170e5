// Package otp issues and verifies short-lived numeric one-time codes.
//
// Codes are never persisted in plaintext: the store only holds a keyed
// HMAC-SHA256 digest under a namespaced key, with the store's own TTL as the
// expiry mechanism. A successful verification deletes the record, so every
// code is single use.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/metrics"
)

const (
	// DefaultTTL is used when the engine is built without an explicit TTL.
	DefaultTTL = 300 * time.Second

	codeDigits = 6

	loginPrefix    = "otp:"
	deliveryPrefix = "delivery_otp:"
)

var (
	// ErrNotFoundOrExpired covers both a code that was never issued and one
	// whose TTL lapsed.
	ErrNotFoundOrExpired = apperr.InvalidInput("OTP not found or expired")

	// ErrMismatch is returned when the candidate does not match the stored code.
	ErrMismatch = apperr.InvalidInput("Invalid OTP")
)

var codeSpace = big.NewInt(1_000_000)

// Store persists hashed codes with a TTL.
type Store interface {
	// Set stores hash under key for ttl, replacing any existing record.
	Set(ctx context.Context, key, hash string, ttl time.Duration) error
	// Get returns the stored hash or ErrNotFoundOrExpired.
	Get(ctx context.Context, key string) (string, error)
	// DeleteIfMatch atomically removes key only while it still holds hash.
	// It reports whether this call performed the delete.
	DeleteIfMatch(ctx context.Context, key, hash string) (bool, error)
}

// LoginKey namespaces a login code for a normalized phone.
func LoginKey(phone string) string {
	return loginPrefix + phone
}

// DeliveryKey namespaces a delivery confirmation code for an order.
func DeliveryKey(orderID string) string {
	return deliveryPrefix + orderID
}

// Engine generates, stores and verifies one-time codes.
type Engine struct {
	store  Store
	hasher *HMACHasher
	ttl    time.Duration
}

// NewEngine builds an Engine. A non-positive ttl falls back to DefaultTTL.
func NewEngine(store Store, hasher *HMACHasher, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{store: store, hasher: hasher, ttl: ttl}
}

// TTL returns the standard code lifetime.
func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Issue generates a fresh code, stores its digest under key and returns the
// plaintext for out-of-band delivery. A non-positive ttl uses the engine TTL.
func (e *Engine) Issue(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = e.ttl
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	if err := e.store.Set(ctx, key, e.hasher.Hash(code), ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	metrics.OTPIssued.WithLabelValues(purpose(key)).Inc()
	return code, nil
}

// Verify checks candidate against the record under key and consumes the
// record on success. A wrong candidate leaves the record in place.
func (e *Engine) Verify(ctx context.Context, key, candidate string) error {
	result := "error"
	defer func() {
		metrics.OTPVerifications.WithLabelValues(purpose(key), result).Inc()
	}()

	stored, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFoundOrExpired) {
			result = "not_found"
			return ErrNotFoundOrExpired
		}
		return fmt.Errorf("load otp: %w", err)
	}

	if !e.hasher.Equal(stored, candidate) {
		result = "mismatch"
		return ErrMismatch
	}

	deleted, err := e.store.DeleteIfMatch(ctx, key, stored)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !deleted {
		// A concurrent verifier consumed the record first.
		result = "not_found"
		return ErrNotFoundOrExpired
	}

	result = "ok"
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func purpose(key string) string {
	switch {
	case strings.HasPrefix(key, deliveryPrefix):
		return "delivery"
	case strings.HasPrefix(key, loginPrefix):
		return "login"
	default:
		return "other"
	}
}
