package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/clock"
)

const (
	tokenTypeAccess = "access"
	minSecretLength = 32
)

var (
	// ErrExpired is returned for a well-formed token past its expiry.
	ErrExpired = apperr.Unauthorized("Token expired")
	// ErrInvalid is returned for any signature, structure or claim failure.
	ErrInvalid = apperr.Unauthorized("Invalid token")
	// ErrRevoked is returned for a token whose id is on the denylist.
	ErrRevoked = apperr.Unauthorized("Token revoked")

	// ErrSecretTooShort guards against weak HS256 keys.
	ErrSecretTooShort = errors.New("jwt secret must be at least 32 bytes")
)

// Claims are the access token claims. Subject holds the E.164 identity.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// Credential is a freshly minted access token.
type Credential struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	Secret []byte
	TTL    time.Duration
	Clock  clock.Clock
	// Denylist is optional; without it tokens cannot be revoked.
	Denylist Denylist
}

// Issuer mints and validates HS256 access tokens.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	clock    clock.Clock
	denylist Denylist
}

// NewIssuer validates cfg and builds an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Issuer{secret: cfg.Secret, ttl: cfg.TTL, clock: cfg.Clock, denylist: cfg.Denylist}, nil
}

// TTL returns the access token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for identity.
func (i *Issuer) Issue(identity string) (Credential, error) {
	now := i.clock.Now()
	exp := now.Add(i.ttl)
	jti := uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: tokenTypeAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Credential{}, fmt.Errorf("sign token: %w", err)
	}
	return Credential{Token: signed, TokenID: jti, ExpiresAt: exp}, nil
}

// Authenticate verifies the signature, time claims, token type and
// revocation status, and returns the claims.
func (i *Issuer) Authenticate(ctx context.Context, token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}
	if !parsed.Valid || claims.Type != tokenTypeAccess || claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrInvalid
	}

	if i.denylist != nil {
		revoked, err := i.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Claims{}, ErrRevoked
		}
	}

	return claims, nil
}

// Revoke denylists the token for the rest of its lifetime.
func (i *Issuer) Revoke(ctx context.Context, claims Claims) error {
	if i.denylist == nil {
		return fmt.Errorf("token revocation is not configured")
	}
	if claims.ExpiresAt == nil {
		return ErrInvalid
	}
	remaining := claims.ExpiresAt.Sub(i.clock.Now())
	if remaining <= 0 {
		return nil
	}
	return i.denylist.Revoke(ctx, claims.ID, remaining)
}
