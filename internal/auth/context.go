package auth

import "context"

type claimsContextKey struct{}

// WithClaims stores authenticated claims in ctx.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(Claims)
	return claims, ok
}

// IdentityFrom returns the authenticated phone identity, or "" when the
// request was not authenticated.
func IdentityFrom(ctx context.Context) string {
	claims, ok := ClaimsFrom(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}
