package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
)

const (
	phoneLocal  = "phone"
	claimsLocal = "claims"
)

// Authenticator validates a bearer token and returns its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Claims, error)
}

// JWTAuth returns a middleware that validates bearer access tokens and
// attaches the caller identity to the request.
func JWTAuth(authenticator Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := authenticator.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			return apperr.Fiber(err)
		}

		c.Locals(phoneLocal, claims.Subject)
		c.Locals(claimsLocal, claims)
		c.SetUserContext(auth.WithClaims(c.UserContext(), claims))
		return c.Next()
	}
}

// Phone returns the identity set by JWTAuth.
func Phone(c *fiber.Ctx) string {
	phone, _ := c.Locals(phoneLocal).(string)
	return phone
}
