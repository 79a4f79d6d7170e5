package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/logging"
)

func setupJWTApp(t *testing.T, clk clock.Clock) (*fiber.App, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Second,
		Clock:  clk,
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(logging.Discard())})
	app.Get("/whoami", JWTAuth(issuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"phone":    Phone(c),
			"identity": auth.IdentityFrom(c.UserContext()),
		})
	})
	return app, issuer
}

func whoami(t *testing.T, app *fiber.App, authz string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	app, issuer := setupJWTApp(t, clock.New())
	cred, err := issuer.Issue("+14155552671")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if status := whoami(t, app, "Bearer "+cred.Token); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if status := whoami(t, app, "bearer "+cred.Token); status != http.StatusOK {
		t.Fatalf("expected case-insensitive scheme, got %d", status)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	app, issuer := setupJWTApp(t, clk)
	cred, err := issuer.Issue("+14155552671")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(2 * time.Second)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not-a-token",
		"expired token":  "Bearer " + cred.Token,
	}
	for name, authz := range cases {
		t.Run(name, func(t *testing.T) {
			if status := whoami(t, app, authz); status != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", status)
			}
		})
	}
}
