package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/logging"
	"github.com/medicine-cart/medicine_cart/internal/notification"
	"github.com/medicine-cart/medicine_cart/internal/otp"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

type captureDispatcher struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (d *captureDispatcher) Dispatch(_ context.Context, message notification.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, message)
	return true
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (d *captureDispatcher) lastCode(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.messages) == 0 {
		t.Fatalf("no message dispatched")
	}
	code := codePattern.FindString(d.messages[len(d.messages)-1].Body)
	if code == "" {
		t.Fatalf("no code in message body")
	}
	return code
}

func setupAuthApp(t *testing.T) (*fiber.App, *captureDispatcher) {
	t.Helper()
	logger := logging.Discard()
	clk := clock.New()
	engine := otp.NewEngine(otp.NewMemoryStore(clk), otp.NewHMACHasher([]byte("hmac-secret")), otp.DefaultTTL)
	issuer := newTestIssuer(t, time.Hour, clk, nil)
	dispatcher := &captureDispatcher{}
	validate, err := validation.New()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	h := NewHandler(NewService(engine, issuer, dispatcher, logger), validate)
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(logger)})
	app.Post("/send-otp", h.SendOTP)
	app.Post("/verify-otp", h.VerifyOTP)
	return app, dispatcher
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	return resp, out
}

func TestLoginFlow(t *testing.T) {
	app, dispatcher := setupAuthApp(t)

	resp, body := postJSON(t, app, "/send-otp", map[string]string{"phone_number": "+1 (415) 555-2671"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%v)", resp.StatusCode, body)
	}
	if body["ttl_seconds"].(float64) != 300 {
		t.Fatalf("expected ttl_seconds 300, got %v", body["ttl_seconds"])
	}
	if got := dispatcher.messages[0].Destination; got != "+14155552671" {
		t.Fatalf("expected normalized destination, got %q", got)
	}
	code := dispatcher.lastCode(t)

	resp, body = postJSON(t, app, "/verify-otp", map[string]string{"phone_number": "+14155552671", "otp": code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["token_type"] != "bearer" || body["access_token"] == "" {
		t.Fatalf("unexpected token response %v", body)
	}

	resp, body = postJSON(t, app, "/verify-otp", map[string]string{"phone_number": "+14155552671", "otp": code})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", resp.StatusCode)
	}
	if body["detail"] != "OTP not found or expired" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
}

func TestVerifyWrongCodeKeepsOTP(t *testing.T) {
	app, dispatcher := setupAuthApp(t)

	postJSON(t, app, "/send-otp", map[string]string{"phone_number": "+14155552671"})
	code := dispatcher.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	resp, body := postJSON(t, app, "/verify-otp", map[string]string{"phone_number": "+14155552671", "otp": wrong})
	if resp.StatusCode != http.StatusBadRequest || body["detail"] != "Invalid OTP" {
		t.Fatalf("expected 400 Invalid OTP, got %d %v", resp.StatusCode, body)
	}

	resp, _ = postJSON(t, app, "/verify-otp", map[string]string{"phone_number": "+14155552671", "otp": code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected correct code to still verify, got %d", resp.StatusCode)
	}
}

func TestSendOTPRejectsInvalidPhone(t *testing.T) {
	app, dispatcher := setupAuthApp(t)

	resp, body := postJSON(t, app, "/send-otp", map[string]string{"phone_number": "12345"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["detail"] != "Invalid phone number format" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
	if len(dispatcher.messages) != 0 {
		t.Fatalf("expected no dispatch for invalid phone")
	}
}

func TestVerifyOTPValidatesBody(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp, body := postJSON(t, app, "/verify-otp", map[string]string{"phone_number": "+14155552671"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["otp"] == nil {
		t.Fatalf("expected otp field error, got %v", body)
	}
}
