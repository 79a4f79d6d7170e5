package routes

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

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/config"
	"github.com/medicine-cart/medicine_cart/internal/logging"
	"github.com/medicine-cart/medicine_cart/internal/notification"
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
	return codePattern.FindString(d.messages[len(d.messages)-1].Body)
}

func testConfig() config.Config {
	return config.Config{
		AppName:        "MedicineCart",
		AppEnv:         "development",
		HMACSecret:     []byte("hmac-secret"),
		JWTSecret:      []byte("0123456789abcdef0123456789abcdef"),
		AccessTokenTTL: time.Hour,
		OTPTTL:         300 * time.Second,
		IdempotencyTTL: time.Hour,
	}
}

func setupApp(t *testing.T, withCache bool) (*fiber.App, *captureDispatcher) {
	t.Helper()
	logger := logging.Discard()
	d := Deps{Cfg: testConfig(), Logger: logger, Dispatcher: &captureDispatcher{}}

	if withCache {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("start miniredis: %v", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() {
			client.Close()
			mr.Close()
		})
		d.Cache = client
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(logger)})
	if err := Setup(app, d); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app, d.Dispatcher.(*captureDispatcher)
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func do(t *testing.T, app *fiber.App, c call) (int, map[string]any) {
	t.Helper()
	var payload []byte
	if c.body != nil {
		payload, _ = json.Marshal(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, dispatcher *captureDispatcher, phone string) string {
	t.Helper()
	status, body := do(t, app, call{method: http.MethodPost, path: "/send-otp", body: map[string]string{"phone_number": phone}})
	if status != http.StatusAccepted {
		t.Fatalf("send-otp: %d %v", status, body)
	}
	status, body = do(t, app, call{method: http.MethodPost, path: "/verify-otp",
		body: map[string]string{"phone_number": phone, "otp": dispatcher.lastCode(t)}})
	if status != http.StatusOK {
		t.Fatalf("verify-otp: %d %v", status, body)
	}
	return body["access_token"].(string)
}

func productQuantity(t *testing.T, app *fiber.App, id string) float64 {
	t.Helper()
	_, body := do(t, app, call{method: http.MethodGet, path: "/products"})
	for _, raw := range body["products"].([]any) {
		p := raw.(map[string]any)
		if p["id"] == id {
			return p["quantity"].(float64)
		}
	}
	t.Fatalf("product %s not listed", id)
	return 0
}

func TestCheckoutAndDelivery(t *testing.T) {
	app, dispatcher := setupApp(t, true)
	token := login(t, app, dispatcher, "+14155552671")
	before := productQuantity(t, app, "1")

	if status, _ := do(t, app, call{method: http.MethodPost, path: "/cart/add", token: token,
		body: map[string]any{"product_id": 1, "quantity": 2}}); status != http.StatusOK {
		t.Fatalf("cart add: %d", status)
	}
	if status, _ := do(t, app, call{method: http.MethodPost, path: "/user/details", token: token,
		body: map[string]string{"name": "Ada", "email": "ada@example.com", "address": "1 Main St"}}); status != http.StatusOK {
		t.Fatalf("user details: %d", status)
	}

	place := call{method: http.MethodPost, path: "/order/place", token: token, headers: map[string]string{"Idempotency-Key": "k-1"}}
	status, placed := do(t, app, place)
	if status != http.StatusCreated {
		t.Fatalf("place: %d %v", status, placed)
	}
	orderID := placed["order_id"].(string)
	status, replayed := do(t, app, place)
	if status != http.StatusCreated || replayed["order_id"] != orderID {
		t.Fatalf("expected idempotent replay, got %d %v", status, replayed)
	}

	status, body := do(t, app, call{method: http.MethodPost, path: "/order/send-delivery-otp/" + orderID})
	if status != http.StatusOK {
		t.Fatalf("send delivery otp: %d %v", status, body)
	}
	code := dispatcher.lastCode(t)

	verify := call{method: http.MethodPost, path: "/order/verify-delivery", body: map[string]string{"order_id": orderID, "otp": code}}
	if status, body = do(t, app, verify); status != http.StatusOK || body["status"] != "Delivered" {
		t.Fatalf("verify delivery: %d %v", status, body)
	}
	if status, _ = do(t, app, verify); status != http.StatusBadRequest {
		t.Fatalf("expected 400 on second verify, got %d", status)
	}

	if after := productQuantity(t, app, "1"); after != before-2 {
		t.Fatalf("expected stock %v, got %v", before-2, after)
	}

	_, body = do(t, app, call{method: http.MethodGet, path: "/orders", token: token})
	orders := body["orders"].([]any)
	if len(orders) != 1 || orders[0].(map[string]any)["status"] != "Delivered" {
		t.Fatalf("unexpected orders %v", orders)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := setupApp(t, false)

	paths := []call{
		{method: http.MethodGet, path: "/cart"},
		{method: http.MethodPost, path: "/cart/add", body: map[string]any{"product_id": 1, "quantity": 1}},
		{method: http.MethodGet, path: "/user/details"},
		{method: http.MethodPost, path: "/order/place"},
		{method: http.MethodGet, path: "/orders"},
		{method: http.MethodPost, path: "/logout"},
	}
	for _, c := range paths {
		if status, _ := do(t, app, c); status != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", c.method, c.path, status)
		}
		c.token = "garbage"
		if status, _ := do(t, app, c); status != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: expected 401, got %d", c.method, c.path, status)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	app, dispatcher := setupApp(t, true)
	token := login(t, app, dispatcher, "+14155552671")

	if status, _ := do(t, app, call{method: http.MethodGet, path: "/cart", token: token}); status != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", status)
	}
	if status, _ := do(t, app, call{method: http.MethodPost, path: "/logout", token: token}); status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	if status, _ := do(t, app, call{method: http.MethodGet, path: "/cart", token: token}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := setupApp(t, true)

	status, body := do(t, app, call{method: http.MethodGet, path: "/healthz"})
	if status != http.StatusOK {
		t.Fatalf("healthz: %d %v", status, body)
	}
	checks := body["status"].(map[string]any)
	if checks["redis"] != "ok" || checks["postgres"] != "disabled" {
		t.Fatalf("unexpected health %v", checks)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

func TestSetupRequiresBackendsOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	err := Setup(fiber.New(), Deps{Cfg: cfg, Logger: logging.Discard(), Dispatcher: &captureDispatcher{}})
	if err == nil {
		t.Fatalf("expected error without database in production")
	}
}
