package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/logging"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

func setupOrderApp(t *testing.T, f *fixture) *fiber.App {
	t.Helper()
	validate, err := validation.New()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	h := NewHandler(f.service, f.delivery, validate)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(logging.Discard())})
	withIdentity := func(c *fiber.Ctx) error {
		claims := auth.Claims{}
		claims.Subject = testPhone
		c.SetUserContext(auth.WithClaims(c.UserContext(), claims))
		return c.Next()
	}
	app.Post("/order/place", withIdentity, h.Place)
	app.Get("/orders", withIdentity, h.List)
	app.Get("/admin/orders", h.AdminList)
	app.Post("/order/update-status/:order_id", h.UpdateStatus)
	app.Post("/order/send-delivery-otp/:order_id", h.SendDeliveryOTP)
	app.Post("/order/verify-delivery", h.VerifyDelivery)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestDeliveryOverHTTP(t *testing.T) {
	f := newFixture(t)
	app := setupOrderApp(t, f)
	o := f.placeOrder(t, map[string]int64{"p1": 2})

	status, body := doJSON(t, app, http.MethodPost, "/order/send-delivery-otp/"+o.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["message"] != "Delivery OTP sent to "+testPhone || body["ttl_seconds"].(float64) != 300 {
		t.Fatalf("unexpected body %v", body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/order/verify-delivery",
		map[string]string{"order_id": o.ID, "otp": f.dispatcher.lastCode(t)})
	if status != http.StatusOK || body["status"] != string(StatusDelivered) {
		t.Fatalf("expected delivered, got %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/order/verify-delivery",
		map[string]string{"order_id": o.ID, "otp": f.dispatcher.lastCode(t)})
	if status != http.StatusBadRequest || body["detail"] != "OTP not found or expired" {
		t.Fatalf("expected 400 on reuse, got %d %v", status, body)
	}

	status, _ = doJSON(t, app, http.MethodPost, "/order/send-delivery-otp/"+o.ID, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for delivered order, got %d", status)
	}
}

func TestOrderRouteErrors(t *testing.T) {
	f := newFixture(t)
	app := setupOrderApp(t, f)

	if status, _ := doJSON(t, app, http.MethodPost, "/order/place", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodPost, "/order/send-delivery-otp/not-a-uuid", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodPost, "/order/send-delivery-otp/3f1c1f0e-8f55-4a55-9a3a-2d9b0c7d1e11", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", status)
	}

	o := f.placeOrder(t, map[string]int64{"p2": 1})
	if status, _ := doJSON(t, app, http.MethodPost, "/order/update-status/"+o.ID+"?status=Delivered", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for manual Delivered, got %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodPost, "/order/update-status/"+o.ID+"?status=Awaiting%20Delivery%20OTP", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for manual Awaiting Delivery OTP, got %d", status)
	}
	status, body := doJSON(t, app, http.MethodPost, "/order/update-status/"+o.ID+"?status=Dispatched", nil)
	if status != http.StatusOK || body["message"] != "Order status updated to Dispatched" {
		t.Fatalf("unexpected update response %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/orders", nil)
	if status != http.StatusOK || len(body["orders"].([]any)) != 1 {
		t.Fatalf("unexpected orders %d %v", status, body)
	}
	status, body = doJSON(t, app, http.MethodGet, "/admin/orders", nil)
	if status != http.StatusOK || len(body["orders"].([]any)) != 1 {
		t.Fatalf("unexpected admin orders %d %v", status, body)
	}
}
