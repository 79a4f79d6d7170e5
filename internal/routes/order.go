package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/order"
)

// RegisterOrderRoutes wires order placement, administration and delivery
// confirmation. idempotency may be nil.
func RegisterOrderRoutes(r fiber.Router, h *order.Handler, jwtmw, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/order/place", jwtmw, idempotency, h.Place)
	} else {
		r.Post("/order/place", jwtmw, h.Place)
	}
	r.Get("/orders", jwtmw, h.List)

	r.Get("/admin/orders", h.AdminList)
	r.Post("/order/update-status/:order_id", h.UpdateStatus)
	r.Post("/order/send-delivery-otp/:order_id", h.SendDeliveryOTP)
	r.Post("/order/verify-delivery", h.VerifyDelivery)
}
