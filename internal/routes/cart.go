package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/cart"
)

// RegisterCartRoutes wires cart endpoints behind bearer auth.
func RegisterCartRoutes(r fiber.Router, h *cart.Handler, jwtmw fiber.Handler) {
	r.Post("/cart/add", jwtmw, h.Add)
	r.Get("/cart", jwtmw, h.Get)
}
