package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/profile"
)

// RegisterProfileRoutes wires the user details endpoints behind bearer auth.
func RegisterProfileRoutes(r fiber.Router, h *profile.Handler, jwtmw fiber.Handler) {
	r.Post("/user/details", jwtmw, h.Save)
	r.Get("/user/details", jwtmw, h.Get)
}
