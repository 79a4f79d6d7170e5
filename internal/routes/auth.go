package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/auth"
)

// RegisterAuthRoutes wires the OTP login and logout endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, jwtmw fiber.Handler) {
	r.Post("/send-otp", h.SendOTP)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/logout", jwtmw, h.Logout)
}
