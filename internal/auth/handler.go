package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

// Handler exposes the OTP login endpoints.
type Handler struct {
	svc      *Service
	validate *validation.Validator
}

func NewHandler(svc *Service, validate *validation.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	OTP         string `json:"otp" validate:"required,numeric,len=6"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SendOTP issues a login code for the requested phone.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	ttl, err := h.svc.SendOTP(c.UserContext(), req.PhoneNumber)
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"detail":      "OTP dispatched",
		"ttl_seconds": int64(ttl.Seconds()),
	})
}

// VerifyOTP exchanges a valid login code for a bearer token.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	cred, err := h.svc.VerifyOTP(c.UserContext(), req.PhoneNumber, req.OTP)
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(tokenResponse{AccessToken: cred.Token, TokenType: "bearer"})
}

// Logout revokes the bearer token used for this request.
func (h *Handler) Logout(c *fiber.Ctx) error {
	claims, ok := ClaimsFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	if err := h.svc.Logout(c.UserContext(), claims); err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
