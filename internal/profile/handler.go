package profile

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

// Handler exposes the user details endpoints.
type Handler struct {
	service  *Service
	validate *validation.Validator
}

// NewHandler builds a profile HTTP handler.
func NewHandler(service *Service, validate *validation.Validator) *Handler {
	return &Handler{service: service, validate: validate}
}

type detailsRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required,max=1000"`
}

// Save stores the caller's contact details.
func (h *Handler) Save(c *fiber.Ctx) error {
	var req detailsRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.service.Save(c.UserContext(), auth.IdentityFrom(c.UserContext()),
		Details{Name: req.Name, Email: req.Email, Address: req.Address})
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User details saved", "user": p})
}

// Get returns the caller's contact details, or an empty object.
func (h *Handler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.UserContext(), auth.IdentityFrom(c.UserContext()))
	if errors.Is(err, ErrNotFound) {
		return c.Status(http.StatusOK).JSON(fiber.Map{"user": fiber.Map{}})
	}
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": p})
}
