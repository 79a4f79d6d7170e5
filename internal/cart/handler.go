package cart

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

// Handler exposes cart HTTP endpoints.
type Handler struct {
	service  *Service
	validate *validation.Validator
}

// NewHandler builds a cart HTTP handler.
func NewHandler(service *Service, validate *validation.Validator) *Handler {
	return &Handler{service: service, validate: validate}
}

type addRequest struct {
	ProductID ProductID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity"`
}

// Add places a product in the caller's cart.
func (h *Handler) Add(c *fiber.Ctx) error {
	var req addRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	cart, err := h.service.Add(c.UserContext(), auth.IdentityFrom(c.UserContext()), string(req.ProductID), req.Quantity)
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Added to cart", "cart": cart.Items})
}

// Get returns the caller's cart joined with product data.
func (h *Handler) Get(c *fiber.Ctx) error {
	items, err := h.service.Detailed(c.UserContext(), auth.IdentityFrom(c.UserContext()))
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"cart": items})
}
