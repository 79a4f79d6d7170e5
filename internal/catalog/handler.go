package catalog

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the full product list.
func (h *Handler) List(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"products": products})
}
