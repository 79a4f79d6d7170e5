package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/catalog"
)

// RegisterCatalogRoutes wires product listing.
func RegisterCatalogRoutes(r fiber.Router, h *catalog.Handler) {
	r.Get("/products", h.List)
}
