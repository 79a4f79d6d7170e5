package order

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

// Handler exposes order and delivery endpoints.
type Handler struct {
	service  *Service
	delivery *DeliveryService
	validate *validation.Validator
}

// NewHandler builds an order HTTP handler.
func NewHandler(service *Service, delivery *DeliveryService, validate *validation.Validator) *Handler {
	return &Handler{service: service, delivery: delivery, validate: validate}
}

type verifyDeliveryRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	OTP     string `json:"otp" validate:"required"`
}

// Place converts the caller's cart into an order.
func (h *Handler) Place(c *fiber.Ctx) error {
	o, err := h.service.Place(c.UserContext(), auth.IdentityFrom(c.UserContext()))
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Order placed successfully",
		"order_id": o.ID,
		"order":    o,
	})
}

// List returns the caller's orders.
func (h *Handler) List(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext(), auth.IdentityFrom(c.UserContext()))
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"orders": orders})
}

// AdminList returns a summary of all orders.
func (h *Handler) AdminList(c *fiber.Ctx) error {
	orders, err := h.service.AdminList(c.UserContext())
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"orders": orders})
}

// UpdateStatus applies the status query parameter to the order.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	status, err := h.service.UpdateStatus(c.UserContext(), c.Params("order_id"), c.Query("status"))
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": fmt.Sprintf("Order status updated to %s", status)})
}

// SendDeliveryOTP issues a delivery code to the order owner.
func (h *Handler) SendDeliveryOTP(c *fiber.Ctx) error {
	phone, ttl, err := h.delivery.SendDeliveryOTP(c.UserContext(), c.Params("order_id"))
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     fmt.Sprintf("Delivery OTP sent to %s", phone),
		"ttl_seconds": int64(ttl.Seconds()),
	})
}

// VerifyDelivery completes the order when the delivery code matches.
func (h *Handler) VerifyDelivery(c *fiber.Ctx) error {
	var req verifyDeliveryRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}
	o, err := h.delivery.VerifyDelivery(c.UserContext(), req.OrderID, req.OTP)
	if err != nil {
		return apperr.Fiber(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":  "Order delivery verified and stock updated",
		"order_id": o.ID,
		"status":   o.Status,
	})
}
