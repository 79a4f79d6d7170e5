package order

import "github.com/medicine-cart/medicine_cart/internal/apperr"

var (
	ErrInvalidOrderID    = apperr.InvalidInput("Invalid order ID format")
	ErrOrderNotFound     = apperr.NotFound("Order not found")
	ErrMissingPhone      = apperr.InvalidInput("Phone number not linked with user")
	ErrInvalidStatus     = apperr.InvalidInput("Invalid order status")
	ErrInvalidTransition = apperr.InvalidInput("Order status can no longer change")
	// ErrDeliveredByOTP rejects manual transitions to Delivered.
	ErrDeliveredByOTP = apperr.InvalidInput("Delivered can only be set by delivery OTP verification")
	// ErrAwaitingByOTP rejects manual transitions to Awaiting Delivery OTP.
	ErrAwaitingByOTP  = apperr.InvalidInput("Awaiting Delivery OTP can only be set by sending a delivery OTP")
	ErrCartEmpty      = apperr.InvalidInput("Cart is empty")
	ErrProfileMissing = apperr.InvalidInput("User details missing")
	ErrOrderTooLarge  = apperr.InvalidInput("Order total too large")
	ErrInvalidItems   = apperr.InvalidInput("Order contains an invalid item quantity")
)
