package profile

import (
	"time"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

// ErrNotFound is returned when no profile exists for a phone.
var ErrNotFound = apperr.NotFound("User details not found")

// Profile holds the delivery contact details of an identity.
type Profile struct {
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}
