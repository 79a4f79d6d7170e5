// Package phone canonicalizes user supplied phone numbers into the E.164
// form used as the account identity everywhere else.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

// ErrInvalidFormat is returned for input that does not parse into a valid,
// dialable number.
var ErrInvalidFormat = apperr.InvalidInput("Invalid phone number format")

// Normalize parses raw, which must carry a leading +<country code>, and
// returns its E.164 representation.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidFormat
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidFormat
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
