package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

type sample struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	OTP         string `json:"otp" validate:"required,numeric,len=6"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	err = v.Struct(sample{OTP: "12ab"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apperr.Error, got %T", err)
	}
	if apperr.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", apperr.StatusCode(err))
	}
	fields := ae.Fields()
	if _, ok := fields["phone_number"]; !ok {
		t.Fatalf("expected phone_number field error, got %v", fields)
	}
	if _, ok := fields["otp"]; !ok {
		t.Fatalf("expected otp field error, got %v", fields)
	}
}

func TestStructAcceptsValid(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	if err := v.Struct(sample{PhoneNumber: "+14155552671", OTP: "123456"}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}
