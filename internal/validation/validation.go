// Package validation binds and validates JSON request bodies with
// go-playground/validator, producing field errors keyed by JSON name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

// ErrTranslatorNotFound indicates the English translator could not be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with English messages.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, translator: trans}, nil
}

// Struct validates data and returns an apperr field error on failure.
func (v *Validator) Struct(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.InvalidInput("Invalid request body")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return apperr.InvalidFields("Validation error", fields)
}

// Bind parses the JSON body into dst and validates it.
func (v *Validator) Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return v.Struct(dst)
}
