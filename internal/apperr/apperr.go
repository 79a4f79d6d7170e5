// Package apperr classifies domain errors so HTTP handlers can map them to
// status codes without importing every domain package.
package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Kind is the high-level bucket an error falls into.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindNotFound
	KindConflict
)

// Error is a classified error with a user-facing message.
type Error struct {
	kind   Kind
	msg    string
	fields map[string]string
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error bucket.
func (e *Error) Kind() Kind { return e.kind }

// Fields returns per-field validation messages, if any.
func (e *Error) Fields() map[string]string { return e.fields }

// InvalidInput builds a 400-class error.
func InvalidInput(msg string) error { return &Error{kind: KindInvalidInput, msg: msg} }

// InvalidFields builds a 400-class error carrying per-field messages.
func InvalidFields(msg string, fields map[string]string) error {
	return &Error{kind: KindInvalidInput, msg: msg, fields: fields}
}

// Unauthorized builds a 401-class error.
func Unauthorized(msg string) error { return &Error{kind: KindUnauthorized, msg: msg} }

// NotFound builds a 404-class error.
func NotFound(msg string) error { return &Error{kind: KindNotFound, msg: msg} }

// Conflict builds a 409-class error.
func Conflict(msg string) error { return &Error{kind: KindConflict, msg: msg} }

// StatusCode maps err to an HTTP status. Unclassified errors are 500.
func StatusCode(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fiber converts err into a *fiber.Error. Internal errors never leak their
// message to the client.
func Fiber(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.fields != nil {
			return err
		}
		return fiber.NewError(StatusCode(err), ae.msg)
	}
	return fiber.NewError(http.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders errors as {"detail": ...} JSON bodies.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *Error
		if errors.As(err, &ae) && ae.fields != nil {
			return c.Status(StatusCode(err)).JSON(fiber.Map{"detail": ae.msg, "fields": ae.fields})
		}

		code := http.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			msg = fe.Message
		case errors.As(err, &ae):
			code = StatusCode(err)
			msg = ae.msg
		}
		if code >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"detail": msg})
	}
}
