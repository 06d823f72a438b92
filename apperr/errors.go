// Package apperr holds the error taxonomy of the API and the single place
// where errors become HTTP responses.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Error struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(format string, args ...any) *Error {
	return New(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(fiber.StatusNotFound, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *Error {
	return New(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(fiber.StatusForbidden, message)
}

// Validation reports field level problems found before a handler runs.
func Validation(fields map[string]string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: "Validation failed", Fields: fields}
}

// Field is a shorthand for a single-field validation error.
func Field(name, message string) *Error {
	return Validation(map[string]string{name: message})
}

func Internal(message string, err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Message: message, Err: err}
}

// Handler is the fiber ErrorHandler producing the JSON error envelope.
func Handler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := translate(err)

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(body)
	}
}

func translate(err error) (int, fiber.Map) {
	var (
		appErr   *Error
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &appErr):
		body := envelope(appErr.Status, appErr.Message)
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		return appErr.Status, body
	case errors.As(err, &fiberErr):
		return fiberErr.Code, envelope(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusBadRequest, envelope(fiber.StatusBadRequest, "Duplicate field value")
	default:
		return fiber.StatusInternalServerError, envelope(fiber.StatusInternalServerError, "Something went wrong")
	}
}

func envelope(status int, message string) fiber.Map {
	state := "fail"
	if status >= fiber.StatusInternalServerError {
		state = "error"
	}
	return fiber.Map{"status": state, "message": message}
}

// RouteNotFound answers requests no route matched.
func RouteNotFound(c *fiber.Ctx) error {
	return BadRequest("can't find the route : %s", c.OriginalURL())
}
