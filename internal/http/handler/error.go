package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stackapi/internal/apperr"
	"stackapi/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeValidationError writes a 422 response carrying the per-field messages.
func writeValidationError(c *fiber.Ctx, ve *apperr.ValidationError) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  ve.Fields,
		},
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
}

// respondError maps a service-layer error onto the HTTP error contract:
// not found 404, validation 422, forbidden 403, conflict 400, everything
// else 500 with the cause withheld from the response body.
func respondError(c *fiber.Ctx, err error) error {
	var (
		notFound   *apperr.NotFoundError
		validation *apperr.ValidationError
		forbidden  *apperr.ForbiddenError
		conflict   *apperr.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.As(err, &validation):
		return writeValidationError(c, validation)
	case errors.As(err, &forbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", forbidden.Message)
	case errors.As(err, &conflict):
		return writeError(c, fiber.StatusBadRequest, "CONFLICT", conflict.Message)
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses. It covers errors returned by middleware and Fiber's own routing
// errors; handlers normally write their payloads through respondError.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var internal *apperr.InternalError
		if e, ok := err.(*fiber.Error); ok {
			switch e.Code {
			case fiber.StatusBadRequest:
				return writeError(c, e.Code, "BAD_REQUEST", "bad request")
			case fiber.StatusUnauthorized:
				return writeError(c, e.Code, "NOT_AUTHENTICATED", e.Message)
			case fiber.StatusNotFound:
				return writeError(c, e.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, e.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			default:
				return writeError(c, e.Code, "INTERNAL_ERROR", "internal server error")
			}
		}
		if errors.As(err, &internal) {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return respondError(c, err)
	}
}
