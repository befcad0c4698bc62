package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error for upstream provider failures.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "upstream_error", msg)
}

// errServiceUnavailable returns a 503 error.
func errServiceUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "service_unavailable", msg)
}

// errFromUsecase maps the service-layer error taxonomy onto HTTP statuses.
func errFromUsecase(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, state.ErrSessionNotFound):
		return errNotFound(c, "session not found")
	case errors.Is(err, usecases.ErrInsufficientInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrNoPlan):
		return errConflict(c, err.Error())
	case errors.Is(err, usecases.ErrNoRoute):
		return errUnprocessable(c, err.Error())
	case errors.Is(err, usecases.ErrDirectionsUnavailable):
		return errServiceUnavailable(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
