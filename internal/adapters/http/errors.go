package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, no_safe_route, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// SearchErrorResponse is returned when a safe-route search ends without a route.
type SearchErrorResponse struct {
	APIError
	Attempts []domain.SearchAttempt `json:"attempts"`
}

// statusClientClosedRequest reports a request the caller abandoned.
const statusClientClosedRequest = 499

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(apiError(c, status, code, message))
}

func apiError(c *fiber.Ctx, status int, code, message string) APIError {
	reqID, _ := c.Locals("requestid").(string)
	return APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errSearch maps a failed safe-route search to its response.
func errSearch(c *fiber.Ctx, err error) error {
	var attempts []domain.SearchAttempt
	var se *domain.SearchError
	if errors.As(err, &se) {
		attempts = se.Attempts
	}

	var body APIError
	switch {
	case errors.Is(err, domain.ErrNoSafeRoute):
		body = apiError(c, 404, "no_safe_route", "No safe route found")
	case errors.Is(err, domain.ErrRoutingUnavailable):
		body = apiError(c, 503, "routing_unavailable", "Routing service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		body = apiError(c, 504, "search_timeout", "Safe route search timed out")
	case errors.Is(err, context.Canceled):
		body = apiError(c, statusClientClosedRequest, "search_cancelled", "Safe route search cancelled")
	default:
		return errInternal(c, err.Error())
	}
	if attempts == nil {
		attempts = []domain.SearchAttempt{}
	}
	return c.Status(body.Status).JSON(SearchErrorResponse{APIError: body, Attempts: attempts})
}
