// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a consistent
//     shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "session not found"
//	}
//
// Quota exhaustion extends the envelope with the attempt counts:
//
//	HTTP/1.1 403 Forbidden
//	{ "code": "requires_purchase", "attempts_used": 2, "attempts_limit": 2, "requires_purchase": true, ... }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
	"github.com/tbourn/go-alignment-backend/internal/services"
	"github.com/tbourn/go-alignment-backend/internal/wizard"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// QuotaErrorResponse is returned with 403 when free attempts are used up. It
// carries what the client needs to present a purchase path.
type QuotaErrorResponse struct {
	ErrorResponse
	AttemptsUsed     int  `json:"attempts_used" example:"2"`
	AttemptsLimit    int  `json:"attempts_limit" example:"2"`
	RequiresPurchase bool `json:"requires_purchase" example:"true"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	middleware.SetErrorCode(c, code)
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// failErr maps a service error onto the error envelope. Unknown errors become
// 500 without leaking their text to the client.
func failErr(c *gin.Context, err error) {
	var qe *services.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		middleware.LoggerFrom(c).Info().
			Int("attempts_used", qe.Used).
			Int("attempts_limit", qe.Limit).
			Msg("version quota exhausted")
		middleware.SetErrorCode(c, ErrCodeRequiresPurchase)
		c.AbortWithStatusJSON(http.StatusForbidden, QuotaErrorResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeRequiresPurchase,
				Message:   "free attempts used up; purchase required",
			},
			AttemptsUsed:     qe.Used,
			AttemptsLimit:    qe.Limit,
			RequiresPurchase: true,
		})
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
	case errors.Is(err, services.ErrUnknownProduct), errors.Is(err, catalog.ErrUnknownProduct):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrEmptyDeliverable):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, err.Error())
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, err.Error())
	case errors.Is(err, services.ErrEmptyPlacements):
		fail(c, http.StatusBadRequest, ErrCodeEmptyPlacements, err.Error())
	case errors.Is(err, wizard.ErrInvalidTransition), errors.Is(err, wizard.ErrInconsistentState),
		errors.Is(err, wizard.ErrUnknownState), errors.Is(err, wizard.ErrUnknownEvent):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrConfirmationRequired):
		fail(c, http.StatusConflict, ErrCodeConfirmationRequired, err.Error())
	case errors.Is(err, services.ErrNotOnStepOne):
		fail(c, http.StatusConflict, ErrCodeNotOnStepOne, err.Error())
	case errors.Is(err, services.ErrStepOutOfRange):
		fail(c, http.StatusConflict, ErrCodeStepOutOfRange, err.Error())
	case errors.Is(err, services.ErrStaleStep):
		fail(c, http.StatusConflict, ErrCodeStaleStep, err.Error())
	case errors.Is(err, services.ErrFollowUpsNotAllowed):
		fail(c, http.StatusConflict, ErrCodeFollowUpsNotAllowed, err.Error())
	case errors.Is(err, services.ErrFollowUpLimit):
		fail(c, http.StatusConflict, ErrCodeFollowUpLimit, err.Error())
	case errors.Is(err, services.ErrNotLastStep):
		fail(c, http.StatusConflict, ErrCodeNotLastStep, err.Error())
	case errors.Is(err, services.ErrAlreadyComplete):
		fail(c, http.StatusConflict, ErrCodeAlreadyComplete, err.Error())
	case errors.Is(err, services.ErrParentNotLatest):
		fail(c, http.StatusConflict, ErrCodeParentNotLatest, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
