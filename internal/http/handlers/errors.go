// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., confirmation_required, requires_purchase) are
//     reserved for business conditions the client must route on: re-confirming
//     placements, refreshing a stale step, or sending the user to checkout.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Clients are expected to branch on these codes for programmatic error handling.
//
// Example response:
//   {
//     "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//     "code": "confirmation_required",
//     "message": "placements must be confirmed first"
//   }

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeMethodNotAllowed     = "method_not_allowed"
	ErrCodeInvalidTransition    = "invalid_transition"
	ErrCodeEmptyPlacements      = "empty_placements"
	ErrCodeConfirmationRequired = "confirmation_required"
	ErrCodeNotOnStepOne         = "not_on_step_one"
	ErrCodeStepOutOfRange       = "step_out_of_range"
	ErrCodeStaleStep            = "stale_step"
	ErrCodeFollowUpsNotAllowed  = "follow_ups_not_allowed"
	ErrCodeFollowUpLimit        = "follow_up_limit"
	ErrCodeEmptyMessage         = "empty_message"
	ErrCodeMessageTooLong       = "message_too_long"
	ErrCodeNotLastStep          = "not_last_step"
	ErrCodeAlreadyComplete      = "already_complete"
	ErrCodeParentNotLatest      = "parent_not_latest"
	ErrCodeRequiresPurchase     = "requires_purchase"
)
