// Package services defines the business logic of the session lifecycle:
// placement propagation, the confirmation gate, step progression, versioning
// and the profile placements cache. This file centralizes service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates that the session does not exist or belongs
	// to another user; callers cannot tell the two apart.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownProduct is returned for a product slug missing from the catalog.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrInvalidInput covers malformed identifiers and payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyPlacements is returned when placements would be marked confirmed
	// while carrying no usable chart signal.
	ErrEmptyPlacements = errors.New("placements are empty")

	// ErrConfirmationRequired is returned when an operation beyond step 1 is
	// attempted while the session still owes placement confirmation.
	ErrConfirmationRequired = errors.New("placements must be confirmed first")

	// ErrNotOnStepOne is returned by step-1 transitions on a session that
	// already moved past step 1.
	ErrNotOnStepOne = errors.New("session is not on step 1")

	// ErrStepOutOfRange is returned when advancing past the last step or
	// patching a step outside [1, total_steps].
	ErrStepOutOfRange = errors.New("step out of range")

	// ErrStaleStep is returned when the caller's view of the current step no
	// longer matches the stored session.
	ErrStaleStep = errors.New("session step changed concurrently")

	// ErrFollowUpsNotAllowed is returned for follow-ups on a step that has none.
	ErrFollowUpsNotAllowed = errors.New("follow-ups are not allowed on this step")

	// ErrFollowUpLimit is returned when the step's follow-up budget is used up.
	ErrFollowUpLimit = errors.New("follow-up limit reached")

	// ErrEmptyMessage is returned when a conversation message has no content.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds the configured rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrNotLastStep is returned when completing a session before its last step.
	ErrNotLastStep = errors.New("session is not on its last step")

	// ErrEmptyDeliverable is returned when completing without deliverable content.
	ErrEmptyDeliverable = errors.New("deliverable is empty")

	// ErrAlreadyComplete is returned for progression on a completed session.
	ErrAlreadyComplete = errors.New("session already complete")

	// ErrParentNotLatest is returned when forking from a version that has
	// already been superseded.
	ErrParentNotLatest = errors.New("parent session is not the latest version")

	// ErrQuotaExceeded marks the "requires purchase" condition. Use errors.As
	// with *QuotaExceededError to read the attempt counts.
	ErrQuotaExceeded = errors.New("free attempts limit reached")
)

// QuotaExceededError carries the attempt counts for a refused version request.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%v (%d/%d used)", ErrQuotaExceeded, e.Used, e.Limit)
}

// Unwrap lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }
