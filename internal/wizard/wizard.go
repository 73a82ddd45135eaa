// Package wizard models the first step of a product wizard as one explicit
// state. The state is derived from persisted session facts on every load and
// only changes through the named events below.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-alignment-backend/internal/placements"
)

// State is a node of the step-1 machine.
type State string

const (
	Welcome      State = "WELCOME"
	Confirmation State = "CONFIRMATION"
	Upload       State = "UPLOAD"
	Extracting   State = "EXTRACTING"
	Review       State = "REVIEW"
	Ready        State = "READY"
)

// Event is a user- or system-triggered edge.
type Event string

const (
	DismissWelcome      Event = "dismiss_welcome"
	AcceptExisting      Event = "accept_existing"
	Edit                Event = "edit"
	StartOver           Event = "start_over"
	SubmitFiles         Event = "submit_files"
	ExtractionSucceeded Event = "extraction_succeeded"
	ExtractionFailed    Event = "extraction_failed"
	ConfirmReview       Event = "confirm_review"
	Reupload            Event = "reupload"
)

var (
	// ErrInvalidTransition is returned for an event the current state does not accept.
	ErrInvalidTransition = errors.New("invalid step transition")
	// ErrUnknownState / ErrUnknownEvent are returned by the parsers.
	ErrUnknownState = errors.New("unknown step state")
	ErrUnknownEvent = errors.New("unknown step event")
	// ErrInconsistentState is returned when a claimed state contradicts the session facts.
	ErrInconsistentState = errors.New("step state does not match session")
)

// Facts are the persisted booleans the machine is derived from.
type Facts struct {
	ShowInstructions bool
	HasPlacements    bool
	Confirmed        bool
}

// FactsFor builds Facts from a session's stored fields.
func FactsFor(showInstructions bool, p *placements.Placements, confirmed bool) Facts {
	return Facts{
		ShowInstructions: showInstructions,
		HasPlacements:    !placements.IsEmpty(p),
		Confirmed:        confirmed,
	}
}

// Initial selects the entry state for a freshly loaded session.
func Initial(f Facts) State {
	switch {
	case f.ShowInstructions:
		return Welcome
	case f.HasPlacements && !f.Confirmed:
		return Confirmation
	case f.HasPlacements && f.Confirmed:
		return Ready
	default:
		return Upload
	}
}

// Next returns the state reached by firing ev in from.
func Next(from State, ev Event, f Facts) (State, error) {
	switch from {
	case Welcome:
		if ev == DismissWelcome {
			if f.HasPlacements {
				return Confirmation, nil
			}
			return Upload, nil
		}
	case Confirmation:
		switch ev {
		case AcceptExisting:
			if !f.HasPlacements {
				return from, fmt.Errorf("%w: nothing to accept", ErrInvalidTransition)
			}
			return Ready, nil
		case Edit:
			return Review, nil
		case StartOver:
			return Upload, nil
		}
	case Upload:
		if ev == SubmitFiles {
			return Extracting, nil
		}
	case Extracting:
		switch ev {
		case ExtractionSucceeded:
			return Review, nil
		case ExtractionFailed:
			return Upload, nil
		}
	case Review:
		switch ev {
		case ConfirmReview:
			return Ready, nil
		case Reupload:
			return Upload, nil
		}
	case Ready:
		// terminal
	default:
		return from, fmt.Errorf("%w: %q", ErrUnknownState, from)
	}
	return from, fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, from, ev)
}

// Consistent reports whether a client-held state can exist for the given facts.
// EXTRACTING is never accepted from a client: extraction runs inside one request.
func Consistent(s State, f Facts) error {
	switch s {
	case Welcome:
		if !f.ShowInstructions {
			return fmt.Errorf("%w: product has no instructions", ErrInconsistentState)
		}
	case Confirmation:
		if !f.HasPlacements {
			return fmt.Errorf("%w: no placements to confirm", ErrInconsistentState)
		}
	case Extracting:
		return fmt.Errorf("%w: extraction is not resumable", ErrInconsistentState)
	case Upload, Review, Ready:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return nil
}

// ParseState accepts any case.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case Welcome, Confirmation, Upload, Extracting, Review, Ready:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// ParseEvent accepts any case.
func ParseEvent(s string) (Event, error) {
	ev := Event(strings.ToLower(strings.TrimSpace(s)))
	switch ev {
	case DismissWelcome, AcceptExisting, Edit, StartOver, SubmitFiles,
		ExtractionSucceeded, ExtractionFailed, ConfirmReview, Reupload:
		return ev, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}
