// Package services – SessionService
//
// SessionService owns the linear life of a session: get-or-create on load
// (with placement propagation and the confirmation gate), validated partial
// updates, step advancement, follow-up questions, completion and the
// administrative reset. Every operation filters by user id. Follow-ups are
// counted from the step's conversation log.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/observability"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
	"github.com/tbourn/go-alignment-backend/internal/wizard"
)

// SessionView is a session together with what the client must show for it.
type SessionView struct {
	Session           *domain.Session
	Product           *catalog.Product
	NeedsConfirmation bool
	RolledBack        bool
	// Step1State is set only while the session is on step 1.
	Step1State wizard.State
	Created    bool
	SeededFrom string
}

// SessionPatch lists the fields a client may change. Nil means "leave as is".
type SessionPatch struct {
	CurrentStep         *int
	CurrentSection      *int
	Placements          *placements.Placements
	PlacementsConfirmed *bool
	IsComplete          *bool
	CompletedAt         *time.Time
	DeliverableContent  *string
}

// SessionService coordinates session persistence and progression rules.
type SessionService struct {
	DB         *gorm.DB
	Catalog    *catalog.Catalog
	Propagator *Propagator
	// Retries bounds re-runs of a transaction after a storage conflict.
	Retries int
	// MaxMessageRunes bounds follow-up questions; <= 0 means DefaultMaxMessageRunes.
	MaxMessageRunes int
	// Now is overridable in tests.
	Now func() time.Time
}

// NewSessionService wires a SessionService with default retry settings.
func NewSessionService(db *gorm.DB, cat *catalog.Catalog, p *Propagator) *SessionService {
	return &SessionService{DB: db, Catalog: cat, Propagator: p, Retries: 5, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *SessionService) product(slug string) (*catalog.Product, error) {
	p, err := s.Catalog.Get(slug)
	if err != nil {
		return nil, ErrUnknownProduct
	}
	return p, nil
}

// Load returns the latest session for (userID, slug), creating version 1 when
// none exists, and enforces the confirmation gate before returning it.
func (s *SessionService) Load(ctx context.Context, userID, slug string) (*SessionView, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Load",
		trace.WithAttributes(
			observability.UserAttr(userID),
			attribute.String("product.slug", slug),
		),
	)
	defer span.End()

	prod, err := s.product(slug)
	if err != nil {
		return nil, err
	}

	view := &SessionView{Product: prod}
	sess, err := repo.GetLatestSession(ctx, s.DB, userID, slug)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		sess, view.SeededFrom, view.Created, err = s.createFirst(ctx, userID, prod)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	rolled, err := EnforceGate(ctx, s.DB, sess)
	if err != nil {
		return nil, err
	}
	view.Session = sess
	view.RolledBack = rolled
	view.NeedsConfirmation = NeedsConfirmation(sess)
	if sess.CurrentStep == 1 && !sess.IsComplete {
		view.Step1State = wizard.Initial(wizard.FactsFor(prod.ShowInstructions, sess.Placements, sess.PlacementsConfirmed))
	}
	span.SetAttributes(
		attribute.Bool("session.created", view.Created),
		attribute.Bool("gate.rolled_back", rolled),
	)
	return view, nil
}

// createFirst inserts version 1. A concurrent load that wins the race is
// detected by the latest-version index and its row is returned instead.
func (s *SessionService) createFirst(ctx context.Context, userID string, prod *catalog.Product) (*domain.Session, string, bool, error) {
	var (
		out     *domain.Session
		source  string
		created bool
	)
	err := repo.WithRetry(ctx, s.Retries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := repo.GetLatestSession(ctx, tx, userID, prod.Slug)
			if err == nil {
				out, source, created = existing, SourceNone, false
				return nil
			}
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			sess := &domain.Session{
				UserID:          userID,
				ProductSlug:     prod.Slug,
				Version:         1,
				CurrentStep:     1,
				CurrentSection:  1,
				TotalSteps:      prod.TotalSteps(),
				IsLatestVersion: true,
			}
			src, err := insertSession(ctx, tx, s.Propagator, sess)
			if err != nil {
				return err
			}
			out, source, created = sess, src, true
			return nil
		})
	})
	return out, source, created, err
}

// Get returns an owned session after applying the confirmation gate, so a
// session that owes confirmation is never served past step 1.
func (s *SessionService) Get(ctx context.Context, userID, id string) (*domain.Session, error) {
	sess, err := repo.GetSession(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := EnforceGate(ctx, s.DB, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// inTx loads the owned session inside a transaction and hands it to fn.
func (s *SessionService) inTx(ctx context.Context, userID, id string, fn func(tx *gorm.DB, sess *domain.Session) error) error {
	return repo.WithRetry(ctx, s.Retries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sess, err := repo.GetSession(ctx, tx, id, userID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSessionNotFound
			}
			if err != nil {
				return err
			}
			return fn(tx, sess)
		})
	})
}

// Patch applies a validated partial update atomically. Changing placements
// clears confirmation unless the same patch confirms them.
func (s *SessionService) Patch(ctx context.Context, userID, id string, p SessionPatch) (*domain.Session, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Patch",
		trace.WithAttributes(
			observability.UserAttr(userID),
			attribute.String("session.id", id),
		),
	)
	defer span.End()

	var out *domain.Session
	err := s.inTx(ctx, userID, id, func(tx *gorm.DB, sess *domain.Session) error {
		merged := *sess
		fields := map[string]any{}

		if p.CurrentStep != nil {
			if *p.CurrentStep < 1 || *p.CurrentStep > sess.TotalSteps {
				return ErrStepOutOfRange
			}
			merged.CurrentStep = *p.CurrentStep
			fields["current_step"] = merged.CurrentStep
		}
		if p.CurrentSection != nil {
			if *p.CurrentSection < 1 {
				return ErrInvalidInput
			}
			merged.CurrentSection = *p.CurrentSection
			fields["current_section"] = merged.CurrentSection
		}
		if p.Placements != nil {
			merged.Placements = p.Placements.Clone()
			fields["placements"] = merged.Placements
			if p.PlacementsConfirmed == nil {
				merged.PlacementsConfirmed = false
				fields["placements_confirmed"] = false
			}
		}
		if p.PlacementsConfirmed != nil {
			merged.PlacementsConfirmed = *p.PlacementsConfirmed
			fields["placements_confirmed"] = merged.PlacementsConfirmed
		}
		if p.DeliverableContent != nil {
			merged.DeliverableContent = p.DeliverableContent
			fields["deliverable_content"] = *p.DeliverableContent
		}
		if p.IsComplete != nil {
			merged.IsComplete = *p.IsComplete
			fields["is_complete"] = merged.IsComplete
			if merged.IsComplete {
				at := s.now()
				if p.CompletedAt != nil {
					at = p.CompletedAt.UTC()
				} else if sess.CompletedAt != nil {
					at = *sess.CompletedAt
				}
				merged.CompletedAt = &at
				fields["completed_at"] = at
			} else {
				merged.CompletedAt = nil
				fields["completed_at"] = nil
			}
		} else if p.CompletedAt != nil {
			at := p.CompletedAt.UTC()
			merged.CompletedAt = &at
			fields["completed_at"] = at
		}

		if err := validateSession(&merged); err != nil {
			return err
		}
		if len(fields) == 0 {
			out = sess
			return nil
		}
		if err := repo.UpdateSession(ctx, tx, id, userID, fields); err != nil {
			return err
		}
		fresh, err := repo.GetSession(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		out = fresh
		return nil
	})
	return out, err
}

// validateSession checks the row-level invariants of a session.
func validateSession(s *domain.Session) error {
	if s.CurrentStep < 1 || s.CurrentSection < 1 {
		return ErrInvalidInput
	}
	if s.PlacementsConfirmed && placements.IsEmpty(s.Placements) {
		return ErrEmptyPlacements
	}
	if (s.CurrentStep > 1 || s.IsComplete) && NeedsConfirmation(s) {
		return ErrConfirmationRequired
	}
	if s.IsComplete {
		if s.DeliverableContent == nil || strings.TrimSpace(*s.DeliverableContent) == "" {
			return ErrEmptyDeliverable
		}
		if s.CompletedAt == nil {
			return ErrInvalidInput
		}
	}
	return nil
}

// Advance moves the session from fromStep to fromStep+1. fromStep must match
// the stored step; moving past the last step is rejected.
func (s *SessionService) Advance(ctx context.Context, userID, id string, fromStep int) (*domain.Session, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Advance",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.Int("step.from", fromStep),
		),
	)
	defer span.End()

	var out *domain.Session
	err := s.inTx(ctx, userID, id, func(tx *gorm.DB, sess *domain.Session) error {
		if NeedsConfirmation(sess) {
			return ErrConfirmationRequired
		}
		if sess.IsComplete {
			return ErrAlreadyComplete
		}
		if sess.CurrentStep != fromStep {
			return ErrStaleStep
		}
		if fromStep >= sess.TotalSteps {
			return ErrStepOutOfRange
		}
		section := sess.CurrentSection
		if section < 1 {
			section = 1
		}
		ok, err := repo.AdvanceStep(ctx, tx, id, userID, fromStep, map[string]any{
			"current_step":    fromStep + 1,
			"current_section": section,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrStaleStep
		}
		sess.CurrentStep, sess.CurrentSection = fromStep+1, section
		out = sess
		return nil
	})
	return out, err
}

// RecordFollowUp appends question to the current step's conversation as a
// follow-up and returns how many follow-ups that step has used.
func (s *SessionService) RecordFollowUp(ctx context.Context, userID, id, question string) (int, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "RecordFollowUp",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	question, err := cleanContent(question, s.MaxMessageRunes)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.inTx(ctx, userID, id, func(tx *gorm.DB, sess *domain.Session) error {
		if err := checkStepWritable(sess, sess.CurrentStep); err != nil {
			return err
		}
		prod, err := s.product(sess.ProductSlug)
		if err != nil {
			return err
		}
		step, ok := prod.Step(sess.CurrentStep)
		if !ok {
			return ErrStepOutOfRange
		}
		if !step.AllowFollowUp || step.MaxFollowUps == 0 {
			return ErrFollowUpsNotAllowed
		}
		used, err := repo.CountStepMessages(ctx, tx, id, sess.CurrentStep, domain.RoleUser, domain.KindFollowUp)
		if err != nil {
			return err
		}
		if int(used) >= step.MaxFollowUps {
			return ErrFollowUpLimit
		}
		conv, err := repo.EnsureConversation(ctx, tx, id, sess.CurrentStep)
		if err != nil {
			return err
		}
		if _, err := repo.AppendMessage(ctx, tx, conv.ID, domain.RoleUser, domain.KindFollowUp, question); err != nil {
			return err
		}
		count = int(used) + 1
		return nil
	})
	span.SetAttributes(attribute.Int("followups.used", count))
	return count, err
}

// Complete marks the session complete with its deliverable. It must be on
// its last step and past the confirmation gate.
func (s *SessionService) Complete(ctx context.Context, userID, id, deliverable string) (*domain.Session, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Complete",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	deliverable = strings.TrimSpace(deliverable)
	var out *domain.Session
	err := s.inTx(ctx, userID, id, func(tx *gorm.DB, sess *domain.Session) error {
		if NeedsConfirmation(sess) {
			return ErrConfirmationRequired
		}
		if sess.IsComplete {
			return ErrAlreadyComplete
		}
		if sess.CurrentStep != sess.TotalSteps {
			return ErrNotLastStep
		}
		if deliverable == "" {
			return ErrEmptyDeliverable
		}
		at := s.now()
		if err := repo.UpdateSession(ctx, tx, id, userID, map[string]any{
			"is_complete":         true,
			"completed_at":        at,
			"deliverable_content": deliverable,
		}); err != nil {
			return err
		}
		sess.IsComplete, sess.CompletedAt, sess.DeliverableContent = true, &at, &deliverable
		out = sess
		return nil
	})
	return out, err
}

// Reset is the administrative reset: back to step 1 with completion,
// deliverable and step conversations cleared. Placements are kept but must
// be confirmed again.
func (s *SessionService) Reset(ctx context.Context, userID, id string) (*domain.Session, error) {
	var out *domain.Session
	err := s.inTx(ctx, userID, id, func(tx *gorm.DB, sess *domain.Session) error {
		if err := repo.UpdateSession(ctx, tx, id, userID, map[string]any{
			"current_step":         1,
			"current_section":      1,
			"placements_confirmed": false,
			"is_complete":          false,
			"completed_at":         nil,
			"deliverable_content":  nil,
		}); err != nil {
			return err
		}
		if err := repo.DeleteConversations(ctx, tx, id); err != nil {
			return err
		}
		fresh, err := repo.GetSession(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		out = fresh
		return nil
	})
	return out, err
}
