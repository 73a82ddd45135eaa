// Package services – WizardService
//
// WizardService drives the step-1 machine for a stored session. The machine
// state itself is client-held and re-derived on load; this service validates
// each edge against the stored facts, runs extraction with a caller-side
// deadline, and writes only when READY is entered.
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
	"github.com/tbourn/go-alignment-backend/internal/extraction"
	"github.com/tbourn/go-alignment-backend/internal/observability"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
	"github.com/tbourn/go-alignment-backend/internal/wizard"
)

// Extraction failure codes surfaced to clients.
const (
	CodeExtractionFailed  = "extraction_failed"
	CodeExtractionTimeout = "extraction_timeout"
)

// Step1Request is one event fired from a client-held state.
type Step1Request struct {
	State wizard.State
	Event wizard.Event
	// Files are upload references for SubmitFiles.
	Files []string
	// Placements are the reviewed document for ConfirmReview.
	Placements *placements.Placements
}

// Step1Result is the state reached and anything the client needs to render it.
type Step1Result struct {
	State   wizard.State
	Session *domain.Session
	// Placements is the document to review when State is REVIEW. It is not
	// stored until the user confirms it.
	Placements *placements.Placements
	// ErrorCode is set when extraction failed and State fell back to UPLOAD.
	ErrorCode string
	// Advanced reports that confirming moved the session on to step 2.
	Advanced bool
}

// WizardService applies step-1 transitions.
type WizardService struct {
	DB                *gorm.DB
	Catalog           *catalog.Catalog
	Extractor         extraction.Extractor
	ExtractionTimeout time.Duration
	Profiles          *ProfileService
	Retries           int
}

// Apply validates and performs one step-1 transition for an owned session.
func (s *WizardService) Apply(ctx context.Context, userID, id string, req Step1Request) (*Step1Result, error) {
	ctx, span := otel.Tracer("services/WizardService").Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("step1.state", string(req.State)),
			attribute.String("step1.event", string(req.Event)),
		),
	)
	defer span.End()

	sess, err := repo.GetSession(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.CurrentStep != 1 {
		return nil, ErrNotOnStepOne
	}
	prod, err := s.Catalog.Get(sess.ProductSlug)
	if err != nil {
		return nil, ErrUnknownProduct
	}

	facts := wizard.FactsFor(prod.ShowInstructions, sess.Placements, sess.PlacementsConfirmed)
	if err := wizard.Consistent(req.State, facts); err != nil {
		return nil, err
	}

	if req.Event == wizard.SubmitFiles {
		return s.extract(ctx, sess, req, facts)
	}
	if req.Event == wizard.ExtractionSucceeded || req.Event == wizard.ExtractionFailed {
		return nil, wizard.ErrInvalidTransition
	}

	to, err := wizard.Next(req.State, req.Event, facts)
	if err != nil {
		return nil, err
	}
	res := &Step1Result{State: to, Session: sess}
	switch to {
	case wizard.Ready:
		doc := sess.Placements
		if req.State == wizard.Review && req.Placements != nil {
			doc = req.Placements
		}
		return s.confirm(ctx, sess, prod, doc)
	case wizard.Review:
		res.Placements = sess.Placements.Clone()
	}
	return res, nil
}

// extract runs UPLOAD -> EXTRACTING -> REVIEW|UPLOAD within the request.
// Nothing is written on either outcome.
func (s *WizardService) extract(ctx context.Context, sess *domain.Session, req Step1Request, facts wizard.Facts) (*Step1Result, error) {
	if _, err := wizard.Next(req.State, wizard.SubmitFiles, facts); err != nil {
		return nil, err
	}
	files := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, ErrInvalidInput
	}

	ext := s.Extractor
	if ext == nil {
		ext = extraction.Disabled
	}
	timeout := s.ExtractionTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	xctx, cancel := context.WithTimeout(ctx, timeout)
	doc, err := ext.Extract(xctx, files)
	cancel()

	if err != nil {
		code, outcome := CodeExtractionFailed, "failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, extraction.ErrTimeout) {
			code, outcome = CodeExtractionTimeout, "timeout"
		}
		observability.Extractions.WithLabelValues(outcome).Inc()
		to, _ := wizard.Next(wizard.Extracting, wizard.ExtractionFailed, facts)
		return &Step1Result{State: to, Session: sess, ErrorCode: code}, nil
	}
	observability.Extractions.WithLabelValues("ok").Inc()
	to, _ := wizard.Next(wizard.Extracting, wizard.ExtractionSucceeded, facts)
	return &Step1Result{State: to, Session: sess, Placements: doc}, nil
}

// confirm is the READY entry: persist the confirmed document, move an upload
// step 1 on to step 2, and refresh the profile cache.
func (s *WizardService) confirm(ctx context.Context, sess *domain.Session, prod *catalog.Product, doc *placements.Placements) (*Step1Result, error) {
	if placements.IsEmpty(doc) {
		return nil, ErrEmptyPlacements
	}
	doc = doc.Clone()

	fields := map[string]any{
		"placements":           doc,
		"placements_confirmed": true,
	}
	step1, _ := prod.Step(1)
	advance := step1.AllowFileUpload && sess.TotalSteps > 1
	if advance {
		fields["current_step"] = 2
		fields["current_section"] = 1
	}

	retries := s.Retries
	if retries <= 0 {
		retries = 5
	}
	var out *domain.Session
	err := repo.WithRetry(ctx, retries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := repo.AdvanceStep(ctx, tx, sess.ID, sess.UserID, 1, fields)
			if err != nil {
				return err
			}
			if !ok {
				return ErrStaleStep
			}
			if s.Profiles != nil {
				if _, err := s.Profiles.store(ctx, tx, sess.UserID, doc, true); err != nil {
					return err
				}
			}
			fresh, err := repo.GetSession(ctx, tx, sess.ID, sess.UserID)
			if err != nil {
				return err
			}
			out = fresh
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &Step1Result{State: wizard.Ready, Session: out, Advanced: advance}, nil
}
