// Package services – confirmation gate
//
// The gate decides whether a loaded session owes placement confirmation and,
// when it does, persists the rollback to step 1 immediately so every client
// observes the same state.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/observability"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

// NeedsConfirmation reports whether the user must confirm or re-supply
// placements before any step content is served.
func NeedsConfirmation(s *domain.Session) bool {
	return !s.PlacementsConfirmed || placements.IsEmpty(s.Placements)
}

// EnforceGate rolls s back to step 1, section 1 with placements_confirmed
// cleared when confirmation is owed. Placements are never touched. It is
// idempotent: a session already in that state is left alone and false is
// returned. s is updated in place to mirror the stored row.
func EnforceGate(ctx context.Context, db *gorm.DB, s *domain.Session) (bool, error) {
	if !NeedsConfirmation(s) {
		return false, nil
	}
	ctx, span := otel.Tracer("services/Gate").Start(ctx, "EnforceGate",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			observability.UserAttr(s.UserID),
		),
	)
	defer span.End()

	changed, err := repo.RollbackToStepOne(ctx, db, s.ID, s.UserID)
	if err != nil {
		return false, err
	}
	s.CurrentStep, s.CurrentSection, s.PlacementsConfirmed = 1, 1, false
	if changed {
		observability.GateRollbacks.Inc()
	}
	span.SetAttributes(attribute.Bool("gate.rolled_back", changed))
	return changed, nil
}
