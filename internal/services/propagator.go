package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/observability"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

// Propagation sources reported by Propagator.Apply.
const (
	SourceNone    = ""
	SourceSession = "session"
	SourceProfile = "profile"
)

// Propagator seeds a session that is about to be inserted with the user's
// most recently confirmed placements. It must run inside the transaction
// that inserts the row.
type Propagator struct {
	// SourceScan bounds how many confirmed sessions are inspected for a
	// non-empty document.
	SourceScan int
	// UseProfile enables the profile cache as a fallback source.
	UseProfile bool
}

// NewPropagator returns a Propagator that falls back to the profile cache.
func NewPropagator() *Propagator {
	return &Propagator{SourceScan: 20, UseProfile: true}
}

// Apply copies placements into s when s has none and is unconfirmed. The
// copy is always left unconfirmed so the confirmation gate fires. Explicit
// placements are never overwritten.
func (p *Propagator) Apply(ctx context.Context, tx *gorm.DB, s *domain.Session) (string, error) {
	if s.Placements != nil || s.PlacementsConfirmed {
		return SourceNone, nil
	}

	limit := p.SourceScan
	if limit <= 0 {
		limit = 20
	}
	candidates, err := repo.ListConfirmedSources(ctx, tx, s.UserID, s.ID, limit)
	if err != nil {
		return SourceNone, err
	}
	for i := range candidates {
		if !placements.IsEmpty(candidates[i].Placements) {
			s.Placements = candidates[i].Placements.Clone()
			s.PlacementsConfirmed = false
			observability.Propagations.WithLabelValues(SourceSession).Inc()
			return SourceSession, nil
		}
	}

	if !p.UseProfile {
		return SourceNone, nil
	}
	prof, err := repo.GetProfile(ctx, tx, s.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return SourceNone, nil
	}
	if err != nil {
		return SourceNone, err
	}
	if !prof.PlacementsConfirmed || placements.IsEmpty(prof.Placements) {
		return SourceNone, nil
	}
	s.Placements = prof.Placements.Clone()
	s.PlacementsConfirmed = false
	observability.Propagations.WithLabelValues(SourceProfile).Inc()
	return SourceProfile, nil
}

// insertSession is the single insertion path for sessions: propagation and
// insert happen in the same transaction.
func insertSession(ctx context.Context, tx *gorm.DB, p *Propagator, s *domain.Session) (string, error) {
	source := SourceNone
	if p != nil {
		var err error
		if source, err = p.Apply(ctx, tx, s); err != nil {
			return SourceNone, err
		}
	}
	if err := repo.CreateSession(ctx, tx, s); err != nil {
		return SourceNone, err
	}
	return source, nil
}
