package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

// ProfileService manages the user-level placements cache. Sessions remain
// the source of truth for their own placements; the cache only seeds new
// sessions when no confirmed session exists.
type ProfileService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *ProfileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Get returns the cache; a user without one gets an empty profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &domain.UserProfile{UserID: userID}, nil
	}
	return p, err
}

// Put replaces the cache. confirmed defaults to true when nil.
func (s *ProfileService) Put(ctx context.Context, userID string, p *placements.Placements, confirmed *bool) (*domain.UserProfile, error) {
	if p == nil {
		return nil, ErrInvalidInput
	}
	c := true
	if confirmed != nil {
		c = *confirmed
	}
	return s.store(ctx, s.DB, userID, p, c)
}

func (s *ProfileService) store(ctx context.Context, db *gorm.DB, userID string, p *placements.Placements, confirmed bool) (*domain.UserProfile, error) {
	if confirmed && placements.IsEmpty(p) {
		return nil, ErrEmptyPlacements
	}
	return repo.UpsertProfilePlacements(ctx, db, userID, p.Clone(), confirmed, s.now())
}

// Clear drops the cached placements.
func (s *ProfileService) Clear(ctx context.Context, userID string) error {
	return repo.ClearProfilePlacements(ctx, s.DB, userID, s.now())
}
