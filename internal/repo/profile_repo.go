package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/placements"
)

// GetProfile returns the user's profile row or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfilePlacements stores the placements cache for userID.
func UpsertProfilePlacements(ctx context.Context, db *gorm.DB, userID string, p *placements.Placements, confirmed bool, now time.Time) (*domain.UserProfile, error) {
	row := &domain.UserProfile{
		UserID:              userID,
		Placements:          p,
		PlacementsConfirmed: confirmed,
		PlacementsUpdatedAt: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"placements", "placements_confirmed", "placements_updated_at", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, userID)
}

// ClearProfilePlacements nulls the cache. Missing profiles are not an error.
func ClearProfilePlacements(ctx context.Context, db *gorm.DB, userID string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"placements":            nil,
			"placements_confirmed":  false,
			"placements_updated_at": now,
		}).Error
}
