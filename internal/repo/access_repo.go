package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-alignment-backend/internal/domain"
)

// GetAttemptsOverride returns the per-user free-attempt override for slug,
// or nil when none is configured.
func GetAttemptsOverride(ctx context.Context, db *gorm.DB, userID, slug string) (*int, error) {
	var row domain.ProductAccess
	err := db.WithContext(ctx).
		Where("user_id = ? AND product_slug = ?", userID, slug).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.FreeAttemptsLimit, nil
}

// SetAttemptsOverride upserts the override; a nil limit removes it.
func SetAttemptsOverride(ctx context.Context, db *gorm.DB, userID, slug string, limit *int) error {
	now := time.Now().UTC()
	row := &domain.ProductAccess{
		UserID:            userID,
		ProductSlug:       slug,
		FreeAttemptsLimit: limit,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"free_attempts_limit", "updated_at"}),
	}).Create(row).Error
}
