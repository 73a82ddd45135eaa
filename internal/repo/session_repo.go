// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition. Every
// read and write of a single session filters by user_id as well as id.
//
// Error semantics:
//   - When a session is not found (or belongs to another user), functions
//     return gorm.ErrRecordNotFound (exported here as ErrNotFound).
//   - Unique violations on insert are reported as ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/domain"
)

// CreateSession inserts s, assigning an ID and UTC timestamps when unset.
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetSession fetches a session by id and owner.
func GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetLatestSession returns the latest version for (userID, slug).
func GetLatestSession(ctx context.Context, db *gorm.DB, userID, slug string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("user_id = ? AND product_slug = ? AND is_latest_version = ?", userID, slug, true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListConfirmedSources returns the user's confirmed sessions with stored
// placements, newest first, excluding excludeID. Ties on created_at are
// broken by id so the order is deterministic.
func ListConfirmedSources(ctx context.Context, db *gorm.DB, userID, excludeID string, limit int) ([]domain.Session, error) {
	var out []domain.Session
	q := db.WithContext(ctx).
		Where("user_id = ? AND placements_confirmed = ? AND placements IS NOT NULL", userID, true)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("created_at desc").Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}

// CountSessions returns how many versions exist for (userID, slug).
func CountSessions(ctx context.Context, db *gorm.DB, userID, slug string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND product_slug = ?", userID, slug).
		Count(&n).Error
	return n, err
}

// MaxVersion returns the highest version number for (userID, slug), or 0.
func MaxVersion(ctx context.Context, db *gorm.DB, userID, slug string) (int, error) {
	var row struct{ Version int }
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Select("version").
		Where("user_id = ? AND product_slug = ?", userID, slug).
		Order("version desc").
		Limit(1).
		Scan(&row).Error
	return row.Version, err
}

// ListVersionsPage returns a page of versions for (userID, slug), newest
// first. Use CountSessions for the total.
func ListVersionsPage(ctx context.Context, db *gorm.DB, userID, slug string, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("user_id = ? AND product_slug = ?", userID, slug).
		Order("version desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateSession applies fields to the session (id, userID). It returns
// ErrNotFound when no row matched.
func UpdateSession(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RollbackToStepOne forces the session back to step 1, section 1 and clears
// placements_confirmed, leaving placements untouched. The UPDATE only
// matches rows not already in that state, so it reports false when there was
// nothing to do.
func RollbackToStepOne(ctx context.Context, db *gorm.DB, id, userID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id = ?", id, userID).
		Where("(current_step <> 1 OR current_section <> 1 OR placements_confirmed = ?)", true).
		Updates(map[string]any{
			"current_step":         1,
			"current_section":      1,
			"placements_confirmed": false,
		})
	return res.RowsAffected > 0, res.Error
}

// AdvanceStep applies fields only while the session is still on fromStep.
// It reports false when another writer moved it first.
func AdvanceStep(ctx context.Context, db *gorm.DB, id, userID string, fromStep int, fields map[string]any) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id = ? AND current_step = ?", id, userID, fromStep).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// ClearLatest unsets is_latest_version on every version of (userID, slug).
func ClearLatest(ctx context.Context, db *gorm.DB, userID, slug string) error {
	return db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND product_slug = ? AND is_latest_version = ?", userID, slug, true).
		Update("is_latest_version", false).Error
}
