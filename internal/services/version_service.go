// Package services – VersionService
//
// VersionService lets a user start a product over a limited number of times
// for free. The quota check, the latest-version flip and the insert of the
// new version run in one transaction; the SQLite handle opens write
// transactions with BEGIN IMMEDIATE so concurrent creators are serialized
// and the loser re-reads the count.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/observability"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

// UnlimitedAttempts is the limit reported for administrative accounts.
const UnlimitedAttempts = 999999

// QuotaStatus describes how many free retries a user has left for a product.
type QuotaStatus struct {
	CanCreate         bool `json:"can_create"`
	AttemptsUsed      int  `json:"attempts_used"`
	AttemptsLimit     int  `json:"attempts_limit"`
	AttemptsRemaining int  `json:"attempts_remaining"`
	Unlimited         bool `json:"unlimited"`
}

// VersionService creates and lists session versions under the attempt quota.
type VersionService struct {
	DB         *gorm.DB
	Catalog    *catalog.Catalog
	Propagator *Propagator
	// DefaultLimit applies when neither the user nor the product sets one.
	DefaultLimit   int
	AdminIDs       map[string]bool
	IdempotencyTTL time.Duration
	Retries        int
}

// NewVersionService wires a VersionService. adminIDs are matched exactly.
func NewVersionService(db *gorm.DB, cat *catalog.Catalog, p *Propagator, defaultLimit int, adminIDs []string, ttl time.Duration) *VersionService {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = true
		}
	}
	return &VersionService{
		DB:             db,
		Catalog:        cat,
		Propagator:     p,
		DefaultLimit:   defaultLimit,
		AdminIDs:       admins,
		IdempotencyTTL: ttl,
		Retries:        5,
	}
}

func idemScope(slug string) string { return "create-version:" + slug }

// CanCreateVersion reports the quota for (userID, slug).
func (s *VersionService) CanCreateVersion(ctx context.Context, userID, slug string) (QuotaStatus, error) {
	prod, err := s.Catalog.Get(slug)
	if err != nil {
		return QuotaStatus{}, ErrUnknownProduct
	}
	return s.quota(ctx, s.DB, userID, prod)
}

func (s *VersionService) quota(ctx context.Context, db *gorm.DB, userID string, prod *catalog.Product) (QuotaStatus, error) {
	n, err := repo.CountSessions(ctx, db, userID, prod.Slug)
	if err != nil {
		return QuotaStatus{}, err
	}
	used := int(n) - 1
	if used < 0 {
		used = 0
	}
	limit, unlimited, err := s.limit(ctx, db, userID, prod)
	if err != nil {
		return QuotaStatus{}, err
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{
		CanCreate:         unlimited || used < limit,
		AttemptsUsed:      used,
		AttemptsLimit:     limit,
		AttemptsRemaining: remaining,
		Unlimited:         unlimited,
	}, nil
}

// limit resolves admin, then per-user override, then product, then default.
func (s *VersionService) limit(ctx context.Context, db *gorm.DB, userID string, prod *catalog.Product) (int, bool, error) {
	if s.AdminIDs[userID] {
		return UnlimitedAttempts, true, nil
	}
	override, err := repo.GetAttemptsOverride(ctx, db, userID, prod.Slug)
	if err != nil {
		return 0, false, err
	}
	switch {
	case override != nil:
		return *override, *override >= UnlimitedAttempts, nil
	case prod.FreeAttempts != nil:
		return *prod.FreeAttempts, false, nil
	default:
		return s.DefaultLimit, false, nil
	}
}

// CreateVersion forks parentID into a new latest version. With a non-empty
// idemKey a repeated call returns the version created by the first one and
// replay is true.
func (s *VersionService) CreateVersion(ctx context.Context, userID, slug, parentID, idemKey string) (*domain.Session, bool, error) {
	ctx, span := otel.Tracer("services/VersionService").Start(ctx, "CreateVersion",
		trace.WithAttributes(
			observability.UserAttr(userID),
			attribute.String("product.slug", slug),
			attribute.String("parent.id", parentID),
		),
	)
	defer span.End()

	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil, false, ErrInvalidInput
	}
	prod, err := s.Catalog.Get(slug)
	if err != nil {
		return nil, false, ErrUnknownProduct
	}
	idemKey = strings.TrimSpace(idemKey)

	var (
		out    *domain.Session
		replay bool
	)
	err = repo.WithRetry(ctx, s.Retries, func() error {
		out, replay = nil, false
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if idemKey != "" {
				rec, err := repo.GetIdempotency(ctx, tx, userID, idemScope(slug), idemKey, time.Now().UTC())
				switch {
				case err == nil:
					prev, err := repo.GetSession(ctx, tx, rec.ResourceID, userID)
					if err != nil {
						return err
					}
					out, replay = prev, true
					return nil
				case !errors.Is(err, repo.ErrNotFound):
					return err
				}
			}

			q, err := s.quota(ctx, tx, userID, prod)
			if err != nil {
				return err
			}
			if !q.CanCreate {
				observability.QuotaRejections.Inc()
				return &QuotaExceededError{Used: q.AttemptsUsed, Limit: q.AttemptsLimit}
			}

			parent, err := repo.GetSession(ctx, tx, parentID, userID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSessionNotFound
			}
			if err != nil {
				return err
			}
			if parent.ProductSlug != prod.Slug {
				return ErrSessionNotFound
			}
			if !parent.IsLatestVersion {
				return ErrParentNotLatest
			}

			maxV, err := repo.MaxVersion(ctx, tx, userID, prod.Slug)
			if err != nil {
				return err
			}
			if err := repo.ClearLatest(ctx, tx, userID, prod.Slug); err != nil {
				return err
			}
			pid := parent.ID
			child := &domain.Session{
				UserID:          userID,
				ProductSlug:     prod.Slug,
				Version:         maxV + 1,
				ParentSessionID: &pid,
				CurrentStep:     1,
				CurrentSection:  1,
				TotalSteps:      prod.TotalSteps(),
				Placements:      parent.Placements.Clone(),
				IsLatestVersion: true,
			}
			if _, err := insertSession(ctx, tx, s.Propagator, child); err != nil {
				return err
			}
			if idemKey != "" {
				ttl := s.IdempotencyTTL
				if ttl <= 0 {
					ttl = 24 * time.Hour
				}
				if _, err := repo.CreateIdempotency(ctx, tx, userID, idemScope(slug), idemKey, child.ID, http.StatusCreated, ttl); err != nil {
					return err
				}
			}
			out = child
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if !replay {
		observability.VersionsCreated.Inc()
	}
	span.SetAttributes(
		attribute.Int("session.version", out.Version),
		attribute.Bool("idempotent.replay", replay),
	)
	return out, replay, nil
}

// ListVersions returns a page of (userID, slug) versions, newest first, with
// the total count.
func (s *VersionService) ListVersions(ctx context.Context, userID, slug string, page, pageSize int) ([]domain.Session, int64, error) {
	ctx, span := otel.Tracer("services/VersionService").Start(ctx, "ListVersions",
		trace.WithAttributes(
			attribute.String("product.slug", slug),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := s.Catalog.Get(slug); err != nil {
		return nil, 0, ErrUnknownProduct
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountSessions(ctx, s.DB, userID, slug)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}
	items, err := repo.ListVersionsPage(ctx, s.DB, userID, slug, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Stats returns the version count and newest update time, for ETags.
func (s *VersionService) Stats(ctx context.Context, userID, slug string) (int64, *time.Time, error) {
	return repo.VersionsStats(ctx, s.DB, userID, slug)
}

// GrantUnlimited sets or clears the per-user override for slug.
func (s *VersionService) GrantUnlimited(ctx context.Context, userID, slug string, unlimited bool) error {
	if _, err := s.Catalog.Get(slug); err != nil {
		return ErrUnknownProduct
	}
	var limit *int
	if unlimited {
		n := UnlimitedAttempts
		limit = &n
	}
	return repo.SetAttemptsOverride(ctx, s.DB, userID, slug, limit)
}
