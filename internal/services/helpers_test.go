package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the shared in-memory database alive and avoids
	// shared-cache table locks between pooled connections.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func intp(n int) *int { return &n }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		&catalog.Product{
			Slug:             "personal",
			Name:             "Personal",
			ShowInstructions: true,
			Steps: []catalog.Step{
				{Number: 1, Title: "Upload", AllowFileUpload: true, Required: true},
				{Number: 2, Title: "Values", AllowFollowUp: true, MaxFollowUps: 2},
				{Number: 3, Title: "Vision", AllowFollowUp: true, MaxFollowUps: 2},
			},
		},
		&catalog.Product{
			Slug:         "business",
			Name:         "Business",
			FreeAttempts: intp(2),
			Steps: []catalog.Step{
				{Number: 1, Title: "Upload", AllowFileUpload: true},
				{Number: 2, Title: "Offer"},
			},
		},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func leo() *placements.Placements {
	return &placements.Placements{
		Astrology:   map[string]string{"sun": "Leo", "moon": "UNKNOWN"},
		HumanDesign: map[string]string{"type": "UNKNOWN"},
	}
}

// seedSession inserts s directly, bypassing propagation.
func seedSession(t *testing.T, db *gorm.DB, s *domain.Session) *domain.Session {
	t.Helper()
	if s.Version == 0 {
		s.Version = 1
	}
	if s.CurrentStep == 0 {
		s.CurrentStep = 1
	}
	if s.CurrentSection == 0 {
		s.CurrentSection = 1
	}
	if s.TotalSteps == 0 {
		s.TotalSteps = 3
	}
	if err := repo.CreateSession(context.Background(), db, s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

func mustGet(t *testing.T, db *gorm.DB, id, userID string) *domain.Session {
	t.Helper()
	s, err := repo.GetSession(context.Background(), db, id, userID)
	if err != nil {
		t.Fatalf("get session %s: %v", id, err)
	}
	return s
}
