// Session HTTP handlers.
//
// This file declares the service contracts the transport depends on, the
// Handlers aggregate, and helpers shared by every endpoint:
//   - products and their latest session     (products.go)
//   - session progression                   (session_handler.go)
//   - per-step conversations                (conversation_handler.go)
//   - the step-1 placement flow             (step1_handler.go)
//   - versions and the free-attempt quota   (version_handler.go)
//   - the profile placements cache          (profile_handler.go)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/services"
	"github.com/tbourn/go-alignment-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService loads and progresses product sessions.
//
// Implementations must scope every call to userID and honor the provided
// context for cancellation and timeouts.
type SessionService interface {
	// Load returns the latest session for a product, creating version 1 on
	// first visit and enforcing the confirmation gate.
	Load(ctx context.Context, userID, slug string) (*services.SessionView, error)
	Get(ctx context.Context, userID, id string) (*domain.Session, error)
	Patch(ctx context.Context, userID, id string, p services.SessionPatch) (*domain.Session, error)
	// Advance moves from fromStep to fromStep+1; fromStep guards against
	// concurrent progression.
	Advance(ctx context.Context, userID, id string, fromStep int) (*domain.Session, error)
	// RecordFollowUp stores question as a follow-up on the current step and
	// returns the step's follow-up count.
	RecordFollowUp(ctx context.Context, userID, id, question string) (int, error)
	Complete(ctx context.Context, userID, id, deliverable string) (*domain.Session, error)
}

// StepOneService applies step-1 placement events.
type StepOneService interface {
	Apply(ctx context.Context, userID, id string, req services.Step1Request) (*services.Step1Result, error)
}

// ConversationService appends to and pages through per-step conversations.
type ConversationService interface {
	Append(ctx context.Context, userID, sessionID string, step int, role, kind, content string) (*domain.StepMessage, error)
	ListPage(ctx context.Context, userID, sessionID string, step, page, pageSize int) ([]domain.StepMessage, int64, error)
}

// VersionService creates and lists session versions under the free-attempt quota.
type VersionService interface {
	CanCreateVersion(ctx context.Context, userID, slug string) (services.QuotaStatus, error)
	// CreateVersion reports replay=true when idemKey matched an earlier call.
	CreateVersion(ctx context.Context, userID, slug, parentID, idemKey string) (*domain.Session, bool, error)
	ListVersions(ctx context.Context, userID, slug string, page, pageSize int) ([]domain.Session, int64, error)
	Stats(ctx context.Context, userID, slug string) (int64, *time.Time, error)
}

// ProfileService reads and writes the per-user placements cache.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Put(ctx context.Context, userID string, p *placements.Placements, confirmed *bool) (*domain.UserProfile, error)
	Clear(ctx context.Context, userID string) error
}

var (
	_ SessionService      = (*services.SessionService)(nil)
	_ StepOneService      = (*services.WizardService)(nil)
	_ ConversationService = (*services.ConversationService)(nil)
	_ VersionService      = (*services.VersionService)(nil)
	_ ProfileService      = (*services.ProfileService)(nil)
)

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	catalog       *catalog.Catalog
	sessions      SessionService
	step1         StepOneService
	conversations ConversationService
	versions      VersionService
	profiles      ProfileService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(cat *catalog.Catalog, sessions SessionService, step1 StepOneService, conversations ConversationService, versions VersionService, profiles ProfileService) *Handlers {
	return &Handlers{
		catalog:       cat,
		sessions:      sessions,
		step1:         step1,
		conversations: conversations,
		versions:      versions,
		profiles:      profiles,
	}
}

// Mount registers every endpoint on g. The group must run
// middleware.RequireUser.
func (h *Handlers) Mount(g *gin.RouterGroup) {
	// Products
	g.GET("/products", h.ListProducts)
	g.GET("/products/:slug/session", h.LoadSession)
	g.GET("/products/:slug/attempts", h.GetAttempts)
	g.GET("/products/:slug/versions", h.ListVersions)
	g.POST("/products/:slug/versions", h.CreateVersion)

	// Sessions
	g.GET("/sessions/:id", h.GetSession)
	g.PATCH("/sessions/:id", h.PatchSession)
	g.POST("/sessions/:id/step1", h.Step1)
	g.POST("/sessions/:id/advance", h.AdvanceSession)
	g.POST("/sessions/:id/follow-ups", h.RecordFollowUp)
	g.POST("/sessions/:id/complete", h.CompleteSession)
	g.GET("/sessions/:id/steps/:step/messages", h.ListStepMessages)
	g.POST("/sessions/:id/steps/:step/messages", h.AppendStepMessage)

	// Profile cache
	g.GET("/profile/placements", h.GetProfilePlacements)
	g.PUT("/profile/placements", h.PutProfilePlacements)
	g.DELETE("/profile/placements", h.DeleteProfilePlacements)
}

// userID returns the caller resolved by middleware.Identity. Routes are
// mounted behind middleware.RequireUser, so it is never empty there.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

// sessionID validates the :id path parameter and writes 400 when it is not a
// UUID.
func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return "", false
	}
	return id, true
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// pageParams parses page and page_size, capping page_size at 100.
func pageParams(c *gin.Context) utils.Page {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"), 20, 100)
}

func pageMeta(total int64, p utils.Page) Pagination {
	pages := utils.TotalPages(total, p.Size)
	return Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Number < pages,
	}
}
