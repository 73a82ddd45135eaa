package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
)

// CreateVersionRequest forks the latest session into a new version.
type CreateVersionRequest struct {
	ParentSessionID string `json:"parent_session_id" binding:"required,uuid" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// ListVersionsResponse wraps a page of versions, newest first.
type ListVersionsResponse struct {
	Versions   []domain.Session `json:"versions"`
	Pagination Pagination       `json:"pagination"`
}

// GetAttempts godoc
// @ID          getAttempts
// @Summary     Free-attempt quota for a product
// @Description Reports whether the user may create another version and how many free attempts remain.
// @Tags        Versions
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       slug       path    string  true  "Product slug"           example(personal-alignment)
//
// @Success     200  {object}  services.QuotaStatus
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{slug}/attempts [get]
func (h *Handlers) GetAttempts(c *gin.Context) {
	q, err := h.versions.CanCreateVersion(c.Request.Context(), userID(c), c.Param("slug"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// CreateVersion godoc
// @ID          createVersion
// @Summary     Create a new session version
// @Description Forks the latest session into version N+1 when a free attempt remains. Placements are
// @Description copied unconfirmed and progress restarts at step 1. With an Idempotency-Key, a retried
// @Description request returns the version created by the first call with 200 and Idempotency-Replayed.
// @Tags        Versions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "Authenticated user id"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Deduplicates retries"   example(2b7d1c9e-retry-1)
// @Param       slug             path    string  true   "Product slug"           example(personal-alignment)
// @Param       body             body    handlers.CreateVersionRequest  true  "Parent session"
//
// @Success     201  {object}  domain.Session
// @Success     200  {object}  domain.Session  "Idempotent replay"
// @Header      200  {string}  Idempotency-Replayed  "true"
// @Failure     400  {object}  handlers.ErrorResponse       "Bad request"
// @Failure     403  {object}  handlers.QuotaErrorResponse  "Free attempts used up"
// @Failure     404  {object}  handlers.ErrorResponse       "Product or parent not found"
// @Failure     409  {object}  handlers.ErrorResponse       "Parent is not the latest version"
// @Router      /products/{slug}/versions [post]
func (h *Handlers) CreateVersion(c *gin.Context) {
	var req CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "parent_session_id must be a UUID")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	sess, replay, err := h.versions.CreateVersion(c.Request.Context(), userID(c), c.Param("slug"), strings.ToLower(req.ParentSessionID), key)
	if err != nil {
		failErr(c, err)
		return
	}
	if replay {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, sess)
		return
	}
	middleware.LoggerFrom(c).Info().
		Str("session_id", sess.ID).
		Int("version", sess.Version).
		Msg("session version created")
	ok(c, http.StatusCreated, sess)
}

// ListVersions godoc
// @ID          listVersions
// @Summary     List session versions (paginated)
// @Description Returns the user's versions for a product, newest first. Supports weak ETag via If-None-Match.
// @Tags        Versions
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "Authenticated user id"       example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       slug           path    string  true   "Product slug"                example(personal-alignment)
// @Param       page           query   int     false  "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListVersionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/{slug}/versions [get]
func (h *Handlers) ListVersions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	slug := c.Param("slug")
	pg := pageParams(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.versions.Stats(ctx, uid, slug); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"versions:%s:%s:%d:%d:p%d.%d"`, uid, slug, count, ts, pg.Number, pg.Size)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.versions.ListVersions(ctx, uid, slug, pg.Number, pg.Size)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListVersionsResponse{Versions: items, Pagination: pageMeta(total, pg)})
}
