package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
)

// ListProductsResponse wraps the product catalog.
type ListProductsResponse struct {
	Products []*catalog.Product `json:"products"`
}

// SessionResponse is a session plus what the client must render for it.
type SessionResponse struct {
	Session           *domain.Session  `json:"session"`
	Product           *catalog.Product `json:"product"`
	NeedsConfirmation bool             `json:"needs_confirmation"`
	// RolledBack is true when this load moved the session back to step 1.
	RolledBack bool `json:"rolled_back"`
	// Step1State is the step-1 state to render; empty past step 1.
	Step1State string `json:"step1_state,omitempty" example:"CONFIRMATION"`
	Created    bool   `json:"created"`
	// SeededFrom is "session" or "profile" when placements were propagated.
	SeededFrom string `json:"seeded_from,omitempty"`
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List products
// @Description Returns every product definition with its ordered steps.
// @Tags        Products
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	ok(c, http.StatusOK, ListProductsResponse{Products: h.catalog.List()})
}

// LoadSession godoc
// @ID          loadSession
// @Summary     Load the latest session for a product
// @Description Returns the user's latest session, creating version 1 on first visit. Placements from
// @Description an earlier confirmed session are propagated into a new or empty session, and a session
// @Description past step 1 whose placements are unconfirmed is rolled back to step 1.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       slug       path    string  true  "Product slug"           example(personal-alignment)
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/{slug}/session [get]
func (h *Handlers) LoadSession(c *gin.Context) {
	view, err := h.sessions.Load(c.Request.Context(), userID(c), c.Param("slug"))
	if err != nil {
		failErr(c, err)
		return
	}
	if view.RolledBack {
		middleware.LoggerFrom(c).Info().
			Str("session_id", view.Session.ID).
			Msg("unconfirmed session rolled back to step 1")
	}
	ok(c, http.StatusOK, SessionResponse{
		Session:           view.Session,
		Product:           view.Product,
		NeedsConfirmation: view.NeedsConfirmation,
		RolledBack:        view.RolledBack,
		Step1State:        string(view.Step1State),
		Created:           view.Created,
		SeededFrom:        view.SeededFrom,
	})
}
