package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/placements"
)

// PutPlacementsRequest replaces the cached placements. Confirmed defaults to
// true; confirmed placements must not be empty.
type PutPlacementsRequest struct {
	Placements *placements.Placements `json:"placements" binding:"required"`
	Confirmed  *bool                  `json:"confirmed,omitempty" example:"true"`
}

// GetProfilePlacements godoc
// @ID          getProfilePlacements
// @Summary     Get cached placements
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
//
// @Success     200  {object}  domain.UserProfile
// @Router      /profile/placements [get]
func (h *Handlers) GetProfilePlacements(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// PutProfilePlacements godoc
// @ID          putProfilePlacements
// @Summary     Replace cached placements
// @Description Stores placements that seed future sessions when no confirmed session exists.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       body       body    handlers.PutPlacementsRequest  true  "Placements"
//
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or empty placements"
// @Router      /profile/placements [put]
func (h *Handlers) PutProfilePlacements(c *gin.Context) {
	var req PutPlacementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "placements required")
		return
	}
	p, err := h.profiles.Put(c.Request.Context(), userID(c), req.Placements, req.Confirmed)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProfilePlacements godoc
// @ID          deleteProfilePlacements
// @Summary     Clear cached placements
// @Tags        Profile
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
//
// @Success     204  {string}  string  "No Content"
// @Router      /profile/placements [delete]
func (h *Handlers) DeleteProfilePlacements(c *gin.Context) {
	if err := h.profiles.Clear(c.Request.Context(), userID(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
