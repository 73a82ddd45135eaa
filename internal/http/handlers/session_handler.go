package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/services"
)

// PatchSessionRequest is a partial session update. Omitted fields are left
// unchanged. Changing placements without confirming them in the same request
// clears the confirmation.
type PatchSessionRequest struct {
	CurrentStep         *int                   `json:"current_step,omitempty" example:"2"`
	CurrentSection      *int                   `json:"current_section,omitempty" example:"1"`
	Placements          *placements.Placements `json:"placements,omitempty"`
	PlacementsConfirmed *bool                  `json:"placements_confirmed,omitempty"`
	IsComplete          *bool                  `json:"is_complete,omitempty"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
	DeliverableContent  *string                `json:"deliverable_content,omitempty"`
}

// AdvanceRequest names the step the client believes it is on.
type AdvanceRequest struct {
	FromStep int `json:"from_step" binding:"required,min=1" example:"2"`
}

// CompleteRequest carries the generated deliverable.
type CompleteRequest struct {
	DeliverableContent string `json:"deliverable_content" binding:"required" example:"# Your alignment plan"`
}

// FollowUpRequest carries a follow-up question for the current step.
type FollowUpRequest struct {
	Question string `json:"question" binding:"required" example:"How does this apply to pricing?"`
}

// FollowUpResponse reports follow-ups used on the current step.
type FollowUpResponse struct {
	FollowUpsUsed int `json:"follow_ups_used" example:"1"`
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a session
// @Description A session past step 1 whose placements are unconfirmed is rolled back to step 1 first.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	sess, err := h.sessions.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// PatchSession godoc
// @ID          patchSession
// @Summary     Update session fields
// @Description Applies a partial update. Steps past 1 and completion require confirmed placements.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.PatchSessionRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Confirmation required or step out of range"
// @Router      /sessions/{id} [patch]
func (h *Handlers) PatchSession(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	var req PatchSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sess, err := h.sessions.Patch(c.Request.Context(), userID(c), id, services.SessionPatch{
		CurrentStep:         req.CurrentStep,
		CurrentSection:      req.CurrentSection,
		Placements:          req.Placements,
		PlacementsConfirmed: req.PlacementsConfirmed,
		IsComplete:          req.IsComplete,
		CompletedAt:         req.CompletedAt,
		DeliverableContent:  req.DeliverableContent,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// AdvanceSession godoc
// @ID          advanceSession
// @Summary     Advance to the next step
// @Description Moves the session from from_step to from_step+1. Returns 409 stale_step when the
// @Description session is no longer on from_step.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.AdvanceRequest  true  "Current step"
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Stale step, last step, or confirmation required"
// @Router      /sessions/{id}/advance [post]
func (h *Handlers) AdvanceSession(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from_step required (>= 1)")
		return
	}
	sess, err := h.sessions.Advance(c.Request.Context(), userID(c), id, req.FromStep)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// RecordFollowUp godoc
// @ID          recordFollowUp
// @Summary     Ask a follow-up on the current step
// @Description Stores the question in the step's conversation and returns the step's follow-up count.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                    true  "Authenticated user id"  example(user123)
// @Param       id         path    string                    true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.FollowUpRequest  true  "Follow-up question"
//
// @Success     200  {object}  handlers.FollowUpResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long question"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Follow-ups not allowed or limit reached"
// @Router      /sessions/{id}/follow-ups [post]
func (h *Handlers) RecordFollowUp(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	var req FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question is required")
		return
	}
	n, err := h.sessions.RecordFollowUp(c.Request.Context(), userID(c), id, req.Question)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FollowUpResponse{FollowUpsUsed: n})
}

// CompleteSession godoc
// @ID          completeSession
// @Summary     Complete a session
// @Description Stores the deliverable and marks the session complete. The session must be on its last step.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.CompleteRequest  true  "Deliverable"
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not on last step or already complete"
// @Router      /sessions/{id}/complete [post]
func (h *Handlers) CompleteSession(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DeliverableContent) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deliverable_content required")
		return
	}
	sess, err := h.sessions.Complete(c.Request.Context(), userID(c), id, req.DeliverableContent)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}
