package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/services"
	"github.com/tbourn/go-alignment-backend/internal/wizard"
)

// Step1Request fires one event from the state the client is rendering.
type Step1Request struct {
	State string `json:"state" binding:"required" example:"UPLOAD"`
	Event string `json:"event" binding:"required" example:"submit_files"`
	// Files are upload references, required for submit_files.
	Files []string `json:"files,omitempty" example:"uploads/chart.pdf"`
	// Placements is the reviewed document for confirm_review.
	Placements *placements.Placements `json:"placements,omitempty"`
}

// Step1Response is the state reached.
type Step1Response struct {
	State   string          `json:"state" example:"REVIEW"`
	Session *domain.Session `json:"session"`
	// Placements is the document to review in REVIEW. It is not stored yet.
	Placements *placements.Placements `json:"placements,omitempty"`
	// ErrorCode is extraction_failed or extraction_timeout when extraction
	// fell back to UPLOAD.
	ErrorCode string `json:"error_code,omitempty" example:"extraction_timeout"`
	Advanced  bool   `json:"advanced"`
}

// Step1 godoc
// @ID          step1Transition
// @Summary     Apply a step-1 placement event
// @Description Runs one transition of the placement confirmation flow. Extraction failures fall back to
// @Description UPLOAD with an error_code and never modify the session. Confirming moves the session to step 2.
// @Tags        Step1
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user id"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.Step1Request  true  "Event"
//
// @Success     200  {object}  handlers.Step1Response
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or empty placements"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Session is not on step 1"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid transition"
// @Router      /sessions/{id}/step1 [post]
func (h *Handlers) Step1(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	var req Step1Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state and event required")
		return
	}
	st, err := wizard.ParseState(req.State)
	if err != nil {
		failErr(c, err)
		return
	}
	ev, err := wizard.ParseEvent(req.Event)
	if err != nil {
		failErr(c, err)
		return
	}

	res, err := h.step1.Apply(c.Request.Context(), userID(c), id, services.Step1Request{
		State:      st,
		Event:      ev,
		Files:      req.Files,
		Placements: req.Placements,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.ErrorCode != "" {
		middleware.LoggerFrom(c).Warn().
			Str("session_id", id).
			Str("error_code", res.ErrorCode).
			Int("files", len(req.Files)).
			Msg("placement extraction failed")
	}
	ok(c, http.StatusOK, Step1Response{
		State:      string(res.State),
		Session:    res.Session,
		Placements: res.Placements,
		ErrorCode:  res.ErrorCode,
		Advanced:   res.Advanced,
	})
}
