package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
)

// AppendMessageRequest is one conversation entry. Follow-up questions are
// posted to /sessions/{id}/follow-ups instead.
type AppendMessageRequest struct {
	Role    string `json:"role"    binding:"required,oneof=user assistant" example:"assistant"`
	Kind    string `json:"kind"    binding:"required,oneof=answer insight follow_up_reply" example:"insight"`
	Content string `json:"content" binding:"required" example:"Your Leo sun points to visible leadership."`
}

// ListMessagesResponse wraps a page of step messages, oldest first.
type ListMessagesResponse struct {
	Messages   []domain.StepMessage `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

// stepParam validates the :step path parameter and writes 400 when it is not
// a positive integer.
func stepParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil || n < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "step must be a positive integer")
		return 0, false
	}
	return n, true
}

// AppendStepMessage godoc
// @ID          appendStepMessage
// @Summary     Append to a step conversation
// @Description Stores the user's answer, an assistant insight or a follow-up reply on a reached step.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                         true  "Authenticated user id"  example(user123)
// @Param       id         path    string                         true  "Session ID (UUID)"      format(uuid)
// @Param       step       path    int                            true  "Step number"            minimum(1)
// @Param       body       body    handlers.AppendMessageRequest  true  "Message"
//
// @Success     201  {object}  domain.StepMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Confirmation required, step not reached or session complete"
// @Router      /sessions/{id}/steps/{step}/messages [post]
func (h *Handlers) AppendStepMessage(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	step, valid := stepParam(c)
	if !valid {
		return
	}
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role, kind and content are required")
		return
	}
	m, err := h.conversations.Append(c.Request.Context(), userID(c), id, step, req.Role, req.Kind, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.LoggerFrom(c).Debug().
		Str("session_id", id).
		Int("step", step).
		Str("kind", m.Kind).
		Msg("conversation message stored")
	ok(c, http.StatusCreated, m)
}

// ListStepMessages godoc
// @ID          listStepMessages
// @Summary     List a step conversation (paginated)
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Authenticated user id"  example(user123)
// @Param       id         path    string  true   "Session ID (UUID)"      format(uuid)
// @Param       step       path    int     true   "Step number"            minimum(1)
// @Param       page       query   int     false  "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Step out of range"
// @Router      /sessions/{id}/steps/{step}/messages [get]
func (h *Handlers) ListStepMessages(c *gin.Context) {
	id, valid := sessionID(c)
	if !valid {
		return
	}
	step, valid := stepParam(c)
	if !valid {
		return
	}
	pg := pageParams(c)
	items, total, err := h.conversations.ListPage(c.Request.Context(), userID(c), id, step, pg.Number, pg.Size)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: pageMeta(total, pg)})
}
