package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/openlearn-backend/internal/http/response"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/services"
)

type LearningHandler struct {
	log      *logger.Logger
	sessions services.SessionService
	answers  services.AnswerService
}

func NewLearningHandler(log *logger.Logger, sessions services.SessionService, answers services.AnswerService) *LearningHandler {
	return &LearningHandler{
		log:      log.With("handler", "LearningHandler"),
		sessions: sessions,
		answers:  answers,
	}
}

// POST /learning/ask
func (h *LearningHandler) Ask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.AskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.answers.Answer(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /learning/sessions
func (h *LearningHandler) CreateSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.sessions.CreateSession(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /learning/sessions
func (h *LearningHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	out, err := h.sessions.ListSessions(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /learning/sessions/:id
func (h *LearningHandler) GetSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.sessions.GetSession(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// DELETE /learning/sessions/:id
func (h *LearningHandler) DeleteSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.DeleteSession(c.Request.Context(), userID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
