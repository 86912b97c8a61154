package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/services"
	"github.com/lectura-ai/backend/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Question            string               `json:"question" binding:"required"`
	SessionID           string               `json:"session_id"`
	ConversationHistory []models.ChatMessage `json:"conversation_history"`
}

type CreateSessionRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

type SessionHistoryResponse struct {
	SessionID string               `json:"session_id"`
	Messages  []models.ChatMessage `json:"messages"`
	Total     int                  `json:"total"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "invalid request body", err))
		return
	}

	answer, err := h.svc.Chat(c.Request.Context(), c.Param("video_id"), req.Question, req.SessionID, req.ConversationHistory)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.CreateSession", "invalid request body", err))
		return
	}

	receipt, err := h.svc.CreateSession(c.Request.Context(), req.VideoID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (h *ChatHandler) SessionHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit := 0
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	msgs, err := h.svc.SessionHistory(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionHistoryResponse{
		SessionID: sessionID,
		Messages:  msgs,
		Total:     len(msgs),
	})
}

func (h *ChatHandler) Suggestions(c *gin.Context) {
	list, err := h.svc.Suggestions(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ChatHandler) Search(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	results, err := h.svc.Search(c.Request.Context(), c.Param("video_id"), c.Query("query"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
