package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/services"
)

// ChatHandler serves one-to-one chats between friends.
type ChatHandler struct {
	chats services.ChatService
}

func NewChatHandler(chats services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chats.History(c.Request.Context(), usernameFromContext(c), c.Param("username"))
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Conversations lists the caller's chats with current friends, newest first.
func (h *ChatHandler) Conversations(c *gin.Context) {
	conversations, err := h.chats.Conversations(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to load conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.Send(c.Request.Context(), usernameFromContext(c), c.Param("username"), req.Content)
	if err != nil {
		respondError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) ShareSchedule(c *gin.Context) {
	var req struct {
		EventID string `json:"event_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.ShareSchedule(c.Request.Context(), usernameFromContext(c), c.Param("username"), req.EventID)
	if err != nil {
		respondError(c, err, "failed to share schedule")
		return
	}
	c.JSON(http.StatusCreated, msg)
}
