package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/services"
)

// FriendHandler manages friend lists and friend requests.
type FriendHandler struct {
	friends services.FriendService
}

func NewFriendHandler(friends services.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

func (h *FriendHandler) List(c *gin.Context) {
	friends, err := h.friends.List(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to load friends")
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) Search(c *gin.Context) {
	users, err := h.friends.Search(c.Request.Context(), usernameFromContext(c), c.Query("q"))
	if err != nil {
		respondError(c, err, "failed to search users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *FriendHandler) Requests(c *gin.Context) {
	requests, err := h.friends.Requests(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to load friend requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.friends.SendRequest(c.Request.Context(), usernameFromContext(c), req.Username); err != nil {
		respondError(c, err, "failed to send friend request")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "sent"})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	friend, err := h.friends.Accept(c.Request.Context(), usernameFromContext(c), c.Param("notification_id"))
	if err != nil {
		respondError(c, err, "failed to accept friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"friend": friend})
}

func (h *FriendHandler) Reject(c *gin.Context) {
	if err := h.friends.Reject(c.Request.Context(), usernameFromContext(c), c.Param("notification_id")); err != nil {
		respondError(c, err, "failed to reject friend request")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) Remove(c *gin.Context) {
	if err := h.friends.Remove(c.Request.Context(), usernameFromContext(c), c.Param("username")); err != nil {
		respondError(c, err, "failed to remove friend")
		return
	}
	c.Status(http.StatusNoContent)
}
