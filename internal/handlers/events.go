package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/models"
	"waz-calendar/internal/services"
)

// EventHandler serves the calendar events of the authenticated user.
type EventHandler struct {
	events services.EventService
}

func NewEventHandler(events services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to load events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) Create(c *gin.Context) {
	var in models.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Add(c.Request.Context(), usernameFromContext(c), in)
	if err != nil {
		respondError(c, err, "failed to create event")
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	var in models.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Update(c.Request.Context(), usernameFromContext(c), c.Param("event_id"), in)
	if err != nil {
		respondError(c, err, "failed to update event")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), usernameFromContext(c), c.Param("event_id")); err != nil {
		respondError(c, err, "failed to delete event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) Share(c *gin.Context) {
	var req struct {
		Friend string `json:"friend" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shared, err := h.events.Share(c.Request.Context(), usernameFromContext(c), c.Param("event_id"), req.Friend)
	if err != nil {
		respondError(c, err, "failed to share event")
		return
	}
	c.JSON(http.StatusCreated, shared)
}
