package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/services"
)

// CalendarHandler serves calendar-wide resources: the iCalendar export and month backgrounds.
type CalendarHandler struct {
	events      services.EventService
	backgrounds services.BackgroundService
	now         func() time.Time
}

func NewCalendarHandler(events services.EventService, backgrounds services.BackgroundService) *CalendarHandler {
	return &CalendarHandler{events: events, backgrounds: backgrounds, now: time.Now}
}

func (h *CalendarHandler) ExportICS(c *gin.Context) {
	username := usernameFromContext(c)
	data, err := h.events.ExportICS(c.Request.Context(), username)
	if err != nil {
		respondError(c, err, "failed to export calendar")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, username))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// Background returns a random image for ?month=1..12, defaulting to the current month.
func (h *CalendarHandler) Background(c *gin.Context) {
	month := int(h.now().Month())
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month", "field": "month"})
			return
		}
		month = parsed
	}

	bg, err := h.backgrounds.Pick(c.Request.Context(), month)
	if err != nil {
		respondError(c, err, "failed to load background")
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Header("X-Background-Name", bg.Name)
	c.Data(http.StatusOK, bg.ContentType, bg.Content)
}
