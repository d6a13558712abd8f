package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
	"waz-calendar/internal/services"
	"waz-calendar/internal/store"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *models.ValidationError
		network    *store.NetworkError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrAuthFailed), errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFriends), errors.Is(err, services.ErrReadOnlyEvent):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, repositories.ErrAccountNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrNoBackground):
		return http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, repositories.ErrUsernameTaken),
		errors.Is(err, services.ErrEventOverlap),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrRequestPending):
		return http.StatusConflict
	case errors.Is(err, services.ErrSelfRequest):
		return http.StatusBadRequest
	case errors.As(err, &network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unexpected errors are logged and replaced with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var validation *models.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		body["field"] = validation.Field
	}
	var overlap *services.OverlapError
	if errors.As(err, &overlap) {
		body["conflict"] = overlap.Existing
	}
	if errors.Is(err, store.ErrVersionConflict) {
		body["retryable"] = true
	}
	if errors.Is(err, auth.ErrAuthFailed) || errors.Is(err, auth.ErrSessionExpired) {
		body["state"] = auth.StateAfter(err)
	}

	switch status {
	case http.StatusInternalServerError:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = fallback
	case http.StatusBadGateway:
		log.Printf("%s %s: storage unreachable: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "storage unavailable"
	}
	c.JSON(status, body)
}
