package services

import (
	"errors"
	"fmt"

	"waz-calendar/internal/models"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventOverlap         = errors.New("event overlaps an existing event")
	ErrReadOnlyEvent        = errors.New("shared events cannot be edited")
	ErrNotFriends           = errors.New("users are not friends")
	ErrAlreadyFriends       = errors.New("users are already friends")
	ErrRequestPending       = errors.New("friend request already pending")
	ErrSelfRequest          = errors.New("cannot send a friend request to yourself")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoBackground         = errors.New("no background image for month")
)

// OverlapError names the existing event a new or edited event collides with.
type OverlapError struct {
	Existing models.Event
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps %q (%s to %s)", e.Existing.Content, e.Existing.StartDate, e.Existing.EndDate)
}

func (e *OverlapError) Unwrap() error {
	return ErrEventOverlap
}
