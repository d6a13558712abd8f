package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"waz-calendar/internal/bus"
)

type ReminderRunner interface {
	Run(ctx context.Context, now time.Time) (int, error)
}

// ReminderJob sends the reminders due at the time it runs.
func ReminderJob(r ReminderRunner, now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sent, err := r.Run(ctx, now())
		if sent > 0 {
			log.Printf("reminders sent=%d", sent)
		}
		return err
	}
}

type OnlineUsers interface {
	Connected() []string
}

type UnreadCounter interface {
	UnreadCount(ctx context.Context, username string) (int, error)
}

// UnreadCount is the payload of an unread_count push.
type UnreadCount struct {
	Count int `json:"count"`
}

// UnreadRefreshJob pushes the unread notification count to every connected user.
func UnreadRefreshJob(online OnlineUsers, counter UnreadCounter, publisher bus.Publisher) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, username := range online.Connected() {
			count, err := counter.UnreadCount(ctx, username)
			if err != nil {
				errs = append(errs, fmt.Errorf("unread count %s: %w", username, err))
				continue
			}
			publisher.Publish(ctx, bus.Message{Type: bus.TypeUnreadCount, To: username, Payload: UnreadCount{Count: count}})
		}
		return errors.Join(errs...)
	}
}
