package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// ReminderManager turns due event reminders into event_reminder notifications.
type ReminderManager struct {
	dir repositories.AccountDirectory
	bus bus.Publisher
	loc *time.Location
}

func NewReminderManager(dir repositories.AccountDirectory, publisher bus.Publisher, loc *time.Location) *ReminderManager {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderManager{dir: dir, bus: publisher, loc: loc}
}

// Run sends every reminder that is due at now and not sent yet. It returns how many were sent.
func (m *ReminderManager) Run(ctx context.Context, now time.Time) (int, error) {
	records, err := m.dir.All(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, rec := range records {
		n, err := m.remind(ctx, rec, now)
		if err != nil {
			log.Printf("reminders username=%s: %v", rec.Account.Username, err)
			errs = append(errs, err)
			continue
		}
		sent += n
	}
	return sent, errors.Join(errs...)
}

func (m *ReminderManager) remind(ctx context.Context, rec repositories.AccountRecord, now time.Time) (int, error) {
	acc := rec.Account
	var fired []models.Notification
	for i := range acc.Events {
		e := &acc.Events[i]
		if !ReminderDue(*e, now, m.loc) {
			continue
		}
		sentAt := now.UTC()
		e.ReminderSentAt = &sentAt

		n := newNotification(models.NotificationEventReminder, "system", fmt.Sprintf("Reminder: %s starts on %s", e.Content, e.StartDate), now)
		n.EventID = e.ID
		appendNotification(&acc, n, models.MaxNotifications)
		fired = append(fired, n)
	}
	if len(fired) == 0 {
		return 0, nil
	}

	// a version conflict leaves the reminders unsent for the next run
	if _, err := m.dir.Save(ctx, rec.Handle, acc); err != nil {
		return 0, err
	}
	for _, n := range fired {
		m.bus.Publish(ctx, bus.Message{Type: bus.TypeNotification, To: acc.Username, Payload: n})
	}
	return len(fired), nil
}

// ReminderDue reports whether e's reminder should fire at now.
// The reminder fires reminderMinutes before the start day begins and is dropped once the event is over.
func ReminderDue(e models.Event, now time.Time, loc *time.Location) bool {
	if e.ReminderMinutes == nil || e.ReminderSentAt != nil {
		return false
	}
	start, end, err := e.Range()
	if err != nil {
		return false
	}
	startsAt := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	endsAt := time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, loc)
	fireAt := startsAt.Add(-time.Duration(*e.ReminderMinutes) * time.Minute)
	return !now.Before(fireAt) && now.Before(endsAt)
}
