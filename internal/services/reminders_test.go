package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
)

func TestReminderDue(t *testing.T) {
	sent := testEpoch
	event := models.Event{StartDate: "2025-03-10", EndDate: "2025-03-11", ReminderMinutes: intPtr(60)}
	at := func(day, hour, minute int) time.Time {
		return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
	}

	assert.False(t, ReminderDue(event, at(9, 22, 59), time.UTC))
	assert.True(t, ReminderDue(event, at(9, 23, 0), time.UTC))
	assert.True(t, ReminderDue(event, at(11, 23, 59), time.UTC))
	assert.False(t, ReminderDue(event, at(12, 0, 0), time.UTC))

	seoul := time.FixedZone("KST", 9*60*60)
	assert.True(t, ReminderDue(event, at(9, 14, 0), seoul))

	done := event
	done.ReminderSentAt = &sent
	assert.False(t, ReminderDue(done, at(10, 8, 0), time.UTC))

	none := event
	none.ReminderMinutes = nil
	assert.False(t, ReminderDue(none, at(10, 8, 0), time.UTC))
}

func TestReminderRunSendsOnce(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	events := newEventManager(f)
	ctx := context.Background()

	_, err := events.Add(ctx, "alice", models.EventInput{StartDate: "2025-03-10", Content: "exam", ReminderMinutes: intPtr(24 * 60)})
	require.NoError(t, err)
	_, err = events.Add(ctx, "alice", models.EventInput{StartDate: "2025-04-10", Content: "later", ReminderMinutes: intPtr(60)})
	require.NoError(t, err)
	_, err = events.Add(ctx, "bob", models.EventInput{StartDate: "2025-03-10", Content: "no reminder"})
	require.NoError(t, err)

	m := NewReminderManager(f.dir, f.bus, time.UTC)
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)

	sent, err := m.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	alice := f.account(t, "alice")
	require.Len(t, alice.Notifications, 1)
	assert.Equal(t, models.NotificationEventReminder, alice.Notifications[0].Type)
	assert.Equal(t, "system", alice.Notifications[0].From)
	require.NotNil(t, alice.Events[0].ReminderSentAt)
	assert.Len(t, f.bus.ofType(bus.TypeNotification), 1)

	sent, err = m.Run(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sent)
}
