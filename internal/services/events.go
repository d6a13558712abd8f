package services

import (
	"context"
	"fmt"
	"time"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// EventService manages the events (memos) of an account.
type EventService interface {
	List(ctx context.Context, username string) ([]models.Event, error)
	Add(ctx context.Context, username string, in models.EventInput) (models.Event, error)
	Update(ctx context.Context, username, id string, in models.EventInput) (models.Event, error)
	Delete(ctx context.Context, username, id string) error
	Share(ctx context.Context, owner, id, friend string) (models.Event, error)
	ExportICS(ctx context.Context, username string) ([]byte, error)
}

type EventManager struct {
	accounts accounts
	bus      bus.Publisher
	now      func() time.Time
}

func NewEventManager(dir repositories.AccountDirectory, publisher bus.Publisher) *EventManager {
	return &EventManager{accounts: accounts{dir: dir}, bus: publisher, now: time.Now}
}

func (m *EventManager) List(ctx context.Context, username string) ([]models.Event, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return nil, err
	}
	if acc.Events == nil {
		return []models.Event{}, nil
	}
	return acc.Events, nil
}

// Add validates in, rejects overlaps with the user's own events and stores a new event.
func (m *EventManager) Add(ctx context.Context, username string, in models.EventInput) (models.Event, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return models.Event{}, err
	}

	event := models.Event{ID: newID("memo"), CreatedAt: m.now().UTC()}
	event.Apply(in)
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		if err := checkConflict(acc.Events, event, ""); err != nil {
			return err
		}
		acc.Events = append(acc.Events, event)
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	m.changed(ctx, username)
	return event, nil
}

func (m *EventManager) Update(ctx context.Context, username, id string, in models.EventInput) (models.Event, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return models.Event{}, err
	}

	var updated models.Event
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindEvent(id)
		if !ok {
			return ErrEventNotFound
		}
		if acc.Events[i].IsShared {
			return ErrReadOnlyEvent
		}
		candidate := acc.Events[i]
		candidate.Apply(in)
		if err := checkConflict(acc.Events, candidate, id); err != nil {
			return err
		}
		now := m.now().UTC()
		candidate.UpdatedAt = &now
		acc.Events[i] = candidate
		updated = candidate
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	m.changed(ctx, username)
	return updated, nil
}

// Delete removes an event. Shared copies may be deleted by their recipient.
func (m *EventManager) Delete(ctx context.Context, username, id string) error {
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindEvent(id)
		if !ok {
			return ErrEventNotFound
		}
		acc.Events = append(acc.Events[:i], acc.Events[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	m.changed(ctx, username)
	return nil
}

// Share appends a read-only copy of the event to a friend's calendar and notifies them.
func (m *EventManager) Share(ctx context.Context, owner, id, friend string) (models.Event, error) {
	acc, err := m.accounts.load(ctx, owner)
	if err != nil {
		return models.Event{}, err
	}
	if !acc.IsFriend(friend) {
		return models.Event{}, ErrNotFriends
	}
	i, ok := acc.FindEvent(id)
	if !ok {
		return models.Event{}, ErrEventNotFound
	}

	now := m.now().UTC()
	shared := acc.Events[i]
	shared.ID = newID("memo")
	shared.IsShared = true
	shared.SharedBy = owner
	shared.CreatedAt = now
	shared.UpdatedAt = nil
	shared.ReminderMinutes = nil
	shared.ReminderSentAt = nil

	n := newNotification(models.NotificationEventShared, owner, fmt.Sprintf("%s shared an event: %s", owner, shared.Content), now)
	n.EventID = shared.ID
	_, err = m.accounts.mutate(ctx, friend, func(target *models.Account) error {
		target.Events = append(target.Events, shared)
		appendNotification(target, n, models.MaxNotifications)
		return nil
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("share event with %s: %w", friend, err)
	}

	m.bus.Publish(ctx, bus.Message{Type: bus.TypeNotification, To: friend, Payload: n})
	m.changed(ctx, friend)
	return shared, nil
}

func (m *EventManager) ExportICS(ctx context.Context, username string) ([]byte, error) {
	events, err := m.List(ctx, username)
	if err != nil {
		return nil, err
	}
	return encodeICS(username, events, m.now())
}

func (m *EventManager) changed(ctx context.Context, username string) {
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeEventsChange, To: username})
}

// checkConflict fails when candidate overlaps one of the user's own events other than excludeID.
func checkConflict(events []models.Event, candidate models.Event, excludeID string) error {
	start, end, err := candidate.Range()
	if err != nil {
		return err
	}
	if existing, ok := newOverlapIndex(events, excludeID).conflict(start, end); ok {
		return &OverlapError{Existing: existing}
	}
	return nil
}
