package services

import (
	"context"
	"sort"
	"time"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// NotificationService is the owner's view of their inbox.
type NotificationService interface {
	List(ctx context.Context, username string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, username string) (int, error)
	MarkRead(ctx context.Context, username, id string) error
	MarkAllRead(ctx context.Context, username string) (int, error)
	Delete(ctx context.Context, username, id string) error
}

type NotificationManager struct {
	accounts accounts
	bus      bus.Publisher
	now      func() time.Time
	limit    int
}

func NewNotificationManager(dir repositories.AccountDirectory, publisher bus.Publisher) *NotificationManager {
	return &NotificationManager{
		accounts: accounts{dir: dir},
		bus:      publisher,
		now:      time.Now,
		limit:    models.MaxNotifications,
	}
}

// Notify appends a notification to target's account and pushes it.
func (m *NotificationManager) Notify(ctx context.Context, target string, kind models.NotificationType, from, message string) (models.Notification, error) {
	n := newNotification(kind, from, message, m.now())
	_, err := m.accounts.mutate(ctx, target, func(acc *models.Account) error {
		appendNotification(acc, n, m.limit)
		return nil
	})
	if err != nil {
		return models.Notification{}, err
	}
	m.push(ctx, target, n)
	return n, nil
}

// List returns the notifications newest first.
func (m *NotificationManager) List(ctx context.Context, username string) ([]models.Notification, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return nil, err
	}
	// newest are appended last; reversing first keeps equal timestamps newest first
	list := make([]models.Notification, 0, len(acc.Notifications))
	for i := len(acc.Notifications) - 1; i >= 0; i-- {
		list = append(list, acc.Notifications[i])
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *NotificationManager) UnreadCount(ctx context.Context, username string) (int, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return 0, err
	}
	return unreadCount(acc), nil
}

func (m *NotificationManager) MarkRead(ctx context.Context, username, id string) error {
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindNotification(id)
		if !ok {
			return ErrNotificationNotFound
		}
		acc.Notifications[i].Read = true
		return nil
	})
	return err
}

func (m *NotificationManager) MarkAllRead(ctx context.Context, username string) (int, error) {
	marked := 0
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		for i := range acc.Notifications {
			if !acc.Notifications[i].Read {
				acc.Notifications[i].Read = true
				marked++
			}
		}
		return nil
	})
	return marked, err
}

func (m *NotificationManager) Delete(ctx context.Context, username, id string) error {
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindNotification(id)
		if !ok {
			return ErrNotificationNotFound
		}
		acc.Notifications = append(acc.Notifications[:i], acc.Notifications[i+1:]...)
		return nil
	})
	return err
}

func (m *NotificationManager) push(ctx context.Context, target string, n models.Notification) {
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeNotification, To: target, Payload: n})
}

func unreadCount(acc models.Account) int {
	count := 0
	for _, n := range acc.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
