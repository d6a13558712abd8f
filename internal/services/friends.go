package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/observability"
	"waz-calendar/internal/repositories"
)

// FriendService manages symmetric friend links and friend requests.
type FriendService interface {
	List(ctx context.Context, username string) ([]string, error)
	Search(ctx context.Context, username, term string) ([]string, error)
	Requests(ctx context.Context, username string) ([]models.Notification, error)
	SendRequest(ctx context.Context, from, to string) error
	Accept(ctx context.Context, username, notificationID string) (string, error)
	Reject(ctx context.Context, username, notificationID string) error
	Remove(ctx context.Context, username, friend string) error
}

type FriendManager struct {
	dir      repositories.AccountDirectory
	accounts accounts
	bus      bus.Publisher
	now      func() time.Time
}

func NewFriendManager(dir repositories.AccountDirectory, publisher bus.Publisher) *FriendManager {
	return &FriendManager{dir: dir, accounts: accounts{dir: dir}, bus: publisher, now: time.Now}
}

func (m *FriendManager) List(ctx context.Context, username string) ([]string, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return nil, err
	}
	if acc.Friends == nil {
		return []string{}, nil
	}
	return acc.Friends, nil
}

// Search finds other users whose name contains term, ignoring case.
func (m *FriendManager) Search(ctx context.Context, username, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &models.ValidationError{Field: "q", Message: "search term must not be empty"}
	}
	return m.dir.Search(ctx, term, username)
}

// Requests returns the friend requests waiting for username.
func (m *FriendManager) Requests(ctx context.Context, username string) ([]models.Notification, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return nil, err
	}
	pending := []models.Notification{}
	for _, n := range acc.Notifications {
		if n.Type == models.NotificationFriendRequest {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

// SendRequest appends a friend_request notification to the target account.
func (m *FriendManager) SendRequest(ctx context.Context, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return &models.ValidationError{Field: "username", Message: "must not be empty"}
	}
	if to == from {
		return ErrSelfRequest
	}

	n := newNotification(models.NotificationFriendRequest, from, from+" sent you a friend request", m.now())
	_, err := m.accounts.mutate(ctx, to, func(acc *models.Account) error {
		if acc.IsFriend(from) {
			return ErrAlreadyFriends
		}
		for _, existing := range acc.Notifications {
			if existing.Type == models.NotificationFriendRequest && existing.From == from {
				return ErrRequestPending
			}
		}
		appendNotification(acc, n, models.MaxNotifications)
		return nil
	})
	if err != nil {
		return err
	}
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeNotification, To: to, Payload: n})
	return nil
}

// Accept links username and the requester on both accounts.
//
// The acceptor's account is written first. If the requester's account cannot
// be updated, the first write is compensated.
func (m *FriendManager) Accept(ctx context.Context, username, notificationID string) (string, error) {
	var (
		request     models.Notification
		addedFriend bool
	)
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindNotification(notificationID)
		if !ok || acc.Notifications[i].Type != models.NotificationFriendRequest {
			return ErrNotificationNotFound
		}
		request = acc.Notifications[i]
		acc.Notifications = append(acc.Notifications[:i], acc.Notifications[i+1:]...)
		addedFriend = acc.AddFriend(request.From)
		return nil
	})
	if err != nil {
		return "", err
	}
	requester := request.From

	accepted := newNotification(models.NotificationFriendAccepted, username, username+" accepted your friend request", m.now())
	_, err = m.accounts.mutate(ctx, requester, func(acc *models.Account) error {
		acc.AddFriend(username)
		appendNotification(acc, accepted, models.MaxNotifications)
		return nil
	})
	if err != nil {
		restoreRequest := !errors.Is(err, repositories.ErrAccountNotFound)
		m.compensate(ctx, "friend_accept", username, func(acc *models.Account) error {
			if addedFriend {
				acc.RemoveFriend(requester)
			}
			if restoreRequest {
				if _, exists := acc.FindNotification(request.ID); !exists {
					acc.Notifications = append(acc.Notifications, request)
				}
			}
			return nil
		})
		return "", fmt.Errorf("accept friend request from %s: %w", requester, err)
	}

	m.bus.Publish(ctx, bus.Message{Type: bus.TypeNotification, To: requester, Payload: accepted})
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeFriendsChange, To: requester})
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeFriendsChange, To: username})
	return requester, nil
}

func (m *FriendManager) Reject(ctx context.Context, username, notificationID string) error {
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		i, ok := acc.FindNotification(notificationID)
		if !ok || acc.Notifications[i].Type != models.NotificationFriendRequest {
			return ErrNotificationNotFound
		}
		acc.Notifications = append(acc.Notifications[:i], acc.Notifications[i+1:]...)
		return nil
	})
	return err
}

// Remove unlinks two friends on both accounts, compensating the first write on failure.
func (m *FriendManager) Remove(ctx context.Context, username, friend string) error {
	_, err := m.accounts.mutate(ctx, username, func(acc *models.Account) error {
		if !acc.RemoveFriend(friend) {
			return ErrNotFriends
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = m.accounts.mutate(ctx, friend, func(acc *models.Account) error {
		acc.RemoveFriend(username)
		return nil
	})
	if err != nil && !errors.Is(err, repositories.ErrAccountNotFound) {
		m.compensate(ctx, "friend_remove", username, func(acc *models.Account) error {
			acc.AddFriend(friend)
			return nil
		})
		return fmt.Errorf("remove %s from %s: %w", username, friend, err)
	}

	m.bus.Publish(ctx, bus.Message{Type: bus.TypeFriendsChange, To: username})
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeFriendsChange, To: friend})
	return nil
}

func (m *FriendManager) compensate(ctx context.Context, workflow, username string, undo func(*models.Account) error) {
	_, err := m.accounts.mutate(ctx, username, undo)
	observability.IncSagaCompensation(workflow, err == nil)
	if err != nil {
		log.Printf("saga %s: compensation for username=%s failed, accounts may disagree: %v", workflow, username, err)
		return
	}
	log.Printf("saga %s: compensated username=%s", workflow, username)
}
