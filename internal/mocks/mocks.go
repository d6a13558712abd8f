package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/models"
	"waz-calendar/internal/services"
)

var (
	_ auth.Authenticator           = (*AuthenticatorMock)(nil)
	_ services.EventService        = (*EventServiceMock)(nil)
	_ services.FriendService       = (*FriendServiceMock)(nil)
	_ services.ChatService         = (*ChatServiceMock)(nil)
	_ services.NotificationService = (*NotificationServiceMock)(nil)
	_ services.BackgroundService   = (*BackgroundServiceMock)(nil)
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Signup(ctx context.Context, username, password, confirm string) (auth.Profile, error) {
	args := m.Called(ctx, username, password, confirm)
	var profile auth.Profile
	if val := args.Get(0); val != nil {
		profile = val.(auth.Profile)
	}
	return profile, args.Error(1)
}

func (m *AuthenticatorMock) Login(ctx context.Context, username, password string) (*auth.Session, error) {
	args := m.Called(ctx, username, password)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *AuthenticatorMock) Restore(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *AuthenticatorMock) Verify(token string) (*auth.Session, error) {
	args := m.Called(token)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *AuthenticatorMock) Logout(token string) {
	m.Called(token)
}

type EventServiceMock struct {
	mock.Mock
}

func (m *EventServiceMock) List(ctx context.Context, username string) ([]models.Event, error) {
	args := m.Called(ctx, username)
	var events []models.Event
	if val := args.Get(0); val != nil {
		events = val.([]models.Event)
	}
	return events, args.Error(1)
}

func (m *EventServiceMock) Add(ctx context.Context, username string, in models.EventInput) (models.Event, error) {
	args := m.Called(ctx, username, in)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, username, id string, in models.EventInput) (models.Event, error) {
	args := m.Called(ctx, username, id, in)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, username, id string) error {
	args := m.Called(ctx, username, id)
	return args.Error(0)
}

func (m *EventServiceMock) Share(ctx context.Context, owner, id, friend string) (models.Event, error) {
	args := m.Called(ctx, owner, id, friend)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

func (m *EventServiceMock) ExportICS(ctx context.Context, username string) ([]byte, error) {
	args := m.Called(ctx, username)
	var data []byte
	if val := args.Get(0); val != nil {
		data = val.([]byte)
	}
	return data, args.Error(1)
}

type FriendServiceMock struct {
	mock.Mock
}

func (m *FriendServiceMock) List(ctx context.Context, username string) ([]string, error) {
	args := m.Called(ctx, username)
	var names []string
	if val := args.Get(0); val != nil {
		names = val.([]string)
	}
	return names, args.Error(1)
}

func (m *FriendServiceMock) Search(ctx context.Context, username, term string) ([]string, error) {
	args := m.Called(ctx, username, term)
	var names []string
	if val := args.Get(0); val != nil {
		names = val.([]string)
	}
	return names, args.Error(1)
}

func (m *FriendServiceMock) Requests(ctx context.Context, username string) ([]models.Notification, error) {
	args := m.Called(ctx, username)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *FriendServiceMock) SendRequest(ctx context.Context, from, to string) error {
	args := m.Called(ctx, from, to)
	return args.Error(0)
}

func (m *FriendServiceMock) Accept(ctx context.Context, username, notificationID string) (string, error) {
	args := m.Called(ctx, username, notificationID)
	return args.String(0), args.Error(1)
}

func (m *FriendServiceMock) Reject(ctx context.Context, username, notificationID string) error {
	args := m.Called(ctx, username, notificationID)
	return args.Error(0)
}

func (m *FriendServiceMock) Remove(ctx context.Context, username, friend string) error {
	args := m.Called(ctx, username, friend)
	return args.Error(0)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) Conversations(ctx context.Context, username string) ([]models.Conversation, error) {
	args := m.Called(ctx, username)
	var conversations []models.Conversation
	if val := args.Get(0); val != nil {
		conversations = val.([]models.Conversation)
	}
	return conversations, args.Error(1)
}

func (m *ChatServiceMock) History(ctx context.Context, username, friend string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, username, friend)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *ChatServiceMock) Send(ctx context.Context, from, to, content string) (models.ChatMessage, error) {
	args := m.Called(ctx, from, to, content)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) ShareSchedule(ctx context.Context, from, to, eventID string) (models.ChatMessage, error) {
	args := m.Called(ctx, from, to, eventID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

type NotificationServiceMock struct {
	mock.Mock
}

func (m *NotificationServiceMock) List(ctx context.Context, username string) ([]models.Notification, error) {
	args := m.Called(ctx, username)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationServiceMock) UnreadCount(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *NotificationServiceMock) MarkRead(ctx context.Context, username, id string) error {
	args := m.Called(ctx, username, id)
	return args.Error(0)
}

func (m *NotificationServiceMock) MarkAllRead(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *NotificationServiceMock) Delete(ctx context.Context, username, id string) error {
	args := m.Called(ctx, username, id)
	return args.Error(0)
}

type BackgroundServiceMock struct {
	mock.Mock
}

func (m *BackgroundServiceMock) Pick(ctx context.Context, month int) (services.Background, error) {
	args := m.Called(ctx, month)
	var bg services.Background
	if val := args.Get(0); val != nil {
		bg = val.(services.Background)
	}
	return bg, args.Error(1)
}
