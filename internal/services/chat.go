package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/observability"
	"waz-calendar/internal/repositories"
)

// ChatService exchanges messages between friends.
type ChatService interface {
	History(ctx context.Context, username, friend string) ([]models.ChatMessage, error)
	Conversations(ctx context.Context, username string) ([]models.Conversation, error)
	Send(ctx context.Context, from, to, content string) (models.ChatMessage, error)
	ShareSchedule(ctx context.Context, from, to, eventID string) (models.ChatMessage, error)
}

type ChatManager struct {
	accounts      accounts
	chats         repositories.ChatRepository
	notifications *NotificationManager
	bus           bus.Publisher
	now           func() time.Time
}

func NewChatManager(dir repositories.AccountDirectory, chats repositories.ChatRepository, notifications *NotificationManager, publisher bus.Publisher) *ChatManager {
	return &ChatManager{
		accounts:      accounts{dir: dir},
		chats:         chats,
		notifications: notifications,
		bus:           publisher,
		now:           time.Now,
	}
}

// ValidateChatContent trims content and checks it is non-empty and at most 150 characters.
func ValidateChatContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &models.ValidationError{Field: "content", Message: "must not be empty"}
	}
	if n := utf8.RuneCountInString(content); n > models.MaxChatContent {
		return "", &models.ValidationError{Field: "content", Message: fmt.Sprintf("must be at most %d characters, got %d", models.MaxChatContent, n)}
	}
	return content, nil
}

func (m *ChatManager) History(ctx context.Context, username, friend string) ([]models.ChatMessage, error) {
	if err := m.requireFriend(ctx, username, friend); err != nil {
		return nil, err
	}
	return m.chats.History(ctx, username, friend)
}

// Conversations lists the latest message per current friend, most recent first.
// Threads with former friends stay on disk but are not listed.
func (m *ChatManager) Conversations(ctx context.Context, username string) ([]models.Conversation, error) {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return nil, err
	}
	chatLog, err := m.chats.Log(ctx, username)
	if err != nil {
		return nil, err
	}

	conversations := make([]models.Conversation, 0, len(acc.Friends))
	for _, friend := range acc.Friends {
		msgs := chatLog[friend]
		if len(msgs) == 0 {
			continue
		}
		conversations = append(conversations, models.Conversation{Friend: friend, LastMessage: msgs[len(msgs)-1]})
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.Timestamp.After(conversations[j].LastMessage.Timestamp)
	})
	return conversations, nil
}

// Send validates content before any storage access, then delivers to both participants.
func (m *ChatManager) Send(ctx context.Context, from, to, content string) (models.ChatMessage, error) {
	content, err := ValidateChatContent(content)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := m.requireFriend(ctx, from, to); err != nil {
		return models.ChatMessage{}, err
	}

	msg := models.ChatMessage{
		ID:        newID("msg"),
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: m.now().UTC(),
		Type:      models.ChatText,
	}
	if err := m.deliver(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// ShareSchedule sends a schedule_share message carrying a copy of one of from's events.
func (m *ChatManager) ShareSchedule(ctx context.Context, from, to, eventID string) (models.ChatMessage, error) {
	acc, err := m.accounts.load(ctx, from)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if !acc.IsFriend(to) {
		return models.ChatMessage{}, ErrNotFriends
	}
	i, ok := acc.FindEvent(eventID)
	if !ok {
		return models.ChatMessage{}, ErrEventNotFound
	}
	event := acc.Events[i]
	event.ReminderMinutes = nil
	event.ReminderSentAt = nil

	msg := models.ChatMessage{
		ID:        newID("msg"),
		From:      from,
		To:        to,
		Content:   "Shared an event: " + event.Content,
		Timestamp: m.now().UTC(),
		Type:      models.ChatScheduleShare,
		Event:     &event,
	}
	if err := m.deliver(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// deliver writes the sender copy then the recipient copy, retracting the sender
// copy if the second write fails. The chat notification is best effort.
func (m *ChatManager) deliver(ctx context.Context, msg models.ChatMessage) error {
	if err := m.chats.Append(ctx, msg.From, msg.To, msg); err != nil {
		return fmt.Errorf("store sender copy: %w", err)
	}
	if err := m.chats.Append(ctx, msg.To, msg.From, msg); err != nil {
		undoErr := m.chats.Remove(ctx, msg.From, msg.To, msg.ID)
		observability.IncSagaCompensation("chat_send", undoErr == nil)
		if undoErr != nil {
			log.Printf("saga chat_send: retract message=%s from=%s failed: %v", msg.ID, msg.From, undoErr)
		}
		return fmt.Errorf("store recipient copy: %w", err)
	}

	if _, err := m.notifications.Notify(ctx, msg.To, models.NotificationChatMessage, msg.From, chatPreview(msg)); err != nil {
		log.Printf("chat notification for to=%s failed: %v", msg.To, err)
	}
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeChatMessage, To: msg.To, Payload: msg})
	m.bus.Publish(ctx, bus.Message{Type: bus.TypeChatMessage, To: msg.From, Payload: msg})
	return nil
}

func (m *ChatManager) requireFriend(ctx context.Context, username, friend string) error {
	acc, err := m.accounts.load(ctx, username)
	if err != nil {
		return err
	}
	if !acc.IsFriend(friend) {
		return ErrNotFriends
	}
	return nil
}

func chatPreview(msg models.ChatMessage) string {
	content := msg.Content
	if utf8.RuneCountInString(content) > models.ChatPreviewRunes {
		content = string([]rune(content)[:models.ChatPreviewRunes]) + "..."
	}
	return msg.From + ": " + content
}
