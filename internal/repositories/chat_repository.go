package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"waz-calendar/internal/models"
	"waz-calendar/internal/store"
)

const SocialDir = "social"

var ErrMessageNotFound = errors.New("message not found")

// ChatRepository stores each user's copy of their conversations.
type ChatRepository interface {
	History(ctx context.Context, owner, friend string) ([]models.ChatMessage, error)
	Append(ctx context.Context, owner, friend string, msg models.ChatMessage) error
	Remove(ctx context.Context, owner, friend, messageID string) error
	Log(ctx context.Context, owner string) (models.ChatLog, error)
}

// ChatRepo keeps social/<owner>/chat_messages.json, a map of friend to messages.
type ChatRepo struct {
	store store.ObjectStore
	limit int
}

// NewChatRepo constructs a ChatRepo that keeps the latest limit messages per friend.
func NewChatRepo(s store.ObjectStore, limit int) *ChatRepo {
	if limit <= 0 {
		limit = models.MaxChatHistory
	}
	return &ChatRepo{store: s, limit: limit}
}

func ChatLogPath(owner string) string {
	return path.Join(SocialDir, owner, "chat_messages.json")
}

// History returns the conversation with friend, oldest first.
func (r *ChatRepo) History(ctx context.Context, owner, friend string) ([]models.ChatMessage, error) {
	chatLog, _, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	msgs := chatLog[friend]
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

// Log returns the owner's whole chat document in one read.
func (r *ChatRepo) Log(ctx context.Context, owner string) (models.ChatLog, error) {
	chatLog, _, err := r.load(ctx, owner)
	return chatLog, err
}

func (r *ChatRepo) Append(ctx context.Context, owner, friend string, msg models.ChatMessage) error {
	chatLog, version, err := r.load(ctx, owner)
	if err != nil {
		return err
	}
	msgs := append(chatLog[friend], msg)
	if len(msgs) > r.limit {
		msgs = msgs[len(msgs)-r.limit:]
	}
	chatLog[friend] = msgs
	return r.save(ctx, owner, chatLog, version, fmt.Sprintf("Chat %s -> %s", msg.From, msg.To))
}

// Remove deletes a single message from the owner's copy.
func (r *ChatRepo) Remove(ctx context.Context, owner, friend, messageID string) error {
	chatLog, version, err := r.load(ctx, owner)
	if err != nil {
		return err
	}
	msgs := chatLog[friend]
	for i, m := range msgs {
		if m.ID == messageID {
			chatLog[friend] = append(msgs[:i], msgs[i+1:]...)
			return r.save(ctx, owner, chatLog, version, "Retract chat message "+messageID)
		}
	}
	return ErrMessageNotFound
}

func (r *ChatRepo) load(ctx context.Context, owner string) (models.ChatLog, string, error) {
	obj, err := r.store.Read(ctx, ChatLogPath(owner))
	if errors.Is(err, store.ErrNotFound) {
		return models.ChatLog{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	chatLog := models.ChatLog{}
	if err := json.Unmarshal(obj.Content, &chatLog); err != nil {
		return nil, "", fmt.Errorf("decode chat log %s: %w", owner, err)
	}
	if chatLog == nil {
		chatLog = models.ChatLog{}
	}
	return chatLog, obj.Version, nil
}

func (r *ChatRepo) save(ctx context.Context, owner string, chatLog models.ChatLog, version, message string) error {
	content, err := json.MarshalIndent(chatLog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat log %s: %w", owner, err)
	}
	if _, err := r.store.Write(ctx, ChatLogPath(owner), content, version, message); err != nil {
		return fmt.Errorf("save chat log %s: %w", owner, err)
	}
	return nil
}
