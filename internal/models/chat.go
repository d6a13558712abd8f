package models

import "time"

type ChatMessageType string

const (
	ChatText          ChatMessageType = "text"
	ChatScheduleShare ChatMessageType = "schedule_share"
)

const (
	MaxChatContent   = 150
	MaxChatHistory   = 100
	ChatPreviewRunes = 30
)

// ChatMessage is one message of a two-person conversation.
type ChatMessage struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Type      ChatMessageType `json:"type"`
	Event     *Event          `json:"memo,omitempty"`
}

// ChatLog is the per-user chat document keyed by friend username.
type ChatLog map[string][]ChatMessage

// Conversation is the latest message exchanged with one friend.
type Conversation struct {
	Friend      string      `json:"friend"`
	LastMessage ChatMessage `json:"last_message"`
}
