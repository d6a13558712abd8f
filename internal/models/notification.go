package models

import "time"

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationChatMessage    NotificationType = "chat_message"
	NotificationEventShared    NotificationType = "event_shared"
	NotificationEventReminder  NotificationType = "event_reminder"
)

// MaxNotifications is how many notifications an account retains.
const MaxNotifications = 50

// Notification is an inbox entry stored on the receiving account.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	From      string           `json:"from"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
	EventID   string           `json:"eventId,omitempty"`
}
