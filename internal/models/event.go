package models

import "time"

// ActivityEvent is produced by the posts, announcements, OD and events
// services when something happens that a user should hear about.
type ActivityEvent struct {
	Type        string `json:"type"`
	ActorID     string `json:"actor_id"`
	RecipientID string `json:"recipient_id"`
	RelatedID   string `json:"related_id,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

const (
	EventMessageSent         = "message.sent"
	EventMessageEdited       = "message.edited"
	EventMessageDeleted      = "message.deleted"
	EventGroupMessage        = "group.message"
	EventNotificationCreated = "notification.created"
)

// ChatEvent is published after every successful chat or notification write.
type ChatEvent struct {
	Event        string        `json:"event"`
	ThreadID     string        `json:"thread_id,omitempty"`
	GroupID      string        `json:"group_id,omitempty"`
	MessageID    string        `json:"message_id,omitempty"`
	Message      *Message      `json:"message,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	At           time.Time     `json:"at"`
}

const (
	HintThread       = "thread"
	HintGroup        = "group"
	HintNotification = "notification"
)

// Hint tells a connected client that something it may be showing changed.
// Clients react by polling; hints carry no state.
type Hint struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
}
