package models

import "time"

const (
	NotificationLike          = "like"
	NotificationComment       = "comment"
	NotificationAnnouncement  = "announcement"
	NotificationODStatus      = "od_status"
	NotificationMessage       = "message"
	NotificationQueryResponse = "query_response"
	NotificationEventReminder = "event_reminder"
)

type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Type      string    `json:"type" bson:"type"`
	Content   string    `json:"content" bson:"content"`
	RelatedID string    `json:"related_id,omitempty" bson:"related_id,omitempty"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
