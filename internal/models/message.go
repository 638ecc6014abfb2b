package models

import "time"

type Message struct {
	ID        string     `json:"id" bson:"id"`
	Sender    SenderRef  `json:"sender" bson:"sender"`
	Content   string     `json:"content" bson:"content"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
	EditedAt  *time.Time `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
}
