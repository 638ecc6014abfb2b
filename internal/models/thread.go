package models

import (
	"sort"
	"strings"
	"time"
)

// Thread is a direct conversation between exactly two users.
type Thread struct {
	ID           string    `json:"id" bson:"_id"`
	Participants []string  `json:"participants" bson:"participants"`
	PairKey      string    `json:"-" bson:"pair_key"`
	Messages     []Message `json:"messages" bson:"messages"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func (t *Thread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Peer returns the participant that is not userID.
func (t *Thread) PeerOf(userID string) string {
	for _, p := range t.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

func (t *Thread) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	m := t.Messages[len(t.Messages)-1]
	return &m
}

func (t *Thread) FindMessage(messageID string) (*Message, bool) {
	for i := range t.Messages {
		if t.Messages[i].ID == messageID {
			return &t.Messages[i], true
		}
	}
	return nil, false
}

// ThreadSummary is a thread as listed for one of its participants.
type ThreadSummary struct {
	Thread
	Peer            *SenderRef `json:"peer,omitempty"`
	LastMessage     *Message   `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}

func Summarize(t Thread, peer *SenderRef) ThreadSummary {
	s := ThreadSummary{Thread: t, Peer: peer}
	if last := t.Last(); last != nil {
		ts := last.Timestamp
		s.LastMessage = last
		s.LastMessageTime = &ts
	}
	return s
}
