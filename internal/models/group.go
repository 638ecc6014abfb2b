package models

import "time"

type GroupType string

const (
	GroupWorld  GroupType = "world"
	GroupCustom GroupType = "custom"
	GroupClub   GroupType = "club"
)

// WorldGroupID is the fixed id of the single campus-wide channel.
const WorldGroupID = "world"

func (t GroupType) Valid() bool {
	switch t {
	case GroupWorld, GroupCustom, GroupClub:
		return true
	}
	return false
}

type GroupChat struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Type        GroupType `json:"type" bson:"type"`
	Members     []string  `json:"members,omitempty" bson:"members,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	ClubID      string    `json:"club_id,omitempty" bson:"club_id,omitempty"`
	Messages    []Message `json:"messages,omitempty" bson:"messages,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (g *GroupChat) IsWorld() bool { return g.Type == GroupWorld }

// IsMember reports membership; every user belongs to the world group.
func (g *GroupChat) IsMember(userID string) bool {
	if g.IsWorld() {
		return true
	}
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
