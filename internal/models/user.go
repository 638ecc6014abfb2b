package models

// User is the read-only view of an account owned by the identity service.
type User struct {
	ID       string `json:"id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Role     string `json:"role,omitempty" bson:"role,omitempty"`
}

func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.ID
	}
}

func (u User) Ref() SenderRef {
	return SenderRef{ID: u.ID, DisplayName: u.DisplayName()}
}
