package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// SenderRef is the normalized author of a message. Older documents and some
// API responses carry the sender as a bare user id; both decoders accept
// that form as well as an expanded user object.
type SenderRef struct {
	ID          string `json:"id" bson:"id"`
	DisplayName string `json:"display_name" bson:"display_name"`
}

type senderObject struct {
	ID          string `json:"id" bson:"id"`
	LegacyID    string `json:"_id" bson:"-"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Name        string `json:"name" bson:"name"`
	Username    string `json:"username" bson:"username"`
}

func (o senderObject) ref() SenderRef {
	ref := SenderRef{ID: o.ID, DisplayName: o.DisplayName}
	if ref.ID == "" {
		ref.ID = o.LegacyID
	}
	if ref.DisplayName == "" {
		ref.DisplayName = User{ID: ref.ID, Name: o.Name, Username: o.Username}.DisplayName()
	}
	return ref
}

func (s *SenderRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = SenderRef{}
		return nil
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*s = SenderRef{ID: id, DisplayName: id}
		return nil
	}
	var o senderObject
	if err := json.Unmarshal(b, &o); err != nil {
		return fmt.Errorf("decode sender: %w", err)
	}
	*s = o.ref()
	return nil
}

func (s *SenderRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = SenderRef{}
	case bsontype.String:
		id := raw.StringValue()
		*s = SenderRef{ID: id, DisplayName: id}
	case bsontype.ObjectID:
		id := raw.ObjectID().Hex()
		*s = SenderRef{ID: id, DisplayName: id}
	case bsontype.EmbeddedDocument:
		var o senderObject
		if err := raw.Unmarshal(&o); err != nil {
			return fmt.Errorf("decode sender: %w", err)
		}
		*s = o.ref()
	default:
		return fmt.Errorf("decode sender: unsupported bson type %s", t)
	}
	return nil
}
