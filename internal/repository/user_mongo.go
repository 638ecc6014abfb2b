package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

// MongoUserRepo reads the identity service's users collection. Ids there
// are ObjectIDs; ids created by other tools may be plain strings.
type MongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(col *mongo.Collection) *MongoUserRepo {
	return &MongoUserRepo{col: col}
}

type userDoc struct {
	ID       any    `bson:"_id"`
	Username string `bson:"username"`
	Name     string `bson:"name"`
	Email    string `bson:"email"`
	Role     string `bson:"role"`
}

func (d userDoc) user() models.User {
	u := models.User{Username: d.Username, Name: d.Name, Email: d.Email, Role: d.Role}
	switch id := d.ID.(type) {
	case primitive.ObjectID:
		u.ID = id.Hex()
	case string:
		u.ID = id
	default:
		u.ID = fmt.Sprint(id)
	}
	return u
}

func idValues(ids ...string) bson.A {
	out := bson.A{}
	for _, id := range ids {
		out = append(out, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func (r *MongoUserRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var d userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": bson.M{"$in": idValues(id)}}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	u := d.user()
	return &u, nil
}

func (r *MongoUserRepo) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": idValues(ids...)}})
}

func (r *MongoUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "username": 1, "name": 1, "email": 1, "role": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "username", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.user())
	}
	return out, nil
}
