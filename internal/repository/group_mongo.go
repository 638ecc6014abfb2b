package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

type MongoGroupRepo struct {
	col *mongo.Collection
}

func NewMongoGroupRepo(ctx context.Context, col *mongo.Collection) (*MongoGroupRepo, error) {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "members", Value: 1}},
		Options: options.Index().SetName("members_idx"),
	})
	if err != nil {
		return nil, err
	}
	return &MongoGroupRepo{col: col}, nil
}

func (r *MongoGroupRepo) EnsureWorld(ctx context.Context, now time.Time) error {
	_, err := r.col.UpdateByID(ctx, models.WorldGroupID, bson.M{"$setOnInsert": bson.M{
		"name":        "World",
		"description": "Open chat for everyone on campus",
		"type":        models.GroupWorld,
		"messages":    bson.A{},
		"created_at":  now,
		"updated_at":  now,
	}}, options.Update().SetUpsert(true))
	return err
}

func (r *MongoGroupRepo) Create(ctx context.Context, g *models.GroupChat) error {
	if g.Messages == nil {
		g.Messages = []models.Message{}
	}
	_, err := r.col.InsertOne(ctx, g)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoGroupRepo) Get(ctx context.Context, id string) (*models.GroupChat, error) {
	var g models.GroupChat
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *MongoGroupRepo) ListForUser(ctx context.Context, userID string) ([]models.GroupChat, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"type": models.GroupWorld},
		bson.M{"members": userID},
	}}
	opts := options.Find().
		SetProjection(bson.M{"messages": 0}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.GroupChat{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoGroupRepo) AppendMessage(ctx context.Context, groupID string, m models.Message) (*models.GroupChat, error) {
	return r.findAndUpdate(ctx, groupID, bson.M{
		"$push": bson.M{"messages": m},
		"$set":  bson.M{"updated_at": m.Timestamp},
	})
}

func (r *MongoGroupRepo) AddMembers(ctx context.Context, groupID string, userIDs []string) (*models.GroupChat, error) {
	return r.findAndUpdate(ctx, groupID, bson.M{
		"$addToSet": bson.M{"members": bson.M{"$each": userIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *MongoGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) (*models.GroupChat, error) {
	return r.findAndUpdate(ctx, groupID, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *MongoGroupRepo) findAndUpdate(ctx context.Context, groupID string, update bson.M) (*models.GroupChat, error) {
	var g models.GroupChat
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": groupID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}
