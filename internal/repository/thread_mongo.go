package repository

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

type MongoThreadRepo struct {
	col *mongo.Collection
}

func NewMongoThreadRepo(ctx context.Context, col *mongo.Collection) (*MongoThreadRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("pair_key_unique"),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("participants_updated_idx"),
		},
	})
	if err != nil {
		return nil, err
	}
	return &MongoThreadRepo{col: col}, nil
}

func (r *MongoThreadRepo) GetOrCreate(ctx context.Context, a, b string, now time.Time) (*models.Thread, error) {
	participants := []string{a, b}
	sort.Strings(participants)
	filter := bson.M{"pair_key": models.PairKey(a, b)}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          primitive.NewObjectID().Hex(),
		"participants": participants,
		"messages":     bson.A{},
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var t models.Thread
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race on pair_key; the winner's document is there now
		err = r.col.FindOne(ctx, filter).Decode(&t)
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *MongoThreadRepo) Get(ctx context.Context, id string) (*models.Thread, error) {
	var t models.Thread
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *MongoThreadRepo) ListForUser(ctx context.Context, userID string) ([]models.Thread, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Thread{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoThreadRepo) AppendMessage(ctx context.Context, threadID string, m models.Message) (*models.Thread, error) {
	update := bson.M{
		"$push": bson.M{"messages": m},
		"$set":  bson.M{"updated_at": m.Timestamp},
	}
	return r.findAndUpdate(ctx, bson.M{"_id": threadID}, update)
}

func (r *MongoThreadRepo) EditMessage(ctx context.Context, threadID, messageID, content string, at time.Time) (*models.Thread, error) {
	filter := bson.M{"_id": threadID, "messages.id": messageID}
	update := bson.M{"$set": bson.M{
		"messages.$.content":   content,
		"messages.$.edited_at": at,
	}}
	return r.findAndUpdate(ctx, filter, update)
}

func (r *MongoThreadRepo) DeleteMessage(ctx context.Context, threadID, messageID string) (*models.Thread, error) {
	filter := bson.M{"_id": threadID, "messages.id": messageID}
	update := bson.M{"$pull": bson.M{"messages": bson.M{"id": messageID}}}
	return r.findAndUpdate(ctx, filter, update)
}

func (r *MongoThreadRepo) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Thread, error) {
	var t models.Thread
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}
