package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// NewMongoStore builds every repository on db and creates their indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	threads, err := NewMongoThreadRepo(ctx, db.Collection("threads"))
	if err != nil {
		return nil, err
	}
	groups, err := NewMongoGroupRepo(ctx, db.Collection("group_chats"))
	if err != nil {
		return nil, err
	}
	notifs, err := NewMongoNotificationRepo(ctx, db.Collection("notifications"))
	if err != nil {
		return nil, err
	}
	return &Store{
		Users:         NewMongoUserRepo(db.Collection("users")),
		Threads:       threads,
		Groups:        groups,
		Notifications: notifs,
	}, nil
}

func notFound(err error) error {
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}
