package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUsers returns the users that exist among ids, in no particular order.
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type ThreadRepository interface {
	// GetOrCreate returns the thread for the unordered pair {a, b},
	// inserting it on first use.
	GetOrCreate(ctx context.Context, a, b string, now time.Time) (*models.Thread, error)
	Get(ctx context.Context, id string) (*models.Thread, error)
	// ListForUser returns the user's threads, most recently updated first.
	ListForUser(ctx context.Context, userID string) ([]models.Thread, error)
	AppendMessage(ctx context.Context, threadID string, m models.Message) (*models.Thread, error)
	EditMessage(ctx context.Context, threadID, messageID, content string, at time.Time) (*models.Thread, error)
	DeleteMessage(ctx context.Context, threadID, messageID string) (*models.Thread, error)
}

type GroupRepository interface {
	// EnsureWorld creates the world group if it does not exist yet.
	EnsureWorld(ctx context.Context, now time.Time) error
	Create(ctx context.Context, g *models.GroupChat) error
	Get(ctx context.Context, id string) (*models.GroupChat, error)
	// ListForUser returns the world group and every group userID belongs
	// to, without message history.
	ListForUser(ctx context.Context, userID string) ([]models.GroupChat, error)
	AppendMessage(ctx context.Context, groupID string, m models.Message) (*models.GroupChat, error)
	AddMembers(ctx context.Context, groupID string, userIDs []string) (*models.GroupChat, error)
	RemoveMember(ctx context.Context, groupID, userID string) (*models.GroupChat, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	// ListForUser returns the user's notifications, newest first.
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// Store bundles the repositories a server needs.
type Store struct {
	Users         UserRepository
	Threads       ThreadRepository
	Groups        GroupRepository
	Notifications NotificationRepository
}
