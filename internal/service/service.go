package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

// Session identifies the caller of an operation. Handlers build it from the
// verified token; nothing in this package reads ambient identity.
type Session struct {
	UserID string
}

func (s Session) check() error {
	if strings.TrimSpace(s.UserID) == "" {
		return apperr.New(apperr.KindUnauthenticated, "missing caller identity")
	}
	return nil
}

// Publisher emits domain events. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Hinter nudges connected clients to poll.
type Hinter interface {
	Notify(userIDs []string, h models.Hint)
	Broadcast(h models.Hint)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

type noopHinter struct{}

func (noopHinter) Notify([]string, models.Hint) {}
func (noopHinter) Broadcast(models.Hint)        {}

type base struct {
	log    *zap.Logger
	events Publisher
	hints  Hinter
	now    func() time.Time
}

type Option func(*base)

func WithPublisher(p Publisher) Option { return func(b *base) { b.events = p } }
func WithHinter(h Hinter) Option       { return func(b *base) { b.hints = h } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(b *base) { b.now = now } }

func newBase(log *zap.Logger, opts []Option) base {
	b := base{
		log:    log,
		events: noopPublisher{},
		hints:  noopHinter{},
		// the document store keeps millisecond precision
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b *base) publish(ctx context.Context, key string, ev models.ChatEvent) {
	if err := b.events.Publish(ctx, key, ev); err != nil {
		b.log.Warn("publish event failed", zap.String("event", ev.Event), zap.Error(err))
	}
}

// storeErr maps repository failures onto the service error taxonomy.
func storeErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Unavailable(err)
}

func senderFor(ctx context.Context, users repository.UserRepository, userID string) models.SenderRef {
	u, err := users.GetUser(ctx, userID)
	if err != nil {
		return models.SenderRef{ID: userID, DisplayName: userID}
	}
	return u.Ref()
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.InvalidInput("content must not be empty")
	}
	return content, nil
}
