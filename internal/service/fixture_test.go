package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload)
	return p.err
}

type recordingHinter struct {
	mu        sync.Mutex
	notified  map[string][]models.Hint
	broadcast []models.Hint
}

func (h *recordingHinter) Notify(ids []string, hint models.Hint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.notified == nil {
		h.notified = map[string][]models.Hint{}
	}
	for _, id := range ids {
		h.notified[id] = append(h.notified[id], hint)
	}
}

func (h *recordingHinter) Broadcast(hint models.Hint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast = append(h.broadcast, hint)
}

// failingNotifications wraps a repository and fails Create while fail is set.
type failingNotifications struct {
	repository.NotificationRepository
	mu   sync.Mutex
	fail int
}

var errStoreDown = errors.New("store down")

func (f *failingNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	if f.fail > 0 {
		f.fail--
		f.mu.Unlock()
		return errStoreDown
	}
	f.mu.Unlock()
	return f.NotificationRepository.Create(ctx, n)
}

type fixture struct {
	store    *repository.Store
	db       *repository.MemoryDB
	notifs   *failingNotifications
	events   *recordingPublisher
	hints    *recordingHinter
	chat     *ChatService
	groups   *GroupService
	notifSvc *NotificationService
	activity *ActivityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, db := repository.NewMemoryStore()
	for _, u := range []models.User{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
		{ID: "mallory", Name: "Mallory"},
	} {
		db.PutUser(u)
	}

	f := &fixture{
		store:  store,
		db:     db,
		notifs: &failingNotifications{NotificationRepository: store.Notifications},
		events: &recordingPublisher{},
		hints:  &recordingHinter{},
	}
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts := []Option{WithPublisher(f.events), WithHinter(f.hints), WithClock(clk.Now)}
	log := zap.NewNop()

	f.notifSvc = NewNotificationService(f.notifs, log, opts...)
	f.chat = NewChatService(store.Users, store.Threads, f.notifSvc, log, opts...)
	f.groups = NewGroupService(store.Users, store.Groups, log, opts...)
	f.activity = NewActivityService(f.notifSvc, store.Users, ActivityConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}, log)
	return f
}

func as(id string) Session { return Session{UserID: id} }
