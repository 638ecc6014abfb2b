package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

var errDown = errors.New("server down")

// fakeAPI is an in-process stand-in for the REST client.
type fakeAPI struct {
	mu       sync.Mutex
	threads  map[string][]models.Message
	groups   map[string][]models.Message
	notifs   []models.Notification // newest first
	fail     bool
	failSend bool
	calls    map[string]int
	seq      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		threads: map[string][]models.Message{},
		groups:  map[string][]models.Message{},
		calls:   map[string]int{},
	}
}

func (f *fakeAPI) record(name string) error {
	f.calls[name]++
	if f.fail {
		return errDown
	}
	return nil
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeAPI) msg(sender, content string) models.Message {
	f.seq++
	return models.Message{
		ID:        fmt.Sprintf("m%d", f.seq),
		Sender:    models.SenderRef{ID: sender, DisplayName: sender},
		Content:   content,
		Timestamp: time.Date(2024, 3, 1, 9, 0, f.seq, 0, time.UTC),
	}
}

func (f *fakeAPI) addThreadMessage(threadID, sender, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[threadID] = append(f.threads[threadID], f.msg(sender, content))
}

func (f *fakeAPI) GetMessages(ctx context.Context, threadID string) (*models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get:" + threadID); err != nil {
		return nil, err
	}
	msgs := append([]models.Message(nil), f.threads[threadID]...)
	return &models.Thread{ID: threadID, Messages: msgs}, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, threadID, content string) (*models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("send:" + threadID); err != nil {
		return nil, err
	}
	if f.failSend {
		return nil, errDown
	}
	f.threads[threadID] = append(f.threads[threadID], f.msg("me", content))
	return &models.Thread{ID: threadID, Messages: append([]models.Message(nil), f.threads[threadID]...)}, nil
}

func (f *fakeAPI) ListGroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("group:" + groupID); err != nil {
		return nil, err
	}
	return append([]models.Message(nil), f.groups[groupID]...), nil
}

func (f *fakeAPI) PostGroupMessage(ctx context.Context, groupID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("post:" + groupID); err != nil {
		return nil, err
	}
	m := f.msg("me", content)
	f.groups[groupID] = append(f.groups[groupID], m)
	return &m, nil
}

func (f *fakeAPI) ListThreads(ctx context.Context) ([]models.ThreadSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("threads"); err != nil {
		return nil, err
	}
	var out []models.ThreadSummary
	for id, msgs := range f.threads {
		out = append(out, models.ThreadSummary{Thread: models.Thread{ID: id, Messages: append([]models.Message(nil), msgs...)}})
	}
	return out, nil
}

func (f *fakeAPI) notify(id string, read bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n := models.Notification{
		ID:        id,
		UserID:    "me",
		Type:      models.NotificationLike,
		Content:   "liked " + id,
		Read:      read,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, f.seq, 0, time.UTC),
	}
	f.notifs = append([]models.Notification{n}, f.notifs...)
}

func (f *fakeAPI) setRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifs {
		if f.notifs[i].ID == id {
			f.notifs[i].Read = true
		}
	}
}

func (f *fakeAPI) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("notifications"); err != nil {
		return nil, err
	}
	return append([]models.Notification(nil), f.notifs...), nil
}

func (f *fakeAPI) UnreadCount(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("count"); err != nil {
		return 0, err
	}
	var n int64
	for _, x := range f.notifs {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("read:" + id); err != nil {
		return nil, err
	}
	for i := range f.notifs {
		if f.notifs[i].ID == id {
			f.notifs[i].Read = true
			n := f.notifs[i]
			return &n, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) MarkAllRead(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("read-all"); err != nil {
		return err
	}
	for i := range f.notifs {
		f.notifs[i].Read = true
	}
	return nil
}

// recorder collects onChange snapshots.
type recorder[T any] struct {
	mu   sync.Mutex
	seen []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.seen = append(r.seen, v)
	r.mu.Unlock()
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.seen...)
}
