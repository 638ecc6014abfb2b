package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

type NotificationsAPI interface {
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type BellSnapshot struct {
	Items  []models.Notification // newest first
	Unread int64
	// Fresh lists the notifications this change surfaced for the first time.
	Fresh []models.Notification
}

// Bell is the notification badge and dropdown. The list loop merges
// notifications newer than the cursor (the newest one seen so far) into
// the front of the local list, skipping ids already present. A slower
// loop refreshes only the unread count.
type Bell struct {
	lc         lifecycle
	api        NotificationsAPI
	userID     string
	listEvery  time.Duration
	countEvery time.Duration
	log        *zap.Logger
	onChange   func(BellSnapshot)
	wake       chan struct{}

	// guarded by lc.mu
	items    []models.Notification
	cursor   string
	cursorAt time.Time
	unread   int64
}

func NewBell(api NotificationsAPI, userID string, list, count time.Duration, log *zap.Logger, onChange func(BellSnapshot)) *Bell {
	if log == nil {
		log = zap.NewNop()
	}
	if onChange == nil {
		onChange = func(BellSnapshot) {}
	}
	return &Bell{
		api:        api,
		userID:     userID,
		listEvery:  list,
		countEvery: count,
		log:        log,
		onChange:   onChange,
		wake:       wake(),
	}
}

func (b *Bell) Start(ctx context.Context) {
	b.lc.restart(ctx, b.reset, b.run)
}

func (b *Bell) Stop() {
	b.lc.stop(b.reset)
}

func (b *Bell) reset() {
	b.items, b.cursor, b.cursorAt, b.unread = nil, "", time.Time{}, 0
}

// Wake refreshes the list now.
func (b *Bell) Wake() { signal(b.wake) }

func (b *Bell) run(ctx context.Context, gen uint64) {
	listTick := func(ctx context.Context) error {
		list, err := b.api.ListNotifications(ctx, b.userID)
		if err != nil {
			return err
		}
		b.merge(gen, list)
		return nil
	}
	countTick := func(ctx context.Context) error {
		n, err := b.api.UnreadCount(ctx, b.userID)
		if err != nil {
			return err
		}
		b.setUnread(gen, n)
		return nil
	}
	if err := listTick(ctx); err != nil && ctx.Err() == nil {
		b.log.Warn("initial notification load failed", zap.Error(err))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		Loop{Name: "notifications", Interval: b.listEvery, Wake: b.wake, Log: b.log, Tick: listTick}.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		Loop{Name: "unread-count", Interval: b.countEvery, Log: b.log, Tick: countTick}.Run(ctx)
	}()
	wg.Wait()
}

// merge folds a fetched newest-first list into the local one.
func (b *Bell) merge(gen uint64, fetched []models.Notification) {
	b.lc.mu.Lock()
	if !b.lc.current(gen) {
		b.lc.mu.Unlock()
		return
	}

	var fresh []models.Notification
	if b.cursor == "" {
		fresh = append(fresh, fetched...)
	} else {
		seenCursor := false
		for _, n := range fetched {
			if n.ID == b.cursor {
				seenCursor = true
				break
			}
		}
		for _, n := range fetched {
			if n.ID == b.cursor {
				break
			}
			// the cursor item may have been deleted; fall back to its time
			if !seenCursor && !n.CreatedAt.After(b.cursorAt) {
				continue
			}
			fresh = append(fresh, n)
		}
	}

	have := make(map[string]int, len(b.items))
	for i, n := range b.items {
		have[n.ID] = i
	}
	items := append([]models.Notification(nil), b.items...)
	var added []models.Notification
	for _, n := range fresh {
		if _, dup := have[n.ID]; dup {
			continue
		}
		have[n.ID] = -1
		added = append(added, n)
	}
	// read flags can change on another device
	for _, n := range fetched {
		if i, ok := have[n.ID]; ok && i >= 0 {
			items[i].Read = n.Read
		}
	}
	items = append(added, items...)

	if len(fetched) > 0 && (b.cursor == "" || !fetched[0].CreatedAt.Before(b.cursorAt)) {
		b.cursor, b.cursorAt = fetched[0].ID, fetched[0].CreatedAt
	}
	b.items = items
	b.unread = countUnread(items)
	snap := b.snapshotLocked()
	snap.Fresh = added
	b.lc.mu.Unlock()
	b.onChange(snap)
}

func (b *Bell) setUnread(gen uint64, n int64) {
	b.lc.mu.Lock()
	if !b.lc.current(gen) || b.unread == n {
		b.lc.mu.Unlock()
		return
	}
	b.unread = n
	snap := b.snapshotLocked()
	b.lc.mu.Unlock()
	b.onChange(snap)
}

// MarkRead marks one notification read on the server, then locally.
func (b *Bell) MarkRead(ctx context.Context, id string) error {
	if _, err := b.api.MarkRead(ctx, id); err != nil {
		return err
	}
	b.lc.mu.Lock()
	for i := range b.items {
		if b.items[i].ID == id && !b.items[i].Read {
			b.items[i].Read = true
			if b.unread > 0 {
				b.unread--
			}
		}
	}
	snap := b.snapshotLocked()
	b.lc.mu.Unlock()
	b.onChange(snap)
	return nil
}

func (b *Bell) MarkAllRead(ctx context.Context) error {
	if err := b.api.MarkAllRead(ctx, b.userID); err != nil {
		return err
	}
	b.lc.mu.Lock()
	for i := range b.items {
		b.items[i].Read = true
	}
	b.unread = 0
	snap := b.snapshotLocked()
	b.lc.mu.Unlock()
	b.onChange(snap)
	return nil
}

func (b *Bell) Snapshot() BellSnapshot {
	b.lc.mu.Lock()
	defer b.lc.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Bell) snapshotLocked() BellSnapshot {
	return BellSnapshot{Items: append([]models.Notification(nil), b.items...), Unread: b.unread}
}

func countUnread(items []models.Notification) int64 {
	var n int64
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
