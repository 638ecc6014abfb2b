package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

type ThreadsAPI interface {
	ListThreads(ctx context.Context) ([]models.ThreadSummary, error)
}

// ThreadList keeps the sidebar of direct threads, replaced wholesale on
// every tick.
type ThreadList struct {
	lc       lifecycle
	api      ThreadsAPI
	interval time.Duration
	log      *zap.Logger
	onChange func([]models.ThreadSummary)
	wake     chan struct{}

	threads []models.ThreadSummary // guarded by lc.mu
}

func NewThreadList(api ThreadsAPI, interval time.Duration, log *zap.Logger, onChange func([]models.ThreadSummary)) *ThreadList {
	if log == nil {
		log = zap.NewNop()
	}
	if onChange == nil {
		onChange = func([]models.ThreadSummary) {}
	}
	return &ThreadList{api: api, interval: interval, log: log, onChange: onChange, wake: wake()}
}

func (l *ThreadList) Start(ctx context.Context) {
	l.lc.restart(ctx, func() { l.threads = nil }, func(ctx context.Context, gen uint64) {
		tick := func(ctx context.Context) error {
			threads, err := l.api.ListThreads(ctx)
			if err != nil {
				return err
			}
			l.apply(gen, threads)
			return nil
		}
		if err := tick(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn("initial thread list failed", zap.Error(err))
		}
		Loop{Name: "threads", Interval: l.interval, Wake: l.wake, Log: l.log, Tick: tick}.Run(ctx)
	})
}

func (l *ThreadList) Stop() {
	l.lc.stop(func() { l.threads = nil })
}

func (l *ThreadList) Wake() { signal(l.wake) }

func (l *ThreadList) Threads() []models.ThreadSummary {
	l.lc.mu.Lock()
	defer l.lc.mu.Unlock()
	return append([]models.ThreadSummary(nil), l.threads...)
}

func (l *ThreadList) apply(gen uint64, threads []models.ThreadSummary) {
	out := make([]models.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		// older servers send only the thread; derive the preview locally
		if t.LastMessage == nil && len(t.Messages) > 0 {
			t = models.Summarize(t.Thread, t.Peer)
		}
		out = append(out, t)
	}
	l.lc.mu.Lock()
	if !l.lc.current(gen) {
		l.lc.mu.Unlock()
		return
	}
	l.threads = out
	l.lc.mu.Unlock()
	l.onChange(append([]models.ThreadSummary(nil), out...))
}
