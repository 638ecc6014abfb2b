// Package poller keeps client-side views of threads, group chats and
// notifications eventually consistent with the server by polling it.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Intervals struct {
	Conversation  time.Duration
	ThreadList    time.Duration
	Notifications time.Duration
	UnreadCount   time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Conversation:  3 * time.Second,
		ThreadList:    5 * time.Second,
		Notifications: 30 * time.Second,
		UnreadCount:   60 * time.Second,
	}
}

// Loop calls Tick every Interval, and early whenever Wake fires, until ctx
// ends. Tick errors are logged and the loop carries on at the same pace.
type Loop struct {
	Name     string
	Interval time.Duration
	Tick     func(ctx context.Context) error
	Wake     <-chan struct{}
	Log      *zap.Logger
}

func (l Loop) Run(ctx context.Context) {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	t := time.NewTicker(l.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-l.Wake:
		}
		if ctx.Err() != nil {
			return
		}
		if err := l.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Warn("poll failed", zap.String("loop", l.Name), zap.Error(err))
		}
	}
}

// wake returns a one-slot channel; signal never blocks.
func wake() chan struct{} { return make(chan struct{}, 1) }

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
