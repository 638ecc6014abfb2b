package poller

import (
	"context"
	"sync"
)

// lifecycle owns the goroutine behind a view and the generation number
// that guards its state. A run may only write while its generation is
// current; restart and stop bump the generation under mu, so nothing a
// superseded run does can reach the view's state.
type lifecycle struct {
	ctl sync.Mutex // serializes restart and stop

	mu     sync.Mutex // guards gen and the embedding view's state
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// restart stops the current run, applies reset with mu held, and starts run
// under a fresh generation.
func (l *lifecycle) restart(parent context.Context, reset func(), run func(ctx context.Context, gen uint64)) {
	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.halt(nil)

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.cancel, l.done = cancel, done
	if reset != nil {
		reset()
	}
	l.mu.Unlock()

	go func() {
		defer close(done)
		run(ctx, gen)
	}()
}

// stop cancels the current run, applies reset with mu held, and waits for
// the run to return.
func (l *lifecycle) stop(reset func()) {
	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.halt(reset)
}

func (l *lifecycle) halt(reset func()) {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.gen++
	if reset != nil {
		reset()
	}
	l.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// current reports whether gen is still live. Callers hold mu.
func (l *lifecycle) current(gen uint64) bool { return l.gen == gen }
