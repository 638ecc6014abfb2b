package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/models"
)

type State int

const (
	Idle State = iota
	Loading
	Polling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Polling:
		return "polling"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Source is the conversation a view is showing: a direct thread or a group.
type Source interface {
	Target() string
	Fetch(ctx context.Context) ([]models.Message, error)
	Send(ctx context.Context, content string) error
}

type ThreadAPI interface {
	GetMessages(ctx context.Context, threadID string) (*models.Thread, error)
	SendMessage(ctx context.Context, threadID, content string) (*models.Thread, error)
}

type GroupAPI interface {
	ListGroupMessages(ctx context.Context, groupID string) ([]models.Message, error)
	PostGroupMessage(ctx context.Context, groupID, content string) (*models.Message, error)
}

type threadSource struct {
	api ThreadAPI
	id  string
}

func ThreadSource(api ThreadAPI, threadID string) Source {
	return threadSource{api: api, id: threadID}
}

func (s threadSource) Target() string { return "thread:" + s.id }

func (s threadSource) Fetch(ctx context.Context) ([]models.Message, error) {
	t, err := s.api.GetMessages(ctx, s.id)
	if err != nil {
		return nil, err
	}
	return t.Messages, nil
}

func (s threadSource) Send(ctx context.Context, content string) error {
	_, err := s.api.SendMessage(ctx, s.id, content)
	return err
}

type groupSource struct {
	api GroupAPI
	id  string
}

func GroupSource(api GroupAPI, groupID string) Source {
	return groupSource{api: api, id: groupID}
}

func (s groupSource) Target() string { return "group:" + s.id }

func (s groupSource) Fetch(ctx context.Context) ([]models.Message, error) {
	return s.api.ListGroupMessages(ctx, s.id)
}

func (s groupSource) Send(ctx context.Context, content string) error {
	_, err := s.api.PostGroupMessage(ctx, s.id, content)
	return err
}

type ConversationSnapshot struct {
	State    State
	Target   string
	Messages []models.Message
}

// Conversation is one open chat panel. Each tick replaces the local
// messages wholesale with the server's array. A sent message is appended
// locally right away and stays until the next tick replaces the array, so
// it can briefly show twice.
type Conversation struct {
	lc       lifecycle
	interval time.Duration
	log      *zap.Logger
	self     models.SenderRef
	onChange func(ConversationSnapshot)
	wake     chan struct{}
	now      func() time.Time

	// guarded by lc.mu
	state    State
	src      Source
	messages []models.Message
	pending  int
}

// NewConversation builds a view for the signed-in user self. onChange, if
// set, receives every state change from the goroutine that made it.
func NewConversation(self models.SenderRef, interval time.Duration, log *zap.Logger, onChange func(ConversationSnapshot)) *Conversation {
	if log == nil {
		log = zap.NewNop()
	}
	if onChange == nil {
		onChange = func(ConversationSnapshot) {}
	}
	return &Conversation{
		interval: interval,
		log:      log,
		self:     self,
		onChange: onChange,
		wake:     wake(),
		now:      time.Now,
	}
}

// Open switches the view to src, tearing down the loop of any previous
// conversation first.
func (c *Conversation) Open(ctx context.Context, src Source) {
	c.lc.restart(ctx, func() {
		c.state, c.src, c.messages = Loading, src, nil
	}, func(ctx context.Context, gen uint64) {
		c.run(ctx, gen, src)
	})
}

// Close tears the loop down. When it returns no further state writes or
// onChange calls happen for the closed conversation.
func (c *Conversation) Close() {
	var snap ConversationSnapshot
	changed := false
	c.lc.stop(func() {
		changed = c.state != Idle
		c.state, c.src, c.messages = Idle, nil, nil
		snap = c.snapshotLocked()
	})
	if changed {
		c.onChange(snap)
	}
}

func (c *Conversation) run(ctx context.Context, gen uint64, src Source) {
	defer c.finish(gen)
	c.emit(gen)

	msgs, err := src.Fetch(ctx)
	if err != nil && ctx.Err() == nil {
		c.log.Warn("initial load failed", zap.String("target", src.Target()), zap.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	c.apply(gen, msgs, err == nil)

	Loop{
		Name:     src.Target(),
		Interval: c.interval,
		Wake:     c.wake,
		Log:      c.log,
		Tick: func(ctx context.Context) error {
			msgs, err := src.Fetch(ctx)
			if err != nil {
				return err
			}
			c.apply(gen, msgs, true)
			return nil
		},
	}.Run(ctx)
}

// apply moves the view to Polling and, when replace is set, swaps in msgs.
func (c *Conversation) apply(gen uint64, msgs []models.Message, replace bool) {
	c.lc.mu.Lock()
	if !c.lc.current(gen) {
		c.lc.mu.Unlock()
		return
	}
	c.state = Polling
	if replace {
		c.messages = append([]models.Message(nil), msgs...)
	}
	snap := c.snapshotLocked()
	c.lc.mu.Unlock()
	c.onChange(snap)
}

func (c *Conversation) emit(gen uint64) {
	c.lc.mu.Lock()
	if !c.lc.current(gen) {
		c.lc.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.lc.mu.Unlock()
	c.onChange(snap)
}

// finish drops back to Idle when the parent context ended the loop rather
// than Close or Open.
func (c *Conversation) finish(gen uint64) {
	c.lc.mu.Lock()
	if !c.lc.current(gen) {
		c.lc.mu.Unlock()
		return
	}
	c.state = Idle
	snap := c.snapshotLocked()
	c.lc.mu.Unlock()
	c.onChange(snap)
}

// Send posts content to the open conversation. On failure the local echo
// is withdrawn and the unsent draft is returned so the caller can restore
// the input box.
func (c *Conversation) Send(ctx context.Context, content string) (string, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return content, apperr.InvalidInput("message is empty")
	}

	c.lc.mu.Lock()
	if c.src == nil {
		c.lc.mu.Unlock()
		return content, apperr.InvalidInput("no conversation is open")
	}
	src, gen := c.src, c.lc.gen
	c.pending++
	echo := models.Message{
		ID:        fmt.Sprintf("pending-%d", c.pending),
		Sender:    c.self,
		Content:   text,
		Timestamp: c.now().UTC(),
	}
	c.messages = append(append([]models.Message(nil), c.messages...), echo)
	snap := c.snapshotLocked()
	c.lc.mu.Unlock()
	c.onChange(snap)

	if err := src.Send(ctx, text); err != nil {
		c.withdraw(gen, echo.ID)
		return content, err
	}
	signal(c.wake)
	return "", nil
}

func (c *Conversation) withdraw(gen uint64, id string) {
	c.lc.mu.Lock()
	if !c.lc.current(gen) {
		c.lc.mu.Unlock()
		return
	}
	kept := make([]models.Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	c.messages = kept
	snap := c.snapshotLocked()
	c.lc.mu.Unlock()
	c.onChange(snap)
}

// Wake polls now instead of waiting for the next tick.
func (c *Conversation) Wake() { signal(c.wake) }

func (c *Conversation) Snapshot() ConversationSnapshot {
	c.lc.mu.Lock()
	defer c.lc.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() ConversationSnapshot {
	s := ConversationSnapshot{State: c.state, Messages: append([]models.Message(nil), c.messages...)}
	if c.src != nil {
		s.Target = c.src.Target()
	}
	return s
}
