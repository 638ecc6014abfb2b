package main

import (
	"fmt"
	"sync"

	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/poller"
)

// cmdPrinter writes view changes to stdout. Callbacks arrive from several
// poll loops so writes are serialized.
type cmdPrinter struct {
	mu       sync.Mutex
	lastSeen map[string]int // printed message count per conversation
}

func newPrinter() *cmdPrinter {
	return &cmdPrinter{lastSeen: map[string]int{}}
}

func (p *cmdPrinter) lock() func() {
	p.mu.Lock()
	return p.mu.Unlock
}

func (p *cmdPrinter) threads(list []models.ThreadSummary) {
	defer p.lock()()
	fmt.Printf("threads (%d)\n", len(list))
	for _, t := range list {
		peer := t.ID
		if t.Peer != nil {
			peer = t.Peer.DisplayName
		}
		at := ""
		if t.LastMessageTime != nil {
			at = t.LastMessageTime.Format("15:04")
		}
		fmt.Printf("  %-20s  %-30s  %s\n", peer, preview(t.LastMessage), at)
	}
}

func (p *cmdPrinter) bell(b poller.BellSnapshot) {
	defer p.lock()()
	for _, n := range b.Fresh {
		fmt.Printf("* [%s] %s\n", n.Type, n.Content)
	}
	fmt.Printf("unread: %d\n", b.Unread)
}

func (p *cmdPrinter) conversation(c poller.ConversationSnapshot) {
	defer p.lock()()
	if c.State != poller.Polling {
		fmt.Printf("%s: %s\n", c.Target, c.State)
		return
	}
	seen := p.lastSeen[c.Target]
	if seen > len(c.Messages) {
		seen = 0
	}
	for _, m := range c.Messages[seen:] {
		fmt.Printf("%s %s: %s\n", m.Timestamp.Format("15:04"), m.Sender.DisplayName, m.Content)
	}
	p.lastSeen[c.Target] = len(c.Messages)
}

func preview(m *models.Message) string {
	if m == nil {
		return "(no messages)"
	}
	s := m.Content
	if r := []rune(s); len(r) > 30 {
		s = string(r[:27]) + "..."
	}
	return s
}
