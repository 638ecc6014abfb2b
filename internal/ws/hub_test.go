package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) hints() []models.Hint {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Hint, 0, len(f.written))
	for _, w := range f.written {
		var h models.Hint
		_ = json.Unmarshal(w, &h)
		out = append(out, h)
	}
	return out
}

func TestNotifyReachesOnlyRecipients(t *testing.T) {
	h := NewHub(nil)
	alice, bob := newFakeConn(), newFakeConn()
	go newClient(h, "alice", alice).serve()
	go newClient(h, "bob", bob).serve()
	require.Eventually(t, func() bool { return h.Online("alice") == 1 && h.Online("bob") == 1 }, time.Second, 5*time.Millisecond)

	h.Notify([]string{"alice", "alice", "carol"}, models.Hint{Event: models.HintThread, ID: "t1"})

	require.Eventually(t, func() bool { return len(alice.hints()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.Hint{Event: models.HintThread, ID: "t1"}, alice.hints()[0])
	assert.Empty(t, bob.hints())

	h.Broadcast(models.Hint{Event: models.HintGroup, ID: models.WorldGroupID})
	require.Eventually(t, func() bool { return len(bob.hints()) == 1 && len(alice.hints()) == 2 }, time.Second, 5*time.Millisecond)

	h.Close()
	assert.Equal(t, 0, h.Online("alice"))
}

func TestDisconnectUnregisters(t *testing.T) {
	h := NewHub(nil)
	c := newFakeConn()
	done := make(chan struct{})
	go func() {
		newClient(h, "alice", c).serve()
		close(done)
	}()
	require.Eventually(t, func() bool { return h.Online("alice") == 1 }, time.Second, 5*time.Millisecond)

	_ = c.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve did not return after disconnect")
	}
	assert.Equal(t, 0, h.Online("alice"))
	h.Notify([]string{"alice"}, models.Hint{Event: models.HintNotification})
}

func TestSlowClientDropped(t *testing.T) {
	h := NewHub(nil)
	// registered without a write pump, so nothing drains the buffer
	c := newClient(h, "alice", newFakeConn())
	h.Register(c)

	for i := 0; i < sendBuffer; i++ {
		h.Notify([]string{"alice"}, models.Hint{Event: models.HintNotification})
	}
	assert.Equal(t, 1, h.Online("alice"))

	h.Notify([]string{"alice"}, models.Hint{Event: models.HintNotification})
	assert.Equal(t, 0, h.Online("alice"))

	h.Unregister(c)
}
