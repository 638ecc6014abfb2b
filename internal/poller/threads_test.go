package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadListDerivesPreview(t *testing.T) {
	api := newFakeAPI()
	api.addThreadMessage("t1", "bob", "first")
	api.addThreadMessage("t1", "me", "latest")

	l := NewThreadList(api, tick, nil, nil)
	l.Start(context.Background())
	defer l.Stop()

	require.Eventually(t, func() bool { return len(l.Threads()) == 1 }, time.Second, time.Millisecond)
	th := l.Threads()[0]
	require.NotNil(t, th.LastMessage)
	assert.Equal(t, "latest", th.LastMessage.Content)
	require.NotNil(t, th.LastMessageTime)
	assert.True(t, th.LastMessageTime.Equal(th.LastMessage.Timestamp))

	api.addThreadMessage("t2", "carol", "new thread")
	require.Eventually(t, func() bool { return len(l.Threads()) == 2 }, time.Second, time.Millisecond)
}

func TestThreadListStop(t *testing.T) {
	api := newFakeAPI()
	l := NewThreadList(api, tick, nil, nil)
	l.Start(context.Background())
	require.Eventually(t, func() bool { return api.count("threads") >= 2 }, time.Second, time.Millisecond)

	l.Stop()
	n := api.count("threads")
	time.Sleep(10 * tick)
	assert.Equal(t, n, api.count("threads"))
	assert.Empty(t, l.Threads())
}
