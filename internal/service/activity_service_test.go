package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

func TestLikeNotificationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, err := f.notifSvc.UnreadCount(ctx, as("alice"), "alice")
	require.NoError(t, err)

	n, err := f.activity.Record(ctx, models.ActivityEvent{
		Type: models.NotificationLike, ActorID: "bob", RecipientID: "alice", RelatedID: "post-1",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, models.NotificationLike, n.Type)
	assert.Equal(t, "alice", n.UserID)
	assert.Equal(t, "post-1", n.RelatedID)
	assert.Equal(t, "Bob liked your post", n.Content)
	assert.False(t, n.Read)

	after, _ := f.notifSvc.UnreadCount(ctx, as("alice"), "alice")
	assert.Equal(t, before+1, after)
}

func TestRecordRendersContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		ev   models.ActivityEvent
		want string
	}{
		{models.ActivityEvent{Type: "comment", ActorID: "bob", Detail: "nice shot"}, "Bob commented on your post: nice shot"},
		{models.ActivityEvent{Type: "od_status", ActorID: "carol", Detail: "approved"}, "Your OD claim was approved"},
		{models.ActivityEvent{Type: "query_response", ActorID: "ghost"}, "Someone responded to your query"},
		{models.ActivityEvent{Type: "announcement", Detail: "Exams moved to May"}, "New announcement: Exams moved to May"},
		{models.ActivityEvent{Type: "event_reminder", Detail: "Hackathon starts at 10"}, "Reminder: Hackathon starts at 10"},
		{models.ActivityEvent{Type: "follow", ActorID: "bob", Detail: "Bob followed you"}, "Bob followed you"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Type, func(t *testing.T) {
			tt.ev.RecipientID = "alice"
			n, err := f.activity.Record(ctx, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Content)
		})
	}
}

func TestRecordSkipsSelfActivity(t *testing.T) {
	f := newFixture(t)
	n, err := f.activity.Record(context.Background(), models.ActivityEvent{Type: "like", ActorID: "alice", RecipientID: "alice"})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestHandleDropsBadEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.activity.Handle(ctx, []byte(`{not json`)))
	assert.NoError(t, f.activity.Handle(ctx, []byte(`{"type":"like","actor_id":"bob"}`)))
	assert.NoError(t, f.activity.Handle(ctx, []byte(`{"type":"announcement","recipient_id":"alice"}`)))

	list, _ := f.notifSvc.List(ctx, as("alice"), "alice")
	assert.Empty(t, list)
}

func TestHandleRetriesStoreOutage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifs.fail = 2

	raw, _ := json.Marshal(models.ActivityEvent{Type: "like", ActorID: "bob", RecipientID: "alice"})
	require.NoError(t, f.activity.Handle(ctx, raw))

	count, _ := f.notifSvc.UnreadCount(ctx, as("alice"), "alice")
	assert.EqualValues(t, 1, count)
}

func TestHandleDeadLettersAfterRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dlq := &recordingPublisher{}
	activity := NewActivityService(f.notifSvc, f.store.Users, ActivityConfig{
		MaxRetries: 1, RetryBackoff: time.Millisecond, DeadLetter: dlq,
	}, zap.NewNop())
	f.notifs.fail = 10

	raw, _ := json.Marshal(models.ActivityEvent{Type: "like", ActorID: "bob", RecipientID: "alice"})
	err := activity.Handle(ctx, raw)
	assert.ErrorIs(t, err, errStoreDown)

	require.Len(t, dlq.events, 1)
	assert.JSONEq(t, string(raw), string(dlq.events[0].(json.RawMessage)))
	assert.Equal(t, 8, f.notifs.fail, "one attempt plus one retry")
}
