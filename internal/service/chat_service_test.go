package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/models"
)

func TestGetOrCreateThreadUniquePerPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ab, err := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	require.NoError(t, err)
	ba, err := f.chat.GetOrCreateThread(ctx, as("bob"), "alice")
	require.NoError(t, err)
	again, err := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	require.NoError(t, err)

	assert.Equal(t, ab.ID, ba.ID)
	assert.Equal(t, ab.ID, again.ID)
	assert.Empty(t, ab.Messages)
}

func TestGetOrCreateThreadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.chat.GetOrCreateThread(ctx, as("alice"), "alice")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.chat.GetOrCreateThread(ctx, as("alice"), "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.chat.GetOrCreateThread(ctx, as("alice"), " ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.chat.GetOrCreateThread(ctx, Session{}, "bob")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestSendMessageAppendsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, err := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	require.NoError(t, err)

	const n = 6
	for i := 0; i < n; i++ {
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := f.chat.SendMessage(ctx, as(sender), th.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	got, err := f.chat.GetMessages(ctx, as("bob"), th.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, n)
	for i, m := range got.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		if i > 0 {
			assert.True(t, m.Timestamp.After(got.Messages[i-1].Timestamp))
		}
	}
	assert.Equal(t, models.SenderRef{ID: "bob", DisplayName: "Bob"}, got.Messages[1].Sender)
}

func TestSendMessageErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")

	_, err := f.chat.SendMessage(ctx, as("alice"), "missing", "hi")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.chat.SendMessage(ctx, as("mallory"), th.ID, "hi")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.chat.SendMessage(ctx, as("alice"), th.ID, "   ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.chat.GetMessages(ctx, as("mallory"), th.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	got, _ := f.chat.GetMessages(ctx, as("alice"), th.ID)
	assert.Empty(t, got.Messages)
}

func TestDirectChatScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1, err := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	require.NoError(t, err)
	require.Empty(t, t1.Messages)

	sent, err := f.chat.SendMessage(ctx, as("alice"), t1.ID, "hi")
	require.NoError(t, err)
	sentAt := sent.Messages[len(sent.Messages)-1].Timestamp

	list, err := f.chat.ListThreads(ctx, as("bob"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, t1.ID, list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "hi", list[0].LastMessage.Content)
	require.NotNil(t, list[0].LastMessageTime)
	assert.True(t, sentAt.Equal(*list[0].LastMessageTime))
	assert.Equal(t, &models.SenderRef{ID: "alice", DisplayName: "Alice"}, list[0].Peer)
}

func TestListThreadsMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ab, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	ac, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "carol")

	_, _ = f.chat.SendMessage(ctx, as("alice"), ab.ID, "first")
	_, _ = f.chat.SendMessage(ctx, as("carol"), ac.ID, "second")

	list, err := f.chat.ListThreads(ctx, as("alice"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ac.ID, list[0].ID)
	assert.Equal(t, ab.ID, list[1].ID)
	assert.Len(t, list[0].Messages, 1, "full history is returned")
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")

	_, err := f.chat.SendMessage(ctx, as("alice"), th.ID, "hi")
	require.NoError(t, err)

	list, err := f.notifSvc.List(ctx, as("bob"), "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationMessage, list[0].Type)
	assert.Equal(t, th.ID, list[0].RelatedID)
	assert.Equal(t, "Alice sent you a message", list[0].Content)
	assert.False(t, list[0].Read)

	own, _ := f.notifSvc.List(ctx, as("alice"), "alice")
	assert.Empty(t, own)

	assert.Contains(t, f.hints.notified["bob"], models.Hint{Event: models.HintThread, ID: th.ID})
	assert.Contains(t, f.hints.notified["bob"], models.Hint{Event: models.HintNotification, ID: list[0].ID})
}

func TestSendMessageSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	f.notifs.fail = 1

	_, err := f.chat.SendMessage(ctx, as("alice"), th.ID, "delivered without a notification")
	require.NoError(t, err)

	got, _ := f.chat.GetMessages(ctx, as("bob"), th.ID)
	require.Len(t, got.Messages, 1)
	count, err := f.notifSvc.UnreadCount(ctx, as("bob"), "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = f.chat.SendMessage(ctx, as("alice"), th.ID, "this one notifies")
	require.NoError(t, err)
	count, _ = f.notifSvc.UnreadCount(ctx, as("bob"), "bob")
	assert.EqualValues(t, 1, count)
}

func TestSendMessageIgnoresPublishFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	f.events.err = fmt.Errorf("broker unavailable")

	_, err := f.chat.SendMessage(ctx, as("alice"), th.ID, "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, f.events.events)
}

func TestEditAndDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.chat.GetOrCreateThread(ctx, as("alice"), "bob")
	sent, _ := f.chat.SendMessage(ctx, as("alice"), th.ID, "helo")
	msgID := sent.Messages[0].ID

	_, err := f.chat.EditMessage(ctx, as("bob"), th.ID, msgID, "hijack")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.chat.EditMessage(ctx, as("alice"), th.ID, "nope", "x")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.chat.EditMessage(ctx, as("alice"), th.ID, msgID, "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	edited, err := f.chat.EditMessage(ctx, as("alice"), th.ID, msgID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", edited.Messages[0].Content)
	assert.NotNil(t, edited.Messages[0].EditedAt)
	assert.Equal(t, sent.Messages[0].Timestamp, edited.Messages[0].Timestamp)

	_, err = f.chat.DeleteMessage(ctx, as("mallory"), th.ID, msgID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	deleted, err := f.chat.DeleteMessage(ctx, as("alice"), th.ID, msgID)
	require.NoError(t, err)
	assert.Empty(t, deleted.Messages)

	_, err = f.chat.DeleteMessage(ctx, as("alice"), th.ID, msgID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
