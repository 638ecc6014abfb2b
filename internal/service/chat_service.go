package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/metrics"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

// ChatService manages direct threads between two users.
type ChatService struct {
	base
	users   repository.UserRepository
	threads repository.ThreadRepository
	notifs  *NotificationService
}

func NewChatService(users repository.UserRepository, threads repository.ThreadRepository, notifs *NotificationService, log *zap.Logger, opts ...Option) *ChatService {
	return &ChatService{
		base:    newBase(log, opts),
		users:   users,
		threads: threads,
		notifs:  notifs,
	}
}

// GetOrCreateThread returns the caller's thread with otherUserID. Repeated
// calls from either side return the same thread.
func (s *ChatService) GetOrCreateThread(ctx context.Context, sess Session, otherUserID string) (*models.Thread, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" {
		return nil, apperr.InvalidInput("user id is required")
	}
	if otherUserID == sess.UserID {
		return nil, apperr.InvalidInput("cannot start a chat with yourself")
	}
	if _, err := s.users.GetUser(ctx, otherUserID); err != nil {
		return nil, storeErr(err, "user")
	}
	t, err := s.threads.GetOrCreate(ctx, sess.UserID, otherUserID, s.now())
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	return t, nil
}

// loadForParticipant fetches a thread the caller takes part in.
func (s *ChatService) loadForParticipant(ctx context.Context, sess Session, threadID string) (*models.Thread, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(threadID) == "" {
		return nil, apperr.InvalidInput("thread id is required")
	}
	t, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	if !t.HasParticipant(sess.UserID) {
		return nil, apperr.Forbidden("not a participant of this thread")
	}
	return t, nil
}

// SendMessage appends one message from the caller. The recipient's
// notification is a separate write; its failure does not fail the send.
func (s *ChatService) SendMessage(ctx context.Context, sess Session, threadID, content string) (*models.Thread, error) {
	t, err := s.loadForParticipant(ctx, sess, threadID)
	if err != nil {
		return nil, err
	}
	content, err = cleanContent(content)
	if err != nil {
		return nil, err
	}

	sender := senderFor(ctx, s.users, sess.UserID)
	msg := models.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: s.now(),
	}
	updated, err := s.threads.AppendMessage(ctx, t.ID, msg)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	metrics.MessagesSent.WithLabelValues("direct").Inc()

	peer := updated.PeerOf(sess.UserID)
	if _, err := s.notifs.Create(ctx, CreateNotificationInput{
		UserID:    peer,
		Type:      models.NotificationMessage,
		Content:   fmt.Sprintf("%s sent you a message", sender.DisplayName),
		RelatedID: t.ID,
	}); err != nil {
		s.log.Warn("message notification not stored",
			zap.String("thread_id", t.ID),
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}

	s.publish(ctx, t.ID, models.ChatEvent{Event: models.EventMessageSent, ThreadID: t.ID, MessageID: msg.ID, Message: &msg, At: msg.Timestamp})
	s.hints.Notify(updated.Participants, models.Hint{Event: models.HintThread, ID: t.ID})
	return updated, nil
}

// GetMessages returns the thread with its full history.
func (s *ChatService) GetMessages(ctx context.Context, sess Session, threadID string) (*models.Thread, error) {
	return s.loadForParticipant(ctx, sess, threadID)
}

// ListThreads returns every thread of the caller, most recently active
// first, each with its derived last message.
func (s *ChatService) ListThreads(ctx context.Context, sess Session) ([]models.ThreadSummary, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	threads, err := s.threads.ListForUser(ctx, sess.UserID)
	if err != nil {
		return nil, storeErr(err, "threads")
	}

	peerIDs := make([]string, 0, len(threads))
	for i := range threads {
		peerIDs = append(peerIDs, threads[i].PeerOf(sess.UserID))
	}
	refs := map[string]models.SenderRef{}
	if users, err := s.users.GetUsers(ctx, peerIDs); err != nil {
		s.log.Warn("peer lookup failed", zap.Error(err))
	} else {
		for _, u := range users {
			refs[u.ID] = u.Ref()
		}
	}

	out := make([]models.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		peerID := t.PeerOf(sess.UserID)
		ref, ok := refs[peerID]
		if !ok {
			ref = models.SenderRef{ID: peerID, DisplayName: peerID}
		}
		out = append(out, models.Summarize(t, &ref))
	}
	return out, nil
}

func (s *ChatService) ownMessage(ctx context.Context, sess Session, threadID, messageID string) (*models.Thread, error) {
	t, err := s.loadForParticipant(ctx, sess, threadID)
	if err != nil {
		return nil, err
	}
	m, ok := t.FindMessage(messageID)
	if !ok {
		return nil, apperr.NotFound("message not found")
	}
	if m.Sender.ID != sess.UserID {
		return nil, apperr.Forbidden("only the sender may change a message")
	}
	return t, nil
}

func (s *ChatService) EditMessage(ctx context.Context, sess Session, threadID, messageID, content string) (*models.Thread, error) {
	t, err := s.ownMessage(ctx, sess, threadID, messageID)
	if err != nil {
		return nil, err
	}
	content, err = cleanContent(content)
	if err != nil {
		return nil, err
	}
	at := s.now()
	updated, err := s.threads.EditMessage(ctx, t.ID, messageID, content, at)
	if err != nil {
		return nil, storeErr(err, "message")
	}
	s.publish(ctx, t.ID, models.ChatEvent{Event: models.EventMessageEdited, ThreadID: t.ID, MessageID: messageID, At: at})
	s.hints.Notify(updated.Participants, models.Hint{Event: models.HintThread, ID: t.ID})
	return updated, nil
}

func (s *ChatService) DeleteMessage(ctx context.Context, sess Session, threadID, messageID string) (*models.Thread, error) {
	t, err := s.ownMessage(ctx, sess, threadID, messageID)
	if err != nil {
		return nil, err
	}
	updated, err := s.threads.DeleteMessage(ctx, t.ID, messageID)
	if err != nil {
		return nil, storeErr(err, "message")
	}
	s.publish(ctx, t.ID, models.ChatEvent{Event: models.EventMessageDeleted, ThreadID: t.ID, MessageID: messageID, At: s.now()})
	s.hints.Notify(updated.Participants, models.Hint{Event: models.HintThread, ID: t.ID})
	return updated, nil
}
