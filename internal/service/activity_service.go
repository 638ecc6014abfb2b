package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/metrics"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

// ActivityService turns activity elsewhere on the platform (likes,
// comments, OD decisions, query replies, reminders) into notifications.
type ActivityService struct {
	log        *zap.Logger
	notifs     *NotificationService
	users      repository.UserRepository
	dlq        Publisher
	maxRetries uint64
	backoff    time.Duration
}

type ActivityConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
	// DeadLetter receives raw events that could not be stored. Optional.
	DeadLetter Publisher
}

func NewActivityService(notifs *NotificationService, users repository.UserRepository, cfg ActivityConfig, log *zap.Logger) *ActivityService {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	dlq := cfg.DeadLetter
	if dlq == nil {
		dlq = noopPublisher{}
	}
	return &ActivityService{
		log:        log,
		notifs:     notifs,
		users:      users,
		dlq:        dlq,
		maxRetries: uint64(cfg.MaxRetries),
		backoff:    cfg.RetryBackoff,
	}
}

// Record stores the notification for ev. Self-directed activity returns
// (nil, nil): nobody is notified about liking their own post.
func (s *ActivityService) Record(ctx context.Context, ev models.ActivityEvent) (*models.Notification, error) {
	ev.RecipientID = strings.TrimSpace(ev.RecipientID)
	if ev.RecipientID == "" {
		return nil, apperr.InvalidInput("recipient_id is required")
	}
	if ev.ActorID != "" && ev.ActorID == ev.RecipientID {
		return nil, nil
	}
	content, err := s.render(ctx, ev)
	if err != nil {
		return nil, err
	}
	return s.notifs.Create(ctx, CreateNotificationInput{
		UserID:    ev.RecipientID,
		Type:      ev.Type,
		Content:   content,
		RelatedID: ev.RelatedID,
	})
}

func (s *ActivityService) actorName(ctx context.Context, actorID string) string {
	if actorID == "" {
		return "Someone"
	}
	u, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return "Someone"
	}
	return u.DisplayName()
}

func (s *ActivityService) render(ctx context.Context, ev models.ActivityEvent) (string, error) {
	detail := strings.TrimSpace(ev.Detail)
	switch ev.Type {
	case models.NotificationLike:
		return s.actorName(ctx, ev.ActorID) + " liked your post", nil
	case models.NotificationComment:
		text := s.actorName(ctx, ev.ActorID) + " commented on your post"
		if detail != "" {
			text += ": " + detail
		}
		return text, nil
	case models.NotificationMessage:
		return s.actorName(ctx, ev.ActorID) + " sent you a message", nil
	case models.NotificationQueryResponse:
		return s.actorName(ctx, ev.ActorID) + " responded to your query", nil
	case models.NotificationODStatus:
		if detail == "" {
			return "Your OD claim was updated", nil
		}
		return "Your OD claim was " + detail, nil
	case models.NotificationAnnouncement:
		if detail == "" {
			return "", apperr.InvalidInput("announcement detail is required")
		}
		return "New announcement: " + detail, nil
	case models.NotificationEventReminder:
		if detail == "" {
			return "", apperr.InvalidInput("event reminder detail is required")
		}
		return "Reminder: " + detail, nil
	case "":
		return "", apperr.InvalidInput("type is required")
	default:
		if detail == "" {
			return "", apperr.InvalidInput(fmt.Sprintf("no content for activity type %q", ev.Type))
		}
		return detail, nil
	}
}

// Handle consumes one raw activity event. Malformed events are dropped;
// store outages are retried with exponential backoff and then dead-lettered.
func (s *ActivityService) Handle(ctx context.Context, raw []byte) error {
	var ev models.ActivityEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		metrics.ActivityEvents.WithLabelValues("invalid").Inc()
		s.log.Warn("dropping malformed activity event", zap.Error(err))
		return nil
	}

	var n *models.Notification
	op := func() error {
		var err error
		n, err = s.Record(ctx, ev)
		if err != nil && apperr.KindOf(err) != apperr.KindUnavailable {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.backoff
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx))

	switch {
	case err == nil && n == nil:
		metrics.ActivityEvents.WithLabelValues("skipped").Inc()
		return nil
	case err == nil:
		metrics.ActivityEvents.WithLabelValues("stored").Inc()
		return nil
	case apperr.KindOf(err) == apperr.KindInvalidInput:
		metrics.ActivityEvents.WithLabelValues("invalid").Inc()
		s.log.Warn("dropping invalid activity event", zap.String("type", ev.Type), zap.Error(err))
		return nil
	}

	metrics.ActivityEvents.WithLabelValues("failed").Inc()
	s.log.Error("activity event not stored after retries",
		zap.String("type", ev.Type),
		zap.String("recipient_id", ev.RecipientID),
		zap.Error(err))
	if dlqErr := s.dlq.Publish(ctx, ev.RecipientID, json.RawMessage(raw)); dlqErr != nil {
		return errors.Join(err, fmt.Errorf("dead letter: %w", dlqErr))
	}
	return err
}
