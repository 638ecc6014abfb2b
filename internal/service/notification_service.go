package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/metrics"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

type NotificationService struct {
	base
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository, log *zap.Logger, opts ...Option) *NotificationService {
	return &NotificationService{base: newBase(log, opts), repo: repo}
}

type CreateNotificationInput struct {
	UserID    string
	Type      string
	Content   string
	RelatedID string
}

// Create stores a notification for in.UserID. It is called by other flows
// on the recipient's behalf; repeated triggers create repeated records.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Type = strings.TrimSpace(in.Type)
	switch {
	case in.UserID == "":
		return nil, apperr.InvalidInput("user_id is required")
	case in.Type == "":
		return nil, apperr.InvalidInput("type is required")
	case strings.TrimSpace(in.Content) == "":
		return nil, apperr.InvalidInput("content is required")
	}

	n := &models.Notification{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    in.UserID,
		Type:      in.Type,
		Content:   in.Content,
		RelatedID: in.RelatedID,
		Read:      false,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, storeErr(err, "notification")
	}
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()

	s.publish(ctx, n.UserID, models.ChatEvent{Event: models.EventNotificationCreated, Notification: n, At: n.CreatedAt})
	s.hints.Notify([]string{n.UserID}, models.Hint{Event: models.HintNotification, ID: n.ID})
	return n, nil
}

func (s *NotificationService) own(sess Session, userID string) error {
	if err := sess.check(); err != nil {
		return err
	}
	if userID != sess.UserID {
		return apperr.Forbidden("notifications belong to their recipient")
	}
	return nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, sess Session, userID string) ([]models.Notification, error) {
	if err := s.own(sess, userID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "notifications")
	}
	return list, nil
}

// MarkRead is idempotent: an already read notification is returned as is.
func (s *NotificationService) MarkRead(ctx context.Context, sess Session, id string) (*models.Notification, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	if n.UserID != sess.UserID {
		return nil, apperr.Forbidden("notifications belong to their recipient")
	}
	if n.Read {
		return n, nil
	}
	n, err = s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, sess Session, userID string) error {
	if err := s.own(sess, userID); err != nil {
		return err
	}
	changed, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return storeErr(err, "notifications")
	}
	s.log.Debug("marked notifications read", zap.String("user_id", userID), zap.Int64("changed", changed))
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, sess Session, userID string) (int64, error) {
	if err := s.own(sess, userID); err != nil {
		return 0, err
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, storeErr(err, "notifications")
	}
	return n, nil
}
