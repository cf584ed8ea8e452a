package service

import (
	"context"
	"encoding/json"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// NotificationService records notifications and schedules outbox delivery.
// Every method that runs as a workflow side effect swallows its errors: a
// failed notification never fails the transaction that triggered it.
type NotificationService struct {
	db     *database.DB
	outbox domain.OutboxEnqueuer
	logger *zerolog.Logger
}

func NewNotificationService(db *database.DB, outbox domain.OutboxEnqueuer, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{db: db, outbox: outbox, logger: logger}
}

// NotifyPayload is what the outbox worker delivers to external channels.
type NotifyPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Link  string `json:"link,omitempty"`
}

// Notify writes the notification row and enqueues delivery. Best effort.
func (s *NotificationService) Notify(ctx context.Context, userID int64, notifType, title, body, link string) {
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.db.CreateNotification(ctx, n); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("type", notifType).Msg("create notification failed")
		return
	}

	payload, err := json.Marshal(NotifyPayload{Type: notifType, Title: title, Body: body, Link: link})
	if err != nil {
		s.logger.Error().Err(err).Str("type", notifType).Msg("encode notification payload failed")
		return
	}

	if s.outbox == nil {
		return
	}
	task := &models.OutboxTask{TaskType: models.TaskNotify, UserID: userID, Payload: string(payload)}
	if err := s.outbox.Enqueue(ctx, task); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("enqueue notification delivery failed")
	}
}

var _ domain.Notifier = (*NotificationService)(nil)

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	return s.db.ListNotifications(ctx, userID, limit)
}

// UnreadCount returns how many notifications the user has not read yet.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.db.CountUnreadNotifications(ctx, userID)
}

// MarkAllRead acknowledges the user's whole inbox.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.db.MarkNotificationsRead(ctx, userID)
}
