package services

import (
	"context"

	"github.com/anonto42/socials/backend/internal/metrics"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPage is one page of a recipient's notifications.
type NotificationPage struct {
	Notifications []models.NotificationView `json:"notifications"`
	Total         int64                     `json:"total"`
	Page          int                       `json:"page"`
	Limit         int                       `json:"limit"`
}

// NotificationService is the append-only notification sink and its read side.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
}

func NewNotificationService(notifications repositories.NotificationRepository, users repositories.UserRepository) *NotificationService {
	return &NotificationService{notifications: notifications, users: users}
}

// Notify appends one event. Events addressed to their own sender are dropped.
func (s *NotificationService) Notify(ctx context.Context, typ models.NotificationType, sender, recipient primitive.ObjectID, message string) error {
	if sender == recipient {
		return nil
	}
	err := s.notifications.CreateNotification(ctx, &models.Notification{
		Type:        typ,
		SenderID:    sender.Hex(),
		RecipientID: recipient.Hex(),
		Message:     message,
	})
	if err != nil {
		return err
	}
	metrics.NotificationsEmitted.WithLabelValues(string(typ)).Inc()
	return nil
}

// List returns a page of the recipient's notifications, newest first, with senders populated.
func (s *NotificationService) List(ctx context.Context, recipient primitive.ObjectID, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := s.notifications.GetByRecipientID(ctx, recipient.Hex(), page, limit)
	if err != nil {
		return nil, err
	}

	senderHexes := make([]string, len(items))
	for i, n := range items {
		senderHexes[i] = n.SenderID
	}
	senders, err := summaries(ctx, s.users, hexIDs(senderHexes))
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, len(items))
	for i, n := range items {
		views[i] = models.NotificationView{Notification: n}
		if id, err := primitive.ObjectIDFromHex(n.SenderID); err == nil {
			views[i].Sender = senders[id]
		}
	}
	return &NotificationPage{Notifications: views, Total: total, Page: page, Limit: limit}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, recipient.Hex())
}

func (s *NotificationService) MarkAsRead(ctx context.Context, recipient primitive.ObjectID, id uint) error {
	return s.notifications.MarkAsRead(ctx, id, recipient.Hex())
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) error {
	return s.notifications.MarkAllAsRead(ctx, recipient.Hex())
}
