package models

import "time"

// NotificationType is the kind of event a notification records.
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend-request"
	NotificationFriendAccepted NotificationType = "friend-accepted"
	NotificationFriendRejected NotificationType = "friend-rejected"
	NotificationPostLiked      NotificationType = "post-liked"
	NotificationCommented      NotificationType = "commented"
	NotificationMessage        NotificationType = "message"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:30;index"`
	SenderID    string           `json:"sender_id" gorm:"size:24;index"`
	RecipientID string           `json:"recipient_id" gorm:"size:24;index"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

// NotificationView is a notification with its sender populated.
type NotificationView struct {
	Notification
	Sender UserSummary `json:"sender"`
}
