package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryLifetime is how long a story stays active after creation.
const StoryLifetime = 24 * time.Hour

// Story represents a user's story stored in MongoDB
type Story struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Images     []Media              `json:"images" bson:"images"`
	Music      string               `json:"music,omitempty" bson:"music,omitempty"`
	Visibility Visibility           `json:"visibility" bson:"visibility"`
	ExpiresAt  time.Time            `json:"expires_at" bson:"expires_at"`
	Views      []primitive.ObjectID `json:"views" bson:"views"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the story is still visible at now.
func (s *Story) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// StoryWithAuthor is a story with its owner populated.
type StoryWithAuthor struct {
	Story
	User UserSummary `json:"user"`
}

// CreateStoryRequest carries the text fields of a multipart story creation.
type CreateStoryRequest struct {
	Music      string `form:"music" validate:"omitempty,url"`
	Visibility string `form:"visibility" validate:"required,visibility"`
}

// UpdateStoryRequest changes visibility and removes images by URL.
type UpdateStoryRequest struct {
	ImagesToRemove []string `json:"images_to_remove"`
	Visibility     string   `json:"visibility" validate:"omitempty,visibility"`
}
