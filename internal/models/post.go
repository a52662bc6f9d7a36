package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB
type Post struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Content    string               `json:"content" bson:"content"`
	Images     []Media              `json:"images" bson:"images"`
	Visibility Visibility           `json:"visibility" bson:"visibility"`
	Likes      []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments   []uint               `json:"comments" bson:"comments"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// PostView is a post with its owner populated.
type PostView struct {
	Post
	User       UserSummary `json:"user"`
	LikesCount int         `json:"likes_count"`
}

// PostPage is one page of a visibility-scoped post listing.
type PostPage struct {
	Posts []PostView `json:"posts"`
	Total int64      `json:"total"`
}

// UpdatePostRequest carries the text fields of a multipart post update.
type UpdatePostRequest struct {
	Content    string `form:"content" validate:"omitempty,min=1,max=5000"`
	Visibility string `form:"visibility" validate:"omitempty,visibility"`
}

// CreatePostRequest carries the text fields of a multipart post creation.
type CreatePostRequest struct {
	Content    string `form:"content" validate:"required,min=1,max=5000"`
	Visibility string `form:"visibility" validate:"required,visibility"`
}
