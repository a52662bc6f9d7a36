package models

import "time"

// Comment is a comment on a post. Replies point at their parent through
// ParentID; children are found by querying that column, never by a stored list.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index;not null"` // MongoDB ObjectID hex
	UserID    string    `json:"user_id" gorm:"size:24;index;not null"`
	Text      string    `json:"text" gorm:"type:text"`
	ImageURL  string    `json:"image,omitempty"`
	ImageID   string    `json:"-"`
	ParentID  *uint     `json:"parent_comment,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentNode is a comment with its author and replies populated.
type CommentNode struct {
	Comment
	User    UserSummary   `json:"user"`
	Replies []CommentNode `json:"replies"`
}

// CreateCommentRequest carries the text fields of a multipart comment creation.
type CreateCommentRequest struct {
	PostID          string `form:"post_id" validate:"required"`
	Text            string `form:"text" validate:"max=2000"`
	ParentCommentID string `form:"parent_comment_id"`
}
