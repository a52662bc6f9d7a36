package repositories

import (
	"context"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	GetChildren(ctx context.Context, parentIDs []uint) ([]models.Comment, error)
	DeleteComments(ctx context.Context, ids []uint) error
	DeleteCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(comment).Error, "insert comment")
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, errors.Wrap(err, "find comment")
	}
	return &comment, nil
}

// GetCommentsByPostID retrieves every comment of a post, newest first
func (r *PostgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	return comments, errors.Wrap(err, "find post comments")
}

// GetChildren returns the direct replies to any of parentIDs
func (r *PostgresCommentRepository) GetChildren(ctx context.Context, parentIDs []uint) ([]models.Comment, error) {
	children := []models.Comment{}
	if len(parentIDs) == 0 {
		return children, nil
	}
	err := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Find(&children).Error
	return children, errors.Wrap(err, "find child comments")
}

// DeleteComments deletes comments by ID
func (r *PostgresCommentRepository) DeleteComments(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return errors.Wrap(r.db.WithContext(ctx).Delete(&models.Comment{}, ids).Error, "delete comments")
}

// DeleteCommentsByPostID removes every comment of a post and returns what was removed
func (r *PostgresCommentRepository) DeleteCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	var removed []models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Find(&removed).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "delete post comments")
	}
	return removed, nil
}
