package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a comment or, with parent_comment_id, a reply.
// The multipart form may carry one "image".
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		return respondError(apperr.BadRequest("Invalid post_id."))
	}
	parentID, err := parseParentID(req.ParentCommentID)
	if err != nil {
		return respondError(err)
	}
	image, err := formFile(c, "image")
	if err != nil {
		return respondError(err)
	}

	comment, err := h.comments.CreateComment(c.Request().Context(), userID, postID, req.Text, parentID, image)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusCreated, "Comment added successfully.", comment)
}

func parseParentID(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperr.BadRequest("Invalid parent_comment_id.")
	}
	id := uint(n)
	return &id, nil
}

// GetCommentsByPostID returns the comment tree of a post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	postID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	tree, err := h.comments.GetComments(c.Request().Context(), userID, postID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", tree)
}

// DeleteComment deletes a comment and all of its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	commentID, err := paramUint(c, "id")
	if err != nil {
		return respondError(err)
	}
	if err := h.comments.DeleteComment(c.Request().Context(), userID, commentID); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Comment deleted successfully.", nil)
}
