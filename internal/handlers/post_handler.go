package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/me", h.GetMyPosts)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a post from a multipart form with one to ten "images"
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	files, err := formFiles(c, "images")
	if err != nil {
		return respondError(err)
	}

	post, err := h.posts.CreatePost(c.Request().Context(), userID, req.Content, req.Visibility, files)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusCreated, "Post created successfully.", post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	postID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	post, err := h.posts.GetPost(c.Request().Context(), userID, postID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", post)
}

// GetMyPosts returns every post of the current user including private ones
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	page := pageFromQuery(c)
	result, err := h.posts.GetUserPosts(c.Request().Context(), userID, page)
	if err != nil {
		return respondError(err)
	}
	return postPage(c, page, result)
}

// UpdatePost edits content, visibility and, when "images" are sent, replaces the images
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	postID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	files, err := formFiles(c, "images")
	if err != nil {
		return respondError(err)
	}

	post, err := h.posts.UpdatePost(c.Request().Context(), userID, postID, req.Content, req.Visibility, files)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Post updated successfully.", post)
}

// DeletePost deletes a post with its comments and images
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	postID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	if err := h.posts.DeletePost(c.Request().Context(), userID, postID); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Post deleted successfully.", nil)
}
