package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	posts *services.PostService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(posts *services.PostService) *FeedHandler {
	return &FeedHandler{posts: posts}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/users/:id/posts", h.GetOtherUserPosts)
}

// GetFeed returns the posts visible to the current user, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	page := pageFromQuery(c)
	result, err := h.posts.GetAllPosts(c.Request().Context(), userID, page)
	if err != nil {
		return respondError(err)
	}
	return postPage(c, page, result)
}

// GetOtherUserPosts returns the posts of :id the current user may see
func (h *FeedHandler) GetOtherUserPosts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	owner, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	page := pageFromQuery(c)
	result, err := h.posts.GetOtherUserPosts(c.Request().Context(), userID, owner, page)
	if err != nil {
		return respondError(err)
	}
	return postPage(c, page, result)
}

func postPage(c echo.Context, page services.Page, result *models.PostPage) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": result.Posts},
		"meta": echo.Map{
			"totalItems": result.Total,
			"limit":      page.Limit,
			"offset":     page.Offset,
			"hasMore":    page.Offset+int64(len(result.Posts)) < result.Total,
		},
	})
}
