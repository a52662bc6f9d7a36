package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	posts *services.PostService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(posts *services.PostService) *LikeHandler {
	return &LikeHandler{posts: posts}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.PUT("/posts/:id/like", h.ToggleLike)
}

// ToggleLike likes the post, or removes the like if the user already likes it
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	postID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	result, err := h.posts.ToggleLike(c.Request().Context(), userID, postID)
	if err != nil {
		return respondError(err)
	}
	message := "Post unliked."
	if result.Liked {
		message = "Post liked."
	}
	return ok(c, http.StatusOK, message, result)
}
