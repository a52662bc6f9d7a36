package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	stories *services.StoryService
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(stories *services.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.GET("/stories", h.GetStories)
	g.POST("/stories", h.CreateStory)
	g.POST("/stories/:id/view", h.ViewStory)
	g.PUT("/stories/:id", h.UpdateStory)
	g.DELETE("/stories/:id", h.DeleteStory)
}

// GetStories returns the active stories the current user may see
func (h *StoryHandler) GetStories(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	stories, err := h.stories.GetStories(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", stories)
}

// CreateStory starts a story or appends "images" to the user's active one
func (h *StoryHandler) CreateStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.CreateStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	files, err := formFiles(c, "images")
	if err != nil {
		return respondError(err)
	}

	story, created, err := h.stories.CreateStory(c.Request().Context(), userID, req.Visibility, req.Music, files)
	if err != nil {
		return respondError(err)
	}
	if created {
		return ok(c, http.StatusCreated, "Story created successfully.", story)
	}
	return ok(c, http.StatusOK, "Story updated successfully.", story)
}

// ViewStory records the current user as a viewer
func (h *StoryHandler) ViewStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	storyID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	story, err := h.stories.ViewStory(c.Request().Context(), userID, storyID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", story)
}

// UpdateStory changes visibility or removes images of the user's story
func (h *StoryHandler) UpdateStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	storyID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	var req models.UpdateStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	story, err := h.stories.UpdateStory(c.Request().Context(), userID, storyID, req.ImagesToRemove, req.Visibility)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Story updated successfully.", story)
}

// DeleteStory deletes the user's story and its images
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	storyID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	if err := h.stories.DeleteStory(c.Request().Context(), userID, storyID); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Story deleted successfully.", nil)
}
