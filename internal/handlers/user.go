package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	accounts *services.AccountService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/profile/picture", h.UpdateProfilePicture)
	g.DELETE("/profile/picture", h.RemoveProfilePicture)
	g.PUT("/profile/cover", h.UpdateCoverPhoto)
	g.PUT("/profile/bio", h.UpdateBio)
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	return h.profile(c, primitive.NilObjectID)
}

// GetUser returns another user's profile
func (h *UserHandler) GetUser(c echo.Context) error {
	target, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	return h.profile(c, target)
}

func (h *UserHandler) profile(c echo.Context, target primitive.ObjectID) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	profile, err := h.accounts.GetUserInfo(c.Request().Context(), userID, target)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", profile)
}

// SearchUsers matches the keyword query parameter against usernames and emails
func (h *UserHandler) SearchUsers(c echo.Context) error {
	users, err := h.accounts.SearchUsers(c.Request().Context(), c.QueryParam("keyword"))
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", users)
}

// UpdateProfilePicture replaces the profile picture with the uploaded "image"
func (h *UserHandler) UpdateProfilePicture(c echo.Context) error {
	return h.withImage(c, h.accounts.UpdateProfilePicture, "Profile picture updated.")
}

// UpdateCoverPhoto replaces the cover photo with the uploaded "image"
func (h *UserHandler) UpdateCoverPhoto(c echo.Context) error {
	return h.withImage(c, h.accounts.UpdateCoverPhoto, "Cover photo updated.")
}

func (h *UserHandler) withImage(c echo.Context, update func(context.Context, primitive.ObjectID, media.File) (*models.Profile, error), message string) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	file, err := formFile(c, "image")
	if err != nil {
		return respondError(err)
	}
	if file == nil {
		return respondError(apperr.BadRequest("Image is required."))
	}
	profile, err := update(c.Request().Context(), userID, *file)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, message, profile)
}

// RemoveProfilePicture clears the profile picture
func (h *UserHandler) RemoveProfilePicture(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	profile, err := h.accounts.RemoveProfilePicture(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Profile picture removed.", profile)
}

// UpdateBio sets the bio of the current user
func (h *UserHandler) UpdateBio(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.UpdateBioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	profile, err := h.accounts.UpdateBio(c.Request().Context(), userID, req.Bio)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Bio updated.", profile)
}
