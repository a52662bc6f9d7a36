package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	relationships *services.RelationshipService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(relationships *services.RelationshipService) *FriendshipHandler {
	return &FriendshipHandler{relationships: relationships}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request/:id", h.SendFriendRequest)
	g.POST("/friends/accept/:id", h.AcceptFriendRequest)
	g.POST("/friends/reject/:id", h.RejectFriendRequest)
	g.DELETE("/friends/:id", h.Unfriend)
	g.GET("/friends/requests", h.GetFriendRequests)
	g.GET("/friends", h.GetMyFriends)
	g.GET("/users/:id/friends", h.GetUserFriends)
}

// transition runs one relationship operation between the current user and :id
func (h *FriendshipHandler) transition(c echo.Context, op func(context.Context, primitive.ObjectID, primitive.ObjectID) error, message string) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	other, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	if err := op(c.Request().Context(), userID, other); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, message, nil)
}

// SendFriendRequest sends a friend request to :id
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	return h.transition(c, h.relationships.SendFriendRequest, "Friend request sent.")
}

// AcceptFriendRequest accepts the pending request from :id
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	return h.transition(c, h.relationships.AcceptFriendRequest, "Friend request accepted.")
}

// RejectFriendRequest rejects the pending request from :id
func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	return h.transition(c, h.relationships.RejectFriendRequest, "Friend request rejected.")
}

// Unfriend removes :id from the current user's friends
func (h *FriendshipHandler) Unfriend(c echo.Context) error {
	return h.transition(c, h.relationships.Unfriend, "Friend removed.")
}

// GetFriendRequests lists incoming friend requests
func (h *FriendshipHandler) GetFriendRequests(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	requests, err := h.relationships.IncomingRequests(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", requests)
}

// GetMyFriends lists the current user's friends
func (h *FriendshipHandler) GetMyFriends(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	return h.friends(c, userID)
}

// GetUserFriends lists the friends of :id
func (h *FriendshipHandler) GetUserFriends(c echo.Context) error {
	userID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	return h.friends(c, userID)
}

func (h *FriendshipHandler) friends(c echo.Context, userID primitive.ObjectID) error {
	friends, err := h.relationships.Friends(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", friends)
}
