package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler handles direct messages and conversations
type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.PUT("/messages/:id/seen", h.MarkAsSeen)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		return respondError(apperr.BadRequest("Invalid recipient_id."))
	}
	msg, err := h.messages.SendMessage(c.Request().Context(), userID, recipientID, req.Text)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusCreated, "Message sent.", msg)
}

func (h *MessageHandler) GetConversations(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	conversations, err := h.messages.GetConversations(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", conversations)
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	conversationID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	messages, err := h.messages.GetMessages(c.Request().Context(), userID, conversationID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", messages)
}

// MarkAsSeen marks a received message as seen
func (h *MessageHandler) MarkAsSeen(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	messageID, err := paramObjectID(c, "id")
	if err != nil {
		return respondError(err)
	}
	msg, err := h.messages.MarkAsSeen(c.Request().Context(), userID, messageID)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "", msg)
}
