package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService handles direct messages between pairs of users.
type MessageService struct {
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
	notifier      Notifier
}

func NewMessageService(conversations repositories.ConversationRepository, users repositories.UserRepository, notifier Notifier) *MessageService {
	return &MessageService{conversations: conversations, users: users, notifier: notifier}
}

// SendMessage appends a message to the pair's conversation, creating the
// conversation on the first message in either direction.
func (s *MessageService) SendMessage(ctx context.Context, senderID, recipientID primitive.ObjectID, text string) (*models.Message, error) {
	if blank(text) {
		return nil, apperr.BadRequest("Message text is required.")
	}
	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, recipientID); err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	msg := &models.Message{
		ConversationID: conv.ID,
		Sender:         senderID,
		Recipient:      recipientID,
		Text:           strings.TrimSpace(text),
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg.Text, msg.CreatedAt); err != nil {
		log.Warnf("message %s stored but conversation %s not updated: %v", msg.ID.Hex(), conv.ID.Hex(), err)
	}

	if senderID != recipientID {
		notify(ctx, s.notifier, models.NotificationMessage, senderID, recipientID,
			sender.Username+" sent you a message.")
	}
	return msg, nil
}

// GetMessages lists a conversation newest first. Only participants may read it.
func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID primitive.ObjectID) ([]models.MessageView, error) {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.Forbidden("You are not a participant of this conversation.")
	}
	msgs, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	people, err := summaries(ctx, s.users, conv.Participants)
	if err != nil {
		return nil, err
	}
	out := make([]models.MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = models.MessageView{Message: m, Sender: people[m.Sender], Recipient: people[m.Recipient]}
	}
	return out, nil
}

// MarkAsSeen flags a message as seen. Only its recipient may do so.
func (s *MessageService) MarkAsSeen(ctx context.Context, userID, messageID primitive.ObjectID) (*models.Message, error) {
	msg, err := s.conversations.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Recipient != userID {
		return nil, apperr.Forbidden("Only the recipient can mark this message as seen.")
	}
	if !msg.IsSeen {
		if err := s.conversations.MarkMessageSeen(ctx, messageID); err != nil {
			return nil, err
		}
		msg.IsSeen = true
	}
	return msg, nil
}

// GetConversations lists the user's conversations, most recently active first.
func (s *MessageService) GetConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationView, error) {
	convs, err := s.conversations.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []primitive.ObjectID
	for _, c := range convs {
		ids = append(ids, c.Participants...)
	}
	people, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationView, len(convs))
	for i, c := range convs {
		view := models.ConversationView{Conversation: c, Participants: make([]models.UserSummary, len(c.Participants))}
		for j, p := range c.Participants {
			view.Participants[j] = people[p]
		}
		out[i] = view
	}
	return out, nil
}
