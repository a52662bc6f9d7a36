package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is the single thread between an unordered pair of users.
// Key is the sorted participant pair and carries a unique index.
type Conversation struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Key          string               `json:"-" bson:"key"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants"`
	LastMessage  string               `json:"last_message" bson:"last_message"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

// ConversationKey returns the same key for (a, b) and (b, a).
func ConversationKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// HasParticipant reports whether id takes part in the conversation.
func (c *Conversation) HasParticipant(id primitive.ObjectID) bool {
	return ContainsID(c.Participants, id)
}

// Message is one direct message inside a conversation.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	Sender         primitive.ObjectID `json:"sender" bson:"sender"`
	Recipient      primitive.ObjectID `json:"recipient" bson:"recipient"`
	Text           string             `json:"text" bson:"text"`
	IsSeen         bool               `json:"is_seen" bson:"is_seen"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// ConversationView is a conversation with participants populated.
type ConversationView struct {
	Conversation
	Participants []UserSummary `json:"participants"`
}

// MessageView is a message with sender and recipient populated.
type MessageView struct {
	Message
	Sender    UserSummary `json:"sender"`
	Recipient UserSummary `json:"recipient"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Text        string `json:"text" validate:"required,max=5000"`
}
