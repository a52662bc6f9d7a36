package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository stores conversations and their messages
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	ListConversations(ctx context.Context, participant primitive.ObjectID) ([]models.Conversation, error)
	SetLastMessage(ctx context.Context, id primitive.ObjectID, text string, at time.Time) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error)
	MarkMessageSeen(ctx context.Context, id primitive.ObjectID) error
}

type conversationRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// GetOrCreateConversation returns the single conversation for the pair,
// creating it atomically. The unique index on key guarantees one document
// per pair; a losing concurrent insert is retried as a plain lookup.
func (r *conversationRepository) GetOrCreateConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	key := models.ConversationKey(a, b)
	participants := []primitive.ObjectID{a}
	if a != b {
		participants = append(participants, b)
	}
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"key":          key,
		"participants": participants,
		"last_message": "",
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	err := r.conversations.FindOneAndUpdate(ctx, bson.M{"key": key}, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		err = r.conversations.FindOne(ctx, bson.M{"key": key}).Decode(&conv)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get or create conversation")
	}
	return &conv, nil
}

func (r *conversationRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Conversation not found")
		}
		return nil, errors.Wrap(err, "find conversation")
	}
	return &conv, nil
}

// ListConversations returns the participant's conversations, most recently active first
func (r *conversationRepository) ListConversations(ctx context.Context, participant primitive.ObjectID) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"participants": participant}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find conversations")
	}
	defer cursor.Close(ctx)

	convs := []models.Conversation{}
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, errors.Wrap(err, "decode conversations")
	}
	return convs, nil
}

// SetLastMessage records text as the latest message unless a message sent
// after at is already recorded.
func (r *conversationRepository) SetLastMessage(ctx context.Context, id primitive.ObjectID, text string, at time.Time) error {
	filter := bson.M{"_id": id, "updated_at": bson.M{"$lte": at}}
	_, err := r.conversations.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"last_message": text, "updated_at": at},
	})
	return errors.Wrap(err, "set last message")
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := r.messages.InsertOne(ctx, msg)
	return errors.Wrap(err, "insert message")
}

func (r *conversationRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	err := r.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Message not found")
		}
		return nil, errors.Wrap(err, "find message")
	}
	return &msg, nil
}

// ListMessages returns a conversation's messages newest first
func (r *conversationRepository) ListMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	cursor, err := r.messages.Find(ctx, bson.M{"conversation_id": conversationID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return msgs, nil
}

func (r *conversationRepository) MarkMessageSeen(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.messages.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_seen": true}})
	if err != nil {
		return errors.Wrap(err, "mark message seen")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Message not found")
	}
	return nil
}
