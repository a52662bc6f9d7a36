package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/visibility"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	// UpsertActiveStory appends images to the user's active story, creating
	// it when none is active at now. created reports which case happened.
	UpsertActiveStory(ctx context.Context, userID primitive.ObjectID, images []models.Media, music string, tier models.Visibility, now time.Time) (story *models.Story, created bool, err error)
	GetStoryByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error)
	ListActiveStories(ctx context.Context, scope visibility.Scope, now time.Time) ([]models.Story, error)
	AddView(ctx context.Context, storyID, viewer primitive.ObjectID) (*models.Story, error)
	UpdateStory(ctx context.Context, story *models.Story) error
	DeleteStory(ctx context.Context, id primitive.ObjectID) error
}

type storyRepository struct {
	collection *mongo.Collection
	slots      *mongo.Collection
}

func NewStoryRepository(db *mongo.Database) StoryRepository {
	return &storyRepository{
		collection: db.Collection("stories"),
		slots:      db.Collection("story_slots"),
	}
}

// storySlot is keyed by user ID and names the user's active story.
type storySlot struct {
	UserID    primitive.ObjectID `bson:"_id"`
	StoryID   primitive.ObjectID `bson:"story_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// claimSlot returns the story ID that is active for userID at now. When the
// slot is empty or expired it is taken for a fresh ID. Concurrent claims
// collide on the slot's _id, so exactly one of them wins and the others read
// the winner's story ID.
func (r *storyRepository) claimSlot(ctx context.Context, userID primitive.ObjectID, now time.Time) (storySlot, error) {
	claim := storySlot{UserID: userID, StoryID: primitive.NewObjectID(), ExpiresAt: now.Add(models.StoryLifetime)}
	_, err := r.slots.UpdateOne(ctx,
		bson.M{"_id": userID, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"story_id": claim.StoryID, "expires_at": claim.ExpiresAt}},
		options.Update().SetUpsert(true),
	)
	if err == nil {
		return claim, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return storySlot{}, errors.Wrap(err, "claim story slot")
	}

	var held storySlot
	if err := r.slots.FindOne(ctx, bson.M{"_id": userID}).Decode(&held); err != nil {
		return storySlot{}, errors.Wrap(err, "read story slot")
	}
	return held, nil
}

func (r *storyRepository) UpsertActiveStory(ctx context.Context, userID primitive.ObjectID, images []models.Media, music string, tier models.Visibility, now time.Time) (*models.Story, bool, error) {
	slot, err := r.claimSlot(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}

	filter := bson.M{"_id": slot.StoryID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"visibility": tier,
			"expires_at": slot.ExpiresAt,
			"views":      []primitive.ObjectID{},
			"created_at": now,
		},
		"$push": bson.M{"images": bson.M{"$each": images}},
		"$set":  bson.M{"updated_at": now},
	}
	if music != "" {
		update["$set"].(bson.M)["music"] = music
	}

	opts := options.Update().SetUpsert(true)
	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// another request inserted the same story first
		res, err = r.collection.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "upsert story")
	}
	created := res.UpsertedID != nil

	var story models.Story
	if err := r.collection.FindOne(ctx, filter).Decode(&story); err != nil {
		return nil, false, errors.Wrap(err, "reload story")
	}
	return &story, created, nil
}

func (r *storyRepository) GetStoryByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error) {
	var story models.Story
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Story not found")
		}
		return nil, errors.Wrap(err, "find story")
	}
	return &story, nil
}

// ListActiveStories returns the stories scope admits that have not expired at now
func (r *storyRepository) ListActiveStories(ctx context.Context, scope visibility.Scope, now time.Time) ([]models.Story, error) {
	filter := bson.M{"$and": bson.A{
		scopeFilter(scope),
		bson.M{"expires_at": bson.M{"$gt": now}},
	}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "find stories")
	}
	defer cursor.Close(ctx)

	stories := []models.Story{}
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, errors.Wrap(err, "decode stories")
	}
	return stories, nil
}

// AddView records viewer once and returns the story after the update
func (r *storyRepository) AddView(ctx context.Context, storyID, viewer primitive.ObjectID) (*models.Story, error) {
	var story models.Story
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": storyID},
		bson.M{"$addToSet": bson.M{"views": viewer}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Story not found")
		}
		return nil, errors.Wrap(err, "add story view")
	}
	return &story, nil
}

func (r *storyRepository) UpdateStory(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": story.ID}, bson.M{
		"$set": bson.M{
			"images":     story.Images,
			"visibility": story.Visibility,
			"updated_at": story.UpdatedAt,
		},
	})
	if err != nil {
		return errors.Wrap(err, "update story")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Story not found")
	}
	return nil
}

// DeleteStory removes the story and frees its owner's slot.
func (r *storyRepository) DeleteStory(ctx context.Context, id primitive.ObjectID) error {
	var story models.Story
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apperr.NotFound("Story not found")
		}
		return errors.Wrap(err, "delete story")
	}
	_, err = r.slots.DeleteOne(ctx, bson.M{"_id": story.UserID, "story_id": id})
	return errors.Wrap(err, "release story slot")
}
