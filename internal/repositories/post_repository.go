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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListPosts(ctx context.Context, scope visibility.Scope, skip, limit int64) ([]models.Post, int64, error)
	CountPostsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (liked bool, likes int, err error)
	AddComment(ctx context.Context, postID primitive.ObjectID, commentID uint) error
	RemoveComments(ctx context.Context, postID primitive.ObjectID, commentIDs []uint) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []uint{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return errors.Wrap(err, "insert post")
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Post not found")
		}
		return nil, errors.Wrap(err, "find post")
	}
	return &post, nil
}

// ListPosts returns one page of the posts scope admits, newest first, and the
// total number of posts it admits.
func (r *MongoPostRepository) ListPosts(ctx context.Context, scope visibility.Scope, skip, limit int64) ([]models.Post, int64, error) {
	filter := scopeFilter(scope)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count posts")
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(newestFirst)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, errors.Wrap(err, "find posts")
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, errors.Wrap(err, "decode posts")
	}
	return posts, total, nil
}

// CountPostsByUser counts every post of a user regardless of visibility
func (r *MongoPostRepository) CountPostsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	return n, errors.Wrap(err, "count user posts")
}

// UpdatePost writes content, images and visibility of post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"content":    post.Content,
			"images":     post.Images,
			"visibility": post.Visibility,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return errors.Wrap(err, "update post")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Post not found")
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Post not found")
	}
	return nil
}

// ToggleLike adds userID to the post's likes if absent, otherwise removes it.
// Each branch is a single conditional update so concurrent toggles never
// leave a duplicate entry.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, int, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}},
		after,
	).Decode(&post)
	if err == nil {
		return true, len(post.Likes), nil
	}
	if err != mongo.ErrNoDocuments {
		return false, 0, errors.Wrap(err, "like post")
	}

	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}},
		after,
	).Decode(&post)
	if err == nil {
		return false, len(post.Likes), nil
	}
	if err == mongo.ErrNoDocuments {
		return false, 0, apperr.NotFound("Post not found")
	}
	return false, 0, errors.Wrap(err, "unlike post")
}

// AddComment records a top-level comment on the post
func (r *MongoPostRepository) AddComment(ctx context.Context, postID primitive.ObjectID, commentID uint) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$addToSet": bson.M{"comments": commentID}})
	return errors.Wrap(err, "add post comment")
}

// RemoveComments drops comment IDs from the post
func (r *MongoPostRepository) RemoveComments(ctx context.Context, postID primitive.ObjectID, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$pull": bson.M{"comments": bson.M{"$in": commentIDs}}})
	return errors.Wrap(err, "remove post comments")
}
