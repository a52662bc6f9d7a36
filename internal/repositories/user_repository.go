package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	AddToRelation(ctx context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error
	RemoveFromRelation(ctx context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error
	SearchUsers(ctx context.Context, keyword string, limit int64) ([]models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a new user. A duplicate email is reported as a conflict.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []primitive.ObjectID{}
	}
	if user.SentFriendRequests == nil {
		user.SentFriendRequests = []primitive.ObjectID{}
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("Email already exists")
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByVerificationToken retrieves the unverified user holding token
func (r *MongoUserRepository) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.NotFound("User not found.")
	}
	return r.findOne(ctx, bson.M{"verification_token": token})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("User not found.")
		}
		return nil, errors.Wrap(err, "find user")
	}
	return &user, nil
}

// GetUsersByIDs retrieves every user whose ID is in ids. Missing IDs are skipped.
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// UpdateUser writes the profile and credential fields of user. Relationship
// lists are never written here; they change only through AddToRelation and
// RemoveFromRelation so concurrent friend operations are not overwritten.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":           user.Username,
			"email":              user.Email,
			"password":           user.Password,
			"profile_picture":    user.ProfilePicture,
			"cover_photo":        user.CoverPhoto,
			"bio":                user.Bio,
			"date_of_birth":      user.DateOfBirth,
			"gender":             user.Gender,
			"is_verified":        user.IsVerified,
			"verification_token": user.VerificationToken,
			"refresh_token":      user.RefreshToken,
			"updated_at":         user.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("Email already exists")
		}
		return errors.Wrap(err, "update user")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

// AddToRelation inserts other into one relationship list of userID.
// Re-running it is a no-op.
func (r *MongoUserRepository) AddToRelation(ctx context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error {
	return r.updateRelation(ctx, userID, bson.M{"$addToSet": bson.M{string(list): other}})
}

// RemoveFromRelation removes other from one relationship list of userID.
// Re-running it is a no-op.
func (r *MongoUserRepository) RemoveFromRelation(ctx context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error {
	return r.updateRelation(ctx, userID, bson.M{"$pull": bson.M{string(list): other}})
}

func (r *MongoUserRepository) updateRelation(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return errors.Wrap(err, "update relation")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

// SearchUsers searches for users by username or email (case-insensitive substring)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, keyword string, limit int64) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"email": pattern},
	}}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}
