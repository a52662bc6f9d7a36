package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account document. The three relationship lists hold user IDs.
type User struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username           string               `json:"username" bson:"username"`
	Email              string               `json:"email" bson:"email"`
	Password           string               `json:"-" bson:"password"`
	ProfilePicture     Media                `json:"-" bson:"profile_picture"`
	CoverPhoto         Media                `json:"-" bson:"cover_photo"`
	Bio                string               `json:"bio" bson:"bio"`
	DateOfBirth        *time.Time           `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender             string               `json:"gender" bson:"gender"`
	Friends            []primitive.ObjectID `json:"friends" bson:"friends"`
	FriendRequests     []primitive.ObjectID `json:"friend_requests" bson:"friend_requests"`
	SentFriendRequests []primitive.ObjectID `json:"sent_friend_requests" bson:"sent_friend_requests"`
	IsVerified         bool                 `json:"is_verified" bson:"is_verified"`
	VerificationToken  string               `json:"-" bson:"verification_token,omitempty"`
	RefreshToken       string               `json:"-" bson:"refresh_token,omitempty"`
	CreatedAt          time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" bson:"updated_at"`
}

// RelationList names one of the relationship arrays on a user document.
type RelationList string

const (
	RelationFriends            RelationList = "friends"
	RelationFriendRequests     RelationList = "friend_requests"
	RelationSentFriendRequests RelationList = "sent_friend_requests"
)

// Has reports whether id is in list on u.
func (u *User) Has(list RelationList, id primitive.ObjectID) bool {
	var ids []primitive.ObjectID
	switch list {
	case RelationFriends:
		ids = u.Friends
	case RelationFriendRequests:
		ids = u.FriendRequests
	case RelationSentFriendRequests:
		ids = u.SentFriendRequests
	}
	return ContainsID(ids, id)
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	ProfilePicture string             `json:"profile_picture"`
	Bio            string             `json:"bio,omitempty"`
}

func (u *User) ToSummary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture.URL,
		Bio:            u.Bio,
	}
}

// Profile is the public view of a user returned by profile endpoints.
type Profile struct {
	*User
	ProfilePicture string `json:"profile_picture"`
	CoverPhoto     string `json:"cover_photo"`
	TotalPosts     int64  `json:"total_posts"`
	TotalFriends   int    `json:"total_friends"`
	IsCurrentUser  bool   `json:"is_current_user"`
}

type RegisterRequest struct {
	Username    string     `json:"username" validate:"required,min=2,max=50"`
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=8"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UpdateBioRequest struct {
	Bio string `json:"bio" validate:"max=500"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
