package visibility

import (
	"testing"
	"time"

	"github.com/anonto42/socials/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func users() (owner, friend, stranger *models.User) {
	owner = &models.User{ID: primitive.NewObjectID()}
	friend = &models.User{ID: primitive.NewObjectID()}
	stranger = &models.User{ID: primitive.NewObjectID()}
	owner.Friends = []primitive.ObjectID{friend.ID}
	friend.Friends = []primitive.ObjectID{owner.ID}
	return
}

func TestCanView(t *testing.T) {
	owner, friend, stranger := users()

	tests := []struct {
		name   string
		viewer *models.User
		tier   models.Visibility
		want   bool
	}{
		{"owner sees private", owner, models.VisibilityPrivate, true},
		{"friend blocked from private", friend, models.VisibilityPrivate, false},
		{"stranger blocked from private", stranger, models.VisibilityPrivate, false},
		{"owner sees friends", owner, models.VisibilityFriends, true},
		{"friend sees friends", friend, models.VisibilityFriends, true},
		{"stranger blocked from friends", stranger, models.VisibilityFriends, false},
		{"stranger sees public", stranger, models.VisibilityPublic, true},
		{"unknown tier is hidden", stranger, models.Visibility("Public"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.viewer.ID, owner, tt.tier))
		})
	}
}

func TestFriendshipTogglesVisibility(t *testing.T) {
	owner, _, stranger := users()
	assert.False(t, CanView(stranger.ID, owner, models.VisibilityFriends))

	owner.Friends = append(owner.Friends, stranger.ID)
	assert.True(t, CanView(stranger.ID, owner, models.VisibilityFriends))

	owner.Friends = owner.Friends[:1]
	assert.False(t, CanView(stranger.ID, owner, models.VisibilityFriends))
}

func TestFeedScope(t *testing.T) {
	owner, friend, stranger := users()

	asFriend := ForFeed(friend)
	assert.True(t, asFriend.Allows(owner.ID, models.VisibilityFriends))
	assert.False(t, asFriend.Allows(owner.ID, models.VisibilityPrivate))
	assert.True(t, asFriend.Allows(friend.ID, models.VisibilityPrivate))

	asStranger := ForFeed(stranger)
	assert.False(t, asStranger.Allows(owner.ID, models.VisibilityFriends))
	assert.True(t, asStranger.Allows(owner.ID, models.VisibilityPublic))
}

func TestOwnerScopeRejectsOtherOwners(t *testing.T) {
	owner, friend, _ := users()
	s := ForOwner(friend.ID, owner)

	assert.False(t, s.IsOwnerView())
	assert.False(t, s.Allows(friend.ID, models.VisibilityPublic))
	assert.True(t, ForOwner(owner.ID, owner).IsOwnerView())
}

func TestCanViewStoryHonoursExpiry(t *testing.T) {
	owner, friend, _ := users()
	now := time.Now()
	story := &models.Story{UserID: owner.ID, Visibility: models.VisibilityFriends, ExpiresAt: now.Add(time.Hour)}

	assert.True(t, CanViewStory(friend.ID, owner, story, now))
	assert.False(t, CanViewStory(friend.ID, owner, story, now.Add(2*time.Hour)))
}
