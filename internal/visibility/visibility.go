// Package visibility decides which posts and stories a viewer may read.
//
// A Scope captures everything needed for the decision so that the same rule
// is applied in memory (single items) and translated into store queries (feeds).
package visibility

import (
	"time"

	"github.com/anonto42/socials/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope is the set of content a viewer is allowed to read.
type Scope struct {
	Viewer primitive.ObjectID
	// FriendOwners are the owners whose friends-tier content the viewer sees.
	FriendOwners []primitive.ObjectID
	// Owner restricts the scope to a single owner when non-zero.
	Owner primitive.ObjectID
}

// ForFeed scopes across all owners: the viewer's own content, friends-tier
// content of the viewer's friends and public content of everyone.
func ForFeed(viewer *models.User) Scope {
	return Scope{Viewer: viewer.ID, FriendOwners: viewer.Friends}
}

// ForOwner scopes to one owner's content as seen by viewer.
func ForOwner(viewer primitive.ObjectID, owner *models.User) Scope {
	s := Scope{Viewer: viewer, Owner: owner.ID}
	if viewer != owner.ID && owner.Has(models.RelationFriends, viewer) {
		s.FriendOwners = []primitive.ObjectID{owner.ID}
	}
	return s
}

// IsOwnerView reports whether the scope is the owner looking at their own content.
func (s Scope) IsOwnerView() bool {
	return !s.Owner.IsZero() && s.Owner == s.Viewer
}

// Allows applies the tier rule to one item.
func (s Scope) Allows(owner primitive.ObjectID, tier models.Visibility) bool {
	if !s.Owner.IsZero() && owner != s.Owner {
		return false
	}
	if owner == s.Viewer {
		return true
	}
	switch tier {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFriends:
		return models.ContainsID(s.FriendOwners, owner)
	default:
		return false
	}
}

// CanView reports whether viewer may read an item of owner with the given tier.
func CanView(viewer primitive.ObjectID, owner *models.User, tier models.Visibility) bool {
	return ForOwner(viewer, owner).Allows(owner.ID, tier)
}

// CanViewStory adds the expiry predicate to CanView.
func CanViewStory(viewer primitive.ObjectID, owner *models.User, story *models.Story, now time.Time) bool {
	return story.Active(now) && CanView(viewer, owner, story.Visibility)
}
