package repositories

import (
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/visibility"
	"go.mongodb.org/mongo-driver/bson"
)

// newestFirst orders by creation time with _id as tie-breaker so paging is stable.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// scopeFilter translates a visibility scope into a query on user_id and visibility.
func scopeFilter(s visibility.Scope) bson.M {
	if !s.Owner.IsZero() {
		if s.IsOwnerView() {
			return bson.M{"user_id": s.Owner}
		}
		tiers := bson.A{models.VisibilityPublic}
		if models.ContainsID(s.FriendOwners, s.Owner) {
			tiers = append(tiers, models.VisibilityFriends)
		}
		return bson.M{"user_id": s.Owner, "visibility": bson.M{"$in": tiers}}
	}

	clauses := bson.A{
		bson.M{"user_id": s.Viewer},
		bson.M{"visibility": models.VisibilityPublic},
	}
	if len(s.FriendOwners) > 0 {
		clauses = append(clauses, bson.M{
			"visibility": models.VisibilityFriends,
			"user_id":    bson.M{"$in": s.FriendOwners},
		})
	}
	return bson.M{"$or": clauses}
}
