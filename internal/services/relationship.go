package services

import (
	"context"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/metrics"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationshipService moves pairs of users between the stranger, pending and
// friend states.
//
// Each transition touches two user documents without a transaction. Every
// step is a set insert or removal, so re-running a transition after a partial
// failure is safe, and the list that decides whether the transition applies
// (the recipient's incoming requests) is always written last. A failed
// attempt therefore leaves the pair in a state where the same call runs again.
type RelationshipService struct {
	users    repositories.UserRepository
	notifier Notifier
}

func NewRelationshipService(users repositories.UserRepository, notifier Notifier) *RelationshipService {
	return &RelationshipService{users: users, notifier: notifier}
}

func (s *RelationshipService) pair(ctx context.Context, a, b primitive.ObjectID) (*models.User, *models.User, error) {
	ua, err := s.users.GetUserByID(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	ub, err := s.users.GetUserByID(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return ua, ub, nil
}

// SendFriendRequest records a pending request from sender to target.
func (s *RelationshipService) SendFriendRequest(ctx context.Context, senderID, targetID primitive.ObjectID) error {
	if senderID == targetID {
		return apperr.BadRequest("You cannot send a friend request to yourself.")
	}
	sender, target, err := s.pair(ctx, senderID, targetID)
	if err != nil {
		return err
	}
	if sender.Has(models.RelationFriends, targetID) || target.Has(models.RelationFriends, senderID) {
		return apperr.Conflict("You are already friends with this user.")
	}
	if target.Has(models.RelationFriendRequests, senderID) || sender.Has(models.RelationFriendRequests, targetID) {
		return apperr.Conflict("A friend request already exists between you and this user.")
	}

	if err := s.users.AddToRelation(ctx, senderID, models.RelationSentFriendRequests, targetID); err != nil {
		return err
	}
	if err := s.users.AddToRelation(ctx, targetID, models.RelationFriendRequests, senderID); err != nil {
		return err
	}
	metrics.RelationshipTransitions.WithLabelValues("send").Inc()

	notify(ctx, s.notifier, models.NotificationFriendRequest, senderID, targetID,
		sender.Username+" sent you a friend request.")
	return nil
}

// AcceptFriendRequest turns requester's pending request to accepter into a friendship.
func (s *RelationshipService) AcceptFriendRequest(ctx context.Context, accepterID, requesterID primitive.ObjectID) error {
	accepter, err := s.users.GetUserByID(ctx, accepterID)
	if err != nil {
		return err
	}
	if !accepter.Has(models.RelationFriendRequests, requesterID) {
		return apperr.NotFound("Friend request not found.")
	}
	if _, err := s.users.GetUserByID(ctx, requesterID); err != nil {
		return err
	}

	steps := []struct {
		add   bool
		user  primitive.ObjectID
		list  models.RelationList
		other primitive.ObjectID
	}{
		{true, accepterID, models.RelationFriends, requesterID},
		{true, requesterID, models.RelationFriends, accepterID},
		{false, requesterID, models.RelationSentFriendRequests, accepterID},
		{false, accepterID, models.RelationFriendRequests, requesterID},
	}
	for _, st := range steps {
		if st.add {
			err = s.users.AddToRelation(ctx, st.user, st.list, st.other)
		} else {
			err = s.users.RemoveFromRelation(ctx, st.user, st.list, st.other)
		}
		if err != nil {
			return err
		}
	}
	metrics.RelationshipTransitions.WithLabelValues("accept").Inc()

	notify(ctx, s.notifier, models.NotificationFriendAccepted, accepterID, requesterID,
		accepter.Username+" accepted your friend request.")
	return nil
}

// RejectFriendRequest drops requester's pending request to rejecter.
func (s *RelationshipService) RejectFriendRequest(ctx context.Context, rejecterID, requesterID primitive.ObjectID) error {
	rejecter, err := s.users.GetUserByID(ctx, rejecterID)
	if err != nil {
		return err
	}
	if !rejecter.Has(models.RelationFriendRequests, requesterID) {
		return apperr.NotFound("Friend request not found.")
	}

	if err := s.users.RemoveFromRelation(ctx, requesterID, models.RelationSentFriendRequests, rejecterID); err != nil {
		return err
	}
	if err := s.users.RemoveFromRelation(ctx, rejecterID, models.RelationFriendRequests, requesterID); err != nil {
		return err
	}
	metrics.RelationshipTransitions.WithLabelValues("reject").Inc()

	notify(ctx, s.notifier, models.NotificationFriendRejected, rejecterID, requesterID,
		rejecter.Username+" rejected your friend request.")
	return nil
}

// Unfriend removes the friendship between a and b.
func (s *RelationshipService) Unfriend(ctx context.Context, aID, bID primitive.ObjectID) error {
	if aID == bID {
		return apperr.BadRequest("You are not friends with this user.")
	}
	a, b, err := s.pair(ctx, aID, bID)
	if err != nil {
		return err
	}
	// Either side still listing the other means a previous attempt may have
	// stopped halfway; finishing it is what the caller wants.
	if !a.Has(models.RelationFriends, bID) && !b.Has(models.RelationFriends, aID) {
		return apperr.BadRequest("You are not friends with this user.")
	}

	if err := s.users.RemoveFromRelation(ctx, aID, models.RelationFriends, bID); err != nil {
		return err
	}
	if err := s.users.RemoveFromRelation(ctx, bID, models.RelationFriends, aID); err != nil {
		return err
	}
	metrics.RelationshipTransitions.WithLabelValues("unfriend").Inc()
	return nil
}

// Friends returns the populated friend list of a user.
func (s *RelationshipService) Friends(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, u.Friends)
}

// IncomingRequests returns the users who sent a pending request to userID.
func (s *RelationshipService) IncomingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, u.FriendRequests)
}

func (s *RelationshipService) populate(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = users[i].ToSummary()
	}
	return out, nil
}
