// Package services holds the business rules behind the HTTP handlers:
// relationship transitions, visibility-scoped reads, ownership checks and
// the notification side effects of each operation.
package services

import (
	"context"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier receives interaction events.
type Notifier interface {
	Notify(ctx context.Context, typ models.NotificationType, sender, recipient primitive.ObjectID, message string) error
}

// notify emits an event without failing the operation that caused it. The
// primary mutation has already been stored at this point.
func notify(ctx context.Context, n Notifier, typ models.NotificationType, sender, recipient primitive.ObjectID, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, typ, sender, recipient, message); err != nil {
		log.Warnf("notify %s %s->%s: %v", typ, sender.Hex(), recipient.Hex(), err)
	}
}

func parseTier(s string) (models.Visibility, error) {
	v, ok := models.ParseVisibility(s)
	if !ok {
		return "", apperr.BadRequest("Invalid visibility. Use private, friends or public.")
	}
	return v, nil
}

// summaries loads users by ID and indexes their summaries. Unknown IDs map to
// a summary carrying only the ID.
func summaries(ctx context.Context, users repositories.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	found, err := users.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = found[i].ToSummary()
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.UserSummary{ID: id}
		}
	}
	return out, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// hexIDs parses stored hex references, skipping malformed ones.
func hexIDs(hexes []string) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		if id, err := primitive.ObjectIDFromHex(h); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
