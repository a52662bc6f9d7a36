package services

import (
	"testing"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySuppressesSelf(t *testing.T) {
	e := newEnv(t)
	a := e.users.add("alice")

	require.NoError(t, e.notifier.Notify(e.ctx, models.NotificationPostLiked, a.ID, a.ID, "self"))

	assert.Empty(t, e.notifications.rows)
}

func TestNotificationListAndReadFlags(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.users.add("alice"), e.users.add("bob"), e.users.add("carol")
	require.NoError(t, e.notifier.Notify(e.ctx, models.NotificationFriendRequest, b.ID, a.ID, "one"))
	require.NoError(t, e.notifier.Notify(e.ctx, models.NotificationMessage, c.ID, a.ID, "two"))

	page, err := e.notifier.List(e.ctx, a.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "two", page.Notifications[0].Message)
	assert.Equal(t, "carol", page.Notifications[0].Sender.Username)
	assert.Equal(t, "bob", page.Notifications[1].Sender.Username)

	unread, err := e.notifier.UnreadCount(e.ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	err = e.notifier.MarkAsRead(e.ctx, b.ID, page.Notifications[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "only the recipient can mark it read")

	require.NoError(t, e.notifier.MarkAsRead(e.ctx, a.ID, page.Notifications[0].ID))
	unread, _ = e.notifier.UnreadCount(e.ctx, a.ID)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, e.notifier.MarkAllAsRead(e.ctx, a.ID))
	unread, _ = e.notifier.UnreadCount(e.ctx, a.ID)
	assert.Zero(t, unread)
}
