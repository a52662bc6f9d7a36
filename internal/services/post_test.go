package services

import (
	"testing"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func befriend(t *testing.T, e *env, a, b primitive.ObjectID) {
	t.Helper()
	require.NoError(t, e.relationships.SendFriendRequest(e.ctx, a, b))
	require.NoError(t, e.relationships.AcceptFriendRequest(e.ctx, b, a))
}

func postIDs(page *models.PostPage) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(page.Posts))
	for i, p := range page.Posts {
		ids[i] = p.ID
	}
	return ids
}

func TestFriendsPostFeedScenario(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.users.add("alice"), e.users.add("bob"), e.users.add("carol")
	befriend(t, e, a.ID, b.ID)

	post, err := e.postSvc.CreatePost(e.ctx, a.ID, "hello friends", "friends", pngs(1))
	require.NoError(t, err)

	for _, tc := range []struct {
		viewer primitive.ObjectID
		sees   bool
	}{
		{a.ID, true},
		{b.ID, true},
		{c.ID, false},
	} {
		page, err := e.postSvc.GetAllPosts(e.ctx, tc.viewer, Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, tc.sees, models.ContainsID(postIDs(page), post.ID), e.users.get(tc.viewer).Username)
	}
}

func TestPrivatePostOnlyVisibleToOwner(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	befriend(t, e, o.ID, v.ID)
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "diary", "private", pngs(1))
	require.NoError(t, err)

	other, err := e.postSvc.GetOtherUserPosts(e.ctx, v.ID, o.ID, Page{})
	require.NoError(t, err)
	assert.NotContains(t, postIDs(other), post.ID)
	assert.EqualValues(t, 0, other.Total)

	own, err := e.postSvc.GetOtherUserPosts(e.ctx, o.ID, o.ID, Page{})
	require.NoError(t, err)
	assert.Contains(t, postIDs(own), post.ID)

	_, err = e.postSvc.GetPost(e.ctx, v.ID, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestFriendshipToggleFlipsVisibility(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "friends only", "friends", pngs(1))
	require.NoError(t, err)
	visible := func() bool {
		page, err := e.postSvc.GetOtherUserPosts(e.ctx, v.ID, o.ID, Page{})
		require.NoError(t, err)
		return models.ContainsID(postIDs(page), post.ID)
	}

	assert.False(t, visible())
	befriend(t, e, v.ID, o.ID)
	assert.True(t, visible())
	require.NoError(t, e.relationships.Unfriend(e.ctx, o.ID, v.ID))
	assert.False(t, visible())
}

func TestFeedOrderIsStable(t *testing.T) {
	e := newEnv(t)
	a := e.users.add("alice")
	var created []primitive.ObjectID
	for i := 0; i < 3; i++ {
		p, err := e.postSvc.CreatePost(e.ctx, a.ID, "same instant", "public", pngs(1))
		require.NoError(t, err)
		created = append(created, p.ID)
	}
	e.posts.clock = e.posts.clock.Add(time.Minute)
	newest, err := e.postSvc.CreatePost(e.ctx, a.ID, "later", "public", pngs(1))
	require.NoError(t, err)

	first, err := e.postSvc.GetAllPosts(e.ctx, a.ID, Page{Limit: 10})
	require.NoError(t, err)
	second, err := e.postSvc.GetAllPosts(e.ctx, a.ID, Page{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, postIDs(first), postIDs(second))
	assert.Equal(t, newest.ID, first.Posts[0].ID)
	assert.EqualValues(t, 4, first.Total)

	paged, err := e.postSvc.GetAllPosts(e.ctx, a.ID, Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, postIDs(first)[2:], postIDs(paged))
	assert.EqualValues(t, 4, paged.Total)
}

func TestLikeToggle(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "like me", "public", pngs(1))
	require.NoError(t, err)

	res, err := e.postSvc.ToggleLike(e.ctx, v.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, LikesCount: 1}, res)

	res, err = e.postSvc.ToggleLike(e.ctx, v.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: false, LikesCount: 0}, res)

	assert.Len(t, e.notifications.of(models.NotificationPostLiked), 1, "unlike must not notify")
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	e := newEnv(t)
	o := e.users.add("owner")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "me", "public", pngs(1))
	require.NoError(t, err)

	res, err := e.postSvc.ToggleLike(e.ctx, o.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Empty(t, e.notifications.of(models.NotificationPostLiked))
}

func TestCreatePostValidation(t *testing.T) {
	e := newEnv(t)
	o := e.users.add("owner")

	_, err := e.postSvc.CreatePost(e.ctx, o.ID, "no images", "public", nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = e.postSvc.CreatePost(e.ctx, o.ID, "bad tier", "Public", pngs(1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = e.postSvc.CreatePost(e.ctx, o.ID, "  ", "public", pngs(1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = e.postSvc.CreatePost(e.ctx, o.ID, "too many", "public", pngs(11))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	assert.Zero(t, e.uploader.n)
}

func TestCreatePostUploadFailureStoresNothing(t *testing.T) {
	e := newEnv(t)
	o := e.users.add("owner")
	e.uploader.fail = true

	_, err := e.postSvc.CreatePost(e.ctx, o.ID, "hello", "public", pngs(3))

	require.Error(t, err)
	n, _ := e.posts.CountPostsByUser(e.ctx, o.ID)
	assert.Zero(t, n)
}

func TestUpdatePostReplacesImages(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "v1", "public", pngs(2))
	require.NoError(t, err)
	old := post.Images

	_, err = e.postSvc.UpdatePost(e.ctx, v.ID, post.ID, "hijack", "", nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = e.postSvc.UpdatePost(e.ctx, o.ID, post.ID, "v2", "friends", pngs(6))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "edits allow at most five images")

	updated, err := e.postSvc.UpdatePost(e.ctx, o.ID, post.ID, "v2", "friends", pngs(1))
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
	assert.Equal(t, models.VisibilityFriends, updated.Visibility)
	assert.Len(t, updated.Images, 1)
	assert.ElementsMatch(t, []string{old[0].ID, old[1].ID}, e.uploader.deleted)
}

func TestDeletePostCascadesComments(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "bye", "public", pngs(1))
	require.NoError(t, err)
	_, err = e.commentSvc.CreateComment(e.ctx, v.ID, post.ID, "nice", nil, nil)
	require.NoError(t, err)

	err = e.postSvc.DeletePost(e.ctx, v.ID, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, e.postSvc.DeletePost(e.ctx, o.ID, post.ID))
	_, err = e.posts.GetPostByID(e.ctx, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	left, _ := e.comments.GetCommentsByPostID(e.ctx, post.ID.Hex())
	assert.Empty(t, left)
	assert.Contains(t, e.uploader.deleted, post.Images[0].ID)
}

func TestDeletePostRetriesAfterCommentStoreFailure(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "bye", "public", pngs(1))
	require.NoError(t, err)
	img := pngs(1)[0]
	comment, err := e.commentSvc.CreateComment(e.ctx, v.ID, post.ID, "nice", nil, &img)
	require.NoError(t, err)

	e.comments.fail = faults{"DeleteCommentsByPostID": errors.New("postgres: connection reset")}
	require.Error(t, e.postSvc.DeletePost(e.ctx, o.ID, post.ID))

	_, err = e.posts.GetPostByID(e.ctx, post.ID)
	require.NoError(t, err, "post stays until its comments are gone")
	left, _ := e.comments.GetCommentsByPostID(e.ctx, post.ID.Hex())
	assert.Len(t, left, 1)
	assert.Empty(t, e.uploader.deleted)

	require.NoError(t, e.postSvc.DeletePost(e.ctx, o.ID, post.ID))

	_, err = e.posts.GetPostByID(e.ctx, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	left, _ = e.comments.GetCommentsByPostID(e.ctx, post.ID.Hex())
	assert.Empty(t, left)
	assert.ElementsMatch(t, []string{post.Images[0].ID, comment.ImageID}, e.uploader.deleted)
}

func TestDeletePostRetriesAfterPostStoreFailure(t *testing.T) {
	e := newEnv(t)
	o, v := e.users.add("owner"), e.users.add("viewer")
	post, err := e.postSvc.CreatePost(e.ctx, o.ID, "bye", "public", pngs(1))
	require.NoError(t, err)
	img := pngs(1)[0]
	comment, err := e.commentSvc.CreateComment(e.ctx, v.ID, post.ID, "nice", nil, &img)
	require.NoError(t, err)

	e.posts.fail = faults{"DeletePost": errors.New("mongo: server selection timeout")}
	require.Error(t, e.postSvc.DeletePost(e.ctx, o.ID, post.ID))
	assert.Equal(t, []string{comment.ImageID}, e.uploader.deleted, "removed comments release their images at once")

	require.NoError(t, e.postSvc.DeletePost(e.ctx, o.ID, post.ID))
	_, err = e.posts.GetPostByID(e.ctx, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.ElementsMatch(t, []string{post.Images[0].ID, comment.ImageID}, e.uploader.deleted)
}
