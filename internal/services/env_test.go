package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/anonto42/socials/backend/internal/media"
)

type env struct {
	ctx           context.Context
	users         *fakeUsers
	posts         *fakePosts
	comments      *fakeComments
	stories       *fakeStories
	conversations *fakeConversations
	notifications *fakeNotifications
	uploader      *fakeUploader
	mailer        *fakeMailer

	notifier      *NotificationService
	relationships *RelationshipService
	postSvc       *PostService
	commentSvc    *CommentService
	storySvc      *StoryService
	messageSvc    *MessageService
	accountSvc    *AccountService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		ctx:           context.Background(),
		users:         newFakeUsers(),
		posts:         newFakePosts(),
		comments:      &fakeComments{},
		stories:       newFakeStories(),
		conversations: newFakeConversations(),
		notifications: &fakeNotifications{},
		uploader:      &fakeUploader{},
		mailer:        newFakeMailer(),
	}
	e.notifier = NewNotificationService(e.notifications, e.users)
	e.relationships = NewRelationshipService(e.users, e.notifier)
	e.postSvc = NewPostService(e.posts, e.users, e.comments, e.uploader, e.notifier)
	e.commentSvc = NewCommentService(e.comments, e.postSvc, e.posts, e.users, e.uploader, e.notifier)
	e.storySvc = NewStoryService(e.stories, e.users, e.uploader)
	e.messageSvc = NewMessageService(e.conversations, e.users, e.notifier)
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	e.accountSvc = NewAccountService(e.users, e.posts, tokens, e.mailer, e.uploader, "http://localhost:3000/")
	return e
}

func pngs(n int) []media.File {
	files := make([]media.File, n)
	for i := range files {
		files[i] = media.File{Name: "photo.png", Data: []byte("png bytes"), ContentType: "image/png"}
	}
	return files
}
