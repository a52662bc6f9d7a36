package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/visibility"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// faults makes named fake operations fail once each.
type faults map[string]error

func (f faults) take(op string) error {
	err := f[op]
	delete(f, op)
	return err
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, ids...)
}

// fakeUsers is an in-memory UserRepository. failOn lets a test make one
// relation write fail to simulate a half-applied transition.
type fakeUsers struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.User
	failOn func(user primitive.ObjectID, list models.RelationList, add bool) error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) add(name string) *models.User {
	u := &models.User{ID: primitive.NewObjectID(), Username: name, Email: name + "@example.com", IsVerified: true}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) copyOf(u *models.User) *models.User {
	c := *u
	c.Friends = cloneIDs(u.Friends)
	c.FriendRequests = cloneIDs(u.FriendRequests)
	c.SentFriendRequests = cloneIDs(u.SentFriendRequests)
	return &c
}

func (f *fakeUsers) get(id primitive.ObjectID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyOf(f.byID[id])
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return apperr.Conflict("Email already exists")
		}
	}
	user.ID = primitive.NewObjectID()
	f.byID[user.ID] = f.copyOf(user)
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	return f.copyOf(u), nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			return f.copyOf(u), nil
		}
	}
	return nil, apperr.NotFound("User not found.")
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetUserByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return token != "" && u.VerificationToken == token })
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, *f.copyOf(u))
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[user.ID]
	if !ok {
		return apperr.NotFound("User not found.")
	}
	next := f.copyOf(user)
	next.Friends, next.FriendRequests, next.SentFriendRequests = stored.Friends, stored.FriendRequests, stored.SentFriendRequests
	f.byID[user.ID] = next
	return nil
}

func (f *fakeUsers) relation(u *models.User, list models.RelationList) *[]primitive.ObjectID {
	switch list {
	case models.RelationFriends:
		return &u.Friends
	case models.RelationFriendRequests:
		return &u.FriendRequests
	default:
		return &u.SentFriendRequests
	}
}

func (f *fakeUsers) AddToRelation(_ context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		if err := f.failOn(userID, list, true); err != nil {
			return err
		}
	}
	u, ok := f.byID[userID]
	if !ok {
		return apperr.NotFound("User not found.")
	}
	ids := f.relation(u, list)
	if !models.ContainsID(*ids, other) {
		*ids = append(*ids, other)
	}
	return nil
}

func (f *fakeUsers) RemoveFromRelation(_ context.Context, userID primitive.ObjectID, list models.RelationList, other primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		if err := f.failOn(userID, list, false); err != nil {
			return err
		}
	}
	u, ok := f.byID[userID]
	if !ok {
		return apperr.NotFound("User not found.")
	}
	ids := f.relation(u, list)
	kept := (*ids)[:0:0]
	for _, id := range *ids {
		if id != other {
			kept = append(kept, id)
		}
	}
	*ids = kept
	return nil
}

func (f *fakeUsers) SearchUsers(_ context.Context, keyword string, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := strings.ToLower(keyword)
	out := []models.User{}
	for _, u := range f.byID {
		if strings.Contains(strings.ToLower(u.Username), k) || strings.Contains(strings.ToLower(u.Email), k) {
			out = append(out, *f.copyOf(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakePosts is an in-memory PostRepository. Creation times come from a
// settable clock so tests control ordering.
type fakePosts struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.Post
	clock time.Time
	fail  faults
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: map[primitive.ObjectID]*models.Post{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakePosts) CreatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = f.clock
	post.UpdatedAt = f.clock
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	c := *post
	f.byID[post.ID] = &c
	return nil
}

func (f *fakePosts) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("Post not found")
	}
	c := *p
	c.Likes = cloneIDs(p.Likes)
	c.Comments = append([]uint{}, p.Comments...)
	return &c, nil
}

func (f *fakePosts) ListPosts(_ context.Context, scope visibility.Scope, skip, limit int64) ([]models.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Post
	for _, p := range f.byID {
		if scope.Allows(p.UserID, p.Visibility) {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	total := int64(len(all))
	if skip >= total {
		return []models.Post{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (f *fakePosts) CountPostsByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byID {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakePosts) UpdatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[post.ID]
	if !ok {
		return apperr.NotFound("Post not found")
	}
	p.Content, p.Images, p.Visibility = post.Content, post.Images, post.Visibility
	return nil
}

func (f *fakePosts) DeletePost(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("DeletePost"); err != nil {
		return err
	}
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("Post not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePosts) ToggleLike(_ context.Context, postID, userID primitive.ObjectID) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[postID]
	if !ok {
		return false, 0, apperr.NotFound("Post not found")
	}
	if models.ContainsID(p.Likes, userID) {
		kept := []primitive.ObjectID{}
		for _, id := range p.Likes {
			if id != userID {
				kept = append(kept, id)
			}
		}
		p.Likes = kept
		return false, len(p.Likes), nil
	}
	p.Likes = append(p.Likes, userID)
	return true, len(p.Likes), nil
}

func (f *fakePosts) AddComment(_ context.Context, postID primitive.ObjectID, commentID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("AddComment"); err != nil {
		return err
	}
	if p, ok := f.byID[postID]; ok {
		p.Comments = append(p.Comments, commentID)
	}
	return nil
}

func (f *fakePosts) RemoveComments(_ context.Context, postID primitive.ObjectID, ids []uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("RemoveComments"); err != nil {
		return err
	}
	p, ok := f.byID[postID]
	if !ok {
		return nil
	}
	drop := map[uint]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := []uint{}
	for _, id := range p.Comments {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	p.Comments = kept
	return nil
}

type fakeComments struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Comment
	fail   faults
}

func (f *fakeComments) CreateComment(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Date(2024, 1, 1, 0, 0, int(f.nextID), 0, time.UTC)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeComments) GetCommentByID(_ context.Context, id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, apperr.NotFound("Comment not found")
}

func (f *fakeComments) GetCommentsByPostID(_ context.Context, postID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Comment{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].PostID == postID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeComments) GetChildren(_ context.Context, parentIDs []uint) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[uint]bool{}
	for _, id := range parentIDs {
		want[id] = true
	}
	out := []models.Comment{}
	for _, c := range f.rows {
		if c.ParentID != nil && want[*c.ParentID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) DeleteComments(_ context.Context, ids []uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("DeleteComments"); err != nil {
		return err
	}
	drop := map[uint]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.rows[:0:0]
	for _, c := range f.rows {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeComments) DeleteCommentsByPostID(_ context.Context, postID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("DeleteCommentsByPostID"); err != nil {
		return nil, err
	}
	var removed []models.Comment
	kept := f.rows[:0:0]
	for _, c := range f.rows {
		if c.PostID == postID {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	f.rows = kept
	return removed, nil
}

type fakeStories struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Story
}

func newFakeStories() *fakeStories {
	return &fakeStories{byID: map[primitive.ObjectID]*models.Story{}}
}

func (f *fakeStories) copyOf(s *models.Story) *models.Story {
	c := *s
	c.Images = append([]models.Media{}, s.Images...)
	c.Views = cloneIDs(s.Views)
	return &c
}

func (f *fakeStories) UpsertActiveStory(_ context.Context, userID primitive.ObjectID, images []models.Media, music string, tier models.Visibility, now time.Time) (*models.Story, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.UserID == userID && s.Active(now) {
			s.Images = append(s.Images, images...)
			if music != "" {
				s.Music = music
			}
			return f.copyOf(s), false, nil
		}
	}
	s := &models.Story{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		Images:     append([]models.Media{}, images...),
		Music:      music,
		Visibility: tier,
		ExpiresAt:  now.Add(models.StoryLifetime),
		Views:      []primitive.ObjectID{},
		CreatedAt:  now,
	}
	f.byID[s.ID] = s
	return f.copyOf(s), true, nil
}

func (f *fakeStories) GetStoryByID(_ context.Context, id primitive.ObjectID) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("Story not found")
	}
	return f.copyOf(s), nil
}

func (f *fakeStories) ListActiveStories(_ context.Context, scope visibility.Scope, now time.Time) ([]models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Story{}
	for _, s := range f.byID {
		if s.Active(now) && scope.Allows(s.UserID, s.Visibility) {
			out = append(out, *f.copyOf(s))
		}
	}
	return out, nil
}

func (f *fakeStories) AddView(_ context.Context, storyID, viewer primitive.ObjectID) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[storyID]
	if !ok {
		return nil, apperr.NotFound("Story not found")
	}
	if !models.ContainsID(s.Views, viewer) {
		s.Views = append(s.Views, viewer)
	}
	return f.copyOf(s), nil
}

func (f *fakeStories) UpdateStory(_ context.Context, story *models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[story.ID]
	if !ok {
		return apperr.NotFound("Story not found")
	}
	s.Images, s.Visibility = append([]models.Media{}, story.Images...), story.Visibility
	return nil
}

func (f *fakeStories) DeleteStory(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("Story not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeConversations struct {
	mu       sync.Mutex
	convs    map[string]*models.Conversation
	messages []models.Message
	fail     faults
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{convs: map[string]*models.Conversation{}}
}

func (f *fakeConversations) GetOrCreateConversation(_ context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.ConversationKey(a, b)
	if c, ok := f.convs[key]; ok {
		cc := *c
		return &cc, nil
	}
	participants := []primitive.ObjectID{a}
	if a != b {
		participants = append(participants, b)
	}
	c := &models.Conversation{ID: primitive.NewObjectID(), Key: key, Participants: participants}
	f.convs[key] = c
	cc := *c
	return &cc, nil
}

func (f *fakeConversations) GetConversationByID(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.ID == id {
			cc := *c
			return &cc, nil
		}
	}
	return nil, apperr.NotFound("Conversation not found")
}

func (f *fakeConversations) ListConversations(_ context.Context, participant primitive.ObjectID) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range f.convs {
		if c.HasParticipant(participant) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversations) SetLastMessage(_ context.Context, id primitive.ObjectID, text string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail.take("SetLastMessage"); err != nil {
		return err
	}
	for _, c := range f.convs {
		if c.ID == id {
			c.LastMessage, c.UpdatedAt = text, at
		}
	}
	return nil
}

func (f *fakeConversations) CreateMessage(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConversations) GetMessageByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, apperr.NotFound("Message not found")
}

func (f *fakeConversations) ListMessages(_ context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ConversationID == conversationID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeConversations) MarkMessageSeen(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].IsSeen = true
			return nil
		}
	}
	return apperr.NotFound("Message not found")
}

type fakeNotifications struct {
	mu   sync.Mutex
	rows []models.Notification
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) GetByRecipientID(_ context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Notification
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].RecipientID == recipientID {
			all = append(all, f.rows[i])
		}
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Notification{}, int64(len(all)), nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeNotifications) GetUnreadCount(_ context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.rows {
		if r.RecipientID == recipientID && !r.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkAsRead(_ context.Context, id uint, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].RecipientID == recipientID {
			f.rows[i].IsRead = true
			return nil
		}
	}
	return apperr.NotFound("Notification not found")
}

func (f *fakeNotifications) MarkAllAsRead(_ context.Context, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].RecipientID == recipientID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) of(typ models.NotificationType) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.rows {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fakeUploader struct {
	mu      sync.Mutex
	n       int
	deleted []string
	fail    bool
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, folder, _ string) (models.Media, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return models.Media{}, fmt.Errorf("object store unavailable")
	}
	u.n++
	id := fmt.Sprintf("%s/%d", folder, u.n)
	return models.Media{URL: "https://cdn.example.com/" + id, ID: id}, nil
}

func (u *fakeUploader) Delete(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, id)
	return nil
}

type fakeMailer struct {
	verifications map[string]string
	passwords     map[string]string
	fail          bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verifications: map[string]string{}, passwords: map[string]string{}}
}

func (m *fakeMailer) SendVerificationEmail(to, _, link string) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.verifications[to] = link
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(to, _, password string) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.passwords[to] = password
	return nil
}
