package services

import (
	"context"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/anonto42/socials/backend/internal/visibility"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is an offset/limit window.
type Page struct {
	Limit  int64
	Offset int64
}

// Normalized applies the default and maximum page size.
func (p Page) Normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PostService assembles feeds and owns post mutations.
type PostService struct {
	posts    repositories.PostRepository
	users    repositories.UserRepository
	comments repositories.CommentRepository
	uploader media.Uploader
	notifier Notifier
}

func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, comments repositories.CommentRepository, uploader media.Uploader, notifier Notifier) *PostService {
	return &PostService{posts: posts, users: users, comments: comments, uploader: uploader, notifier: notifier}
}

// GetAllPosts returns the viewer's feed: own posts, friends-tier posts of
// friends and every public post, newest first.
func (s *PostService) GetAllPosts(ctx context.Context, viewerID primitive.ObjectID, page Page) (*models.PostPage, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, visibility.ForFeed(viewer), page)
}

// GetOtherUserPosts returns owner's posts as viewer may see them. The owner
// viewing their own profile sees private posts too.
func (s *PostService) GetOtherUserPosts(ctx context.Context, viewerID, ownerID primitive.ObjectID, page Page) (*models.PostPage, error) {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, visibility.ForOwner(viewerID, owner), page)
}

// GetUserPosts returns every post of the caller.
func (s *PostService) GetUserPosts(ctx context.Context, userID primitive.ObjectID, page Page) (*models.PostPage, error) {
	return s.GetOtherUserPosts(ctx, userID, userID, page)
}

func (s *PostService) list(ctx context.Context, scope visibility.Scope, page Page) (*models.PostPage, error) {
	page = page.Normalized()
	posts, total, err := s.posts.ListPosts(ctx, scope, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &models.PostPage{Posts: views, Total: total}, nil
}

func (s *PostService) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	owners := make([]primitive.ObjectID, len(posts))
	for i, p := range posts {
		owners[i] = p.UserID
	}
	users, err := summaries(ctx, s.users, owners)
	if err != nil {
		return nil, err
	}
	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.PostView{Post: p, User: users[p.UserID], LikesCount: len(p.Likes)}
	}
	return views, nil
}

// visiblePost loads a post and checks that viewer may read it.
func (s *PostService) visiblePost(ctx context.Context, viewerID, postID primitive.ObjectID) (*models.Post, *models.User, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.users.GetUserByID(ctx, post.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !visibility.CanView(viewerID, owner, post.Visibility) {
		return nil, nil, apperr.Forbidden("You are not allowed to view this post.")
	}
	return post, owner, nil
}

// GetPost returns a single post if viewer may read it.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID primitive.ObjectID) (*models.PostView, error) {
	post, owner, err := s.visiblePost(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return &models.PostView{Post: *post, User: owner.ToSummary(), LikesCount: len(post.Likes)}, nil
}

// CreatePost uploads every image and only then stores the post.
func (s *PostService) CreatePost(ctx context.Context, ownerID primitive.ObjectID, content, tier string, files []media.File) (*models.Post, error) {
	if blank(content) {
		return nil, apperr.BadRequest("Content is required.")
	}
	v, err := parseTier(tier)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.BadRequest("At least one image is required.")
	}

	images, err := media.UploadAll(ctx, s.uploader, media.PostImage, files)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:     ownerID,
		Content:    strings.TrimSpace(content),
		Images:     images,
		Visibility: v,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		media.Discard(context.WithoutCancel(ctx), s.uploader, images)
		return nil, err
	}
	return post, nil
}

func (s *PostService) ownedPost(ctx context.Context, ownerID, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != ownerID {
		return nil, apperr.Forbidden("You are not the owner of this post.")
	}
	return post, nil
}

// UpdatePost changes content, visibility or images. New images replace the
// old ones, which are deleted from the object store once the post is saved.
func (s *PostService) UpdatePost(ctx context.Context, ownerID, postID primitive.ObjectID, content, tier string, files []media.File) (*models.Post, error) {
	post, err := s.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if !blank(content) {
		post.Content = strings.TrimSpace(content)
	}
	if tier != "" {
		if post.Visibility, err = parseTier(tier); err != nil {
			return nil, err
		}
	}

	var replaced []models.Media
	if len(files) > 0 {
		images, err := media.UploadAll(ctx, s.uploader, media.PostImageEdit, files)
		if err != nil {
			return nil, err
		}
		replaced, post.Images = post.Images, images
	}
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if replaced != nil {
			media.Discard(context.WithoutCancel(ctx), s.uploader, post.Images)
		}
		return nil, err
	}
	media.Discard(ctx, s.uploader, replaced)
	return post, nil
}

// DeletePost removes the post, its comments and every stored image.
func (s *PostService) DeletePost(ctx context.Context, ownerID, postID primitive.ObjectID) error {
	post, err := s.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return err
	}
	// Comments go first: a failure after this point leaves the post in
	// place, so the whole call can be repeated.
	removed, err := s.comments.DeleteCommentsByPostID(ctx, postID.Hex())
	if err != nil {
		return err
	}
	commentImages := make([]models.Media, 0, len(removed))
	for _, c := range removed {
		commentImages = append(commentImages, models.Media{URL: c.ImageURL, ID: c.ImageID})
	}
	media.Discard(ctx, s.uploader, commentImages)

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	media.Discard(ctx, s.uploader, post.Images)
	return nil
}

// LikeResult is the state of a post's like set after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// ToggleLike likes the post, or unlikes it when the user already does.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID primitive.ObjectID) (*LikeResult, error) {
	post, _, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if liked && post.UserID != userID {
		liker, err := s.users.GetUserByID(ctx, userID)
		if err == nil {
			notify(ctx, s.notifier, models.NotificationPostLiked, userID, post.UserID,
				liker.Username+" liked your post.")
		}
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}
