package services

import (
	"context"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService manages threaded comments. Replies reference their parent;
// the tree is rebuilt from that index on every read.
type CommentService struct {
	comments repositories.CommentRepository
	posts    *PostService
	postRepo repositories.PostRepository
	users    repositories.UserRepository
	uploader media.Uploader
	notifier Notifier
}

func NewCommentService(comments repositories.CommentRepository, posts *PostService, postRepo repositories.PostRepository, users repositories.UserRepository, uploader media.Uploader, notifier Notifier) *CommentService {
	return &CommentService{comments: comments, posts: posts, postRepo: postRepo, users: users, uploader: uploader, notifier: notifier}
}

// CreateComment adds a comment or a reply to a post the author can see.
func (s *CommentService) CreateComment(ctx context.Context, authorID, postID primitive.ObjectID, text string, parentID *uint, image *media.File) (*models.Comment, error) {
	if blank(text) && image == nil {
		return nil, apperr.BadRequest("Comment text or image is required.")
	}
	post, _, err := s.posts.visiblePost(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.comments.GetCommentByID(ctx, *parentID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.NotFound("Parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != postID.Hex() {
			return nil, apperr.BadRequest("Parent comment belongs to another post.")
		}
	}

	comment := &models.Comment{
		PostID:   postID.Hex(),
		UserID:   authorID.Hex(),
		Text:     strings.TrimSpace(text),
		ParentID: parentID,
	}
	if image != nil {
		m, err := media.UploadOne(ctx, s.uploader, media.CommentImage, *image)
		if err != nil {
			return nil, err
		}
		comment.ImageURL, comment.ImageID = m.URL, m.ID
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		media.Discard(context.WithoutCancel(ctx), s.uploader, []models.Media{{URL: comment.ImageURL, ID: comment.ImageID}})
		return nil, err
	}
	if parentID == nil {
		if err := s.postRepo.AddComment(ctx, postID, comment.ID); err != nil {
			log.Warnf("comment %d stored but not linked to post %s: %v", comment.ID, postID.Hex(), err)
		}
	}

	if post.UserID != authorID {
		author, err := s.users.GetUserByID(ctx, authorID)
		if err == nil {
			notify(ctx, s.notifier, models.NotificationCommented, authorID, post.UserID,
				author.Username+" commented on your post.")
		}
	}
	return comment, nil
}

// GetComments returns the top-level comments of a post, newest first, with
// replies nested below their parents and authors populated.
func (s *CommentService) GetComments(ctx context.Context, viewerID, postID primitive.ObjectID) ([]models.CommentNode, error) {
	if _, _, err := s.posts.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	all, err := s.comments.GetCommentsByPostID(ctx, postID.Hex())
	if err != nil {
		return nil, err
	}

	authorHexes := make([]string, len(all))
	for i, c := range all {
		authorHexes[i] = c.UserID
	}
	authors, err := summaries(ctx, s.users, hexIDs(authorHexes))
	if err != nil {
		return nil, err
	}
	return buildTree(all, authors), nil
}

// buildTree nests comments under their parents preserving the input order.
// Comments whose parent is missing are dropped along with their subtree.
func buildTree(all []models.Comment, authors map[primitive.ObjectID]models.UserSummary) []models.CommentNode {
	children := make(map[uint][]models.Comment)
	var roots []models.Comment
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	visited := make(map[uint]bool)
	var build func(c models.Comment) models.CommentNode
	build = func(c models.Comment) models.CommentNode {
		visited[c.ID] = true
		node := models.CommentNode{Comment: c, Replies: []models.CommentNode{}}
		if id, err := primitive.ObjectIDFromHex(c.UserID); err == nil {
			node.User = authors[id]
		}
		for _, child := range children[c.ID] {
			if !visited[child.ID] {
				node.Replies = append(node.Replies, build(child))
			}
		}
		return node
	}

	out := make([]models.CommentNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}

// DeleteComment removes a comment and every reply beneath it. The comment's
// author and the post's owner may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actorID primitive.ObjectID, commentID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	postID, err := primitive.ObjectIDFromHex(comment.PostID)
	if err != nil {
		return apperr.Internal("comment has malformed post reference", err)
	}
	if comment.UserID != actorID.Hex() {
		post, err := s.postRepo.GetPostByID(ctx, postID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		if post == nil || post.UserID != actorID {
			return apperr.Forbidden("You are not allowed to delete this comment.")
		}
	}

	doomed, err := s.subtree(ctx, *comment)
	if err != nil {
		return err
	}
	ids := make([]uint, len(doomed))
	images := make([]models.Media, 0, len(doomed))
	for i, c := range doomed {
		ids[i] = c.ID
		images = append(images, models.Media{URL: c.ImageURL, ID: c.ImageID})
	}

	// The post's references are dropped before the rows so a failed call
	// still finds the comment on retry.
	if err := s.postRepo.RemoveComments(ctx, postID, ids); err != nil {
		return err
	}
	if err := s.comments.DeleteComments(ctx, ids); err != nil {
		return err
	}
	media.Discard(ctx, s.uploader, images)
	return nil
}

// subtree walks the parent index breadth first from root.
func (s *CommentService) subtree(ctx context.Context, root models.Comment) ([]models.Comment, error) {
	out := []models.Comment{root}
	seen := map[uint]bool{root.ID: true}
	frontier := []uint{root.ID}
	for len(frontier) > 0 {
		children, err := s.comments.GetChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		var next []uint
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			next = append(next, c.ID)
		}
		frontier = next
	}
	return out, nil
}
