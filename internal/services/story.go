package services

import (
	"context"
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/anonto42/socials/backend/internal/visibility"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryService manages expiring stories. Expiry is evaluated against the
// injected clock at read time; nothing deletes expired stories.
type StoryService struct {
	stories  repositories.StoryRepository
	users    repositories.UserRepository
	uploader media.Uploader
	now      func() time.Time
}

func NewStoryService(stories repositories.StoryRepository, users repositories.UserRepository, uploader media.Uploader) *StoryService {
	return &StoryService{stories: stories, users: users, uploader: uploader, now: time.Now}
}

// WithClock replaces the time source.
func (s *StoryService) WithClock(now func() time.Time) *StoryService {
	s.now = now
	return s
}

// CreateStory adds images to the owner's active story or starts a new one.
// created is false when images were appended to an existing story.
func (s *StoryService) CreateStory(ctx context.Context, ownerID primitive.ObjectID, tier, music string, files []media.File) (story *models.Story, created bool, err error) {
	v, err := parseTier(tier)
	if err != nil {
		return nil, false, err
	}
	if len(files) == 0 {
		return nil, false, apperr.BadRequest("At least one image is required.")
	}
	images, err := media.UploadAll(ctx, s.uploader, media.StoryImage, files)
	if err != nil {
		return nil, false, err
	}
	story, created, err = s.stories.UpsertActiveStory(ctx, ownerID, images, music, v, s.now())
	if err != nil {
		media.Discard(context.WithoutCancel(ctx), s.uploader, images)
		return nil, false, err
	}
	return story, created, nil
}

// GetStories returns the active stories viewer may see, with owners populated.
func (s *StoryService) GetStories(ctx context.Context, viewerID primitive.ObjectID) ([]models.StoryWithAuthor, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	stories, err := s.stories.ListActiveStories(ctx, visibility.ForFeed(viewer), s.now())
	if err != nil {
		return nil, err
	}

	owners := make([]primitive.ObjectID, len(stories))
	for i, st := range stories {
		owners[i] = st.UserID
	}
	authors, err := summaries(ctx, s.users, owners)
	if err != nil {
		return nil, err
	}
	out := make([]models.StoryWithAuthor, len(stories))
	for i, st := range stories {
		out[i] = models.StoryWithAuthor{Story: st, User: authors[st.UserID]}
	}
	return out, nil
}

// ViewStory returns a story and records the viewer. The owner is never recorded.
func (s *StoryService) ViewStory(ctx context.Context, viewerID, storyID primitive.ObjectID) (*models.Story, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !story.Active(s.now()) {
		return nil, apperr.BadRequest("Story has expired.")
	}
	owner, err := s.users.GetUserByID(ctx, story.UserID)
	if err != nil {
		return nil, err
	}
	if !visibility.CanView(viewerID, owner, story.Visibility) {
		return nil, apperr.Forbidden("You are not allowed to view this story.")
	}
	if viewerID == story.UserID {
		return story, nil
	}
	return s.stories.AddView(ctx, storyID, viewerID)
}

func (s *StoryService) ownedStory(ctx context.Context, ownerID, storyID primitive.ObjectID) (*models.Story, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != ownerID {
		return nil, apperr.Forbidden("You are not the owner of this story.")
	}
	return story, nil
}

// DeleteStory removes the story and its images.
func (s *StoryService) DeleteStory(ctx context.Context, ownerID, storyID primitive.ObjectID) error {
	story, err := s.ownedStory(ctx, ownerID, storyID)
	if err != nil {
		return err
	}
	if err := s.stories.DeleteStory(ctx, storyID); err != nil {
		return err
	}
	media.Discard(ctx, s.uploader, story.Images)
	return nil
}

// UpdateStory changes visibility and drops images by URL.
func (s *StoryService) UpdateStory(ctx context.Context, ownerID, storyID primitive.ObjectID, imagesToRemove []string, tier string) (*models.Story, error) {
	story, err := s.ownedStory(ctx, ownerID, storyID)
	if err != nil {
		return nil, err
	}
	if tier != "" {
		if story.Visibility, err = parseTier(tier); err != nil {
			return nil, err
		}
	}

	drop := make(map[string]bool, len(imagesToRemove))
	for _, u := range imagesToRemove {
		drop[u] = true
	}
	kept := make([]models.Media, 0, len(story.Images))
	var removed []models.Media
	for _, m := range story.Images {
		if drop[m.URL] {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, apperr.BadRequest("A story must keep at least one image.")
	}
	story.Images = kept

	if err := s.stories.UpdateStory(ctx, story); err != nil {
		return nil, err
	}
	media.Discard(ctx, s.uploader, removed)
	return story, nil
}
