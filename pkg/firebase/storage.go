package firebase

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"cloud.google.com/go/storage"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const downloadTokenKey = "firebaseStorageDownloadTokens"

// Storage puts media objects into a Firebase storage bucket and serves them
// through tokenized download URLs.
type Storage struct {
	bucket *storage.BucketHandle
	name   string
}

func NewStorage(bucket *storage.BucketHandle, name string) *Storage {
	return &Storage{bucket: bucket, name: name}
}

// Upload stores data under folder with a random object name. The returned
// Media ID is the object name.
func (s *Storage) Upload(ctx context.Context, data []byte, folder, contentType string) (models.Media, error) {
	object := path.Join(folder, uuid.NewString())
	token := uuid.NewString()

	w := s.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: token}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return models.Media{}, errors.Wrapf(err, "write object %s", object)
	}
	if err := w.Close(); err != nil {
		return models.Media{}, errors.Wrapf(err, "close object %s", object)
	}

	return models.Media{URL: s.downloadURL(object, token), ID: object}, nil
}

// Delete removes an object. Objects that are already gone are not an error.
func (s *Storage) Delete(ctx context.Context, id string) error {
	err := s.bucket.Object(id).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Wrapf(err, "delete object %s", id)
	}
	return nil
}

func (s *Storage) downloadURL(object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.name, url.PathEscape(object), token)
}
