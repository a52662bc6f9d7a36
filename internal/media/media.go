// Package media validates uploaded files and pushes them to the object store.
package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/metrics"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

const megabyte = 1 << 20

// Uploader is the external object store.
type Uploader interface {
	Upload(ctx context.Context, data []byte, folder, contentType string) (models.Media, error)
	Delete(ctx context.Context, id string) error
}

// Policy is the per-entity upload constraint.
type Policy struct {
	Folder   string
	MaxBytes int64
	MaxFiles int
	Label    string
}

var (
	ProfilePicture = Policy{Folder: "social-media/profile-pictures", MaxBytes: 2 * megabyte, MaxFiles: 1, Label: "2MB"}
	CoverPhoto     = Policy{Folder: "social-media/cover-photos", MaxBytes: 5 * megabyte, MaxFiles: 1, Label: "5MB"}
	PostImage      = Policy{Folder: "social-media-posts", MaxBytes: 5 * megabyte, MaxFiles: 10, Label: "5MB"}
	PostImageEdit  = Policy{Folder: "social-media-posts", MaxBytes: 5 * megabyte, MaxFiles: 5, Label: "5MB"}
	StoryImage     = Policy{Folder: "social-media-story", MaxBytes: 2 * megabyte, MaxFiles: 10, Label: "2MB"}
	CommentImage   = Policy{Folder: "social-media-comments", MaxBytes: 5 * megabyte, MaxFiles: 1, Label: "5MB"}
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// File is an uploaded file held in memory.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// ReadFiles loads multipart headers into memory. The content type is sniffed
// from the bytes rather than trusted from the client.
func ReadFiles(headers []*multipart.FileHeader) ([]File, error) {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, apperr.BadRequest("Could not read uploaded file.")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperr.BadRequest("Could not read uploaded file.")
		}
		files = append(files, File{
			Name:        fh.Filename,
			Data:        data,
			ContentType: mimetype.Detect(data).String(),
		})
	}
	return files, nil
}

// Validate checks type and size of every file against p.
func (p Policy) Validate(files []File) error {
	if p.MaxFiles > 0 && len(files) > p.MaxFiles {
		return apperr.BadRequest(fmt.Sprintf("At most %d files are allowed.", p.MaxFiles))
	}
	for _, f := range files {
		if !allowedImageTypes[baseType(f.ContentType)] {
			return apperr.BadRequest("Invalid file format. Only jpg, png, gif, and webp are allowed.")
		}
		if int64(len(f.Data)) > p.MaxBytes {
			return apperr.BadRequest("File size exceeds " + p.Label + ".")
		}
	}
	return nil
}

func baseType(contentType string) string {
	for i := 0; i < len(contentType); i++ {
		if contentType[i] == ';' {
			return contentType[:i]
		}
	}
	return contentType
}

// UploadAll validates files and uploads them concurrently. Either every file
// is stored and returned in input order, or none is kept: objects uploaded
// before a failure are deleted again.
func UploadAll(ctx context.Context, up Uploader, p Policy, files []File) ([]models.Media, error) {
	if err := p.Validate(files); err != nil {
		return nil, err
	}
	out := make([]models.Media, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			m, err := up.Upload(gctx, f.Data, p.Folder, baseType(f.ContentType))
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		Discard(context.WithoutCancel(ctx), up, out)
		return nil, apperr.Internal("upload media", err)
	}
	metrics.MediaUploads.WithLabelValues("ok").Add(float64(len(out)))
	return out, nil
}

// UploadOne is UploadAll for a single file.
func UploadOne(ctx context.Context, up Uploader, p Policy, f File) (models.Media, error) {
	out, err := UploadAll(ctx, up, p, []File{f})
	if err != nil {
		return models.Media{}, err
	}
	return out[0], nil
}

// Discard deletes stored objects, logging failures. Items without an ID are skipped.
func Discard(ctx context.Context, up Uploader, items []models.Media) {
	for _, m := range items {
		if m.ID == "" {
			continue
		}
		if err := up.Delete(ctx, m.ID); err != nil {
			log.Warnf("media: delete %s: %v", m.ID, err)
		}
	}
}
