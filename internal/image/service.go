package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	PathPrefix         = "images/"
	defaultMaxFileSize = 5 * 1024 * 1024
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

type metadataStore interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (Image, error)
	FindByPost(ctx context.Context, postID int) (Image, error)
	SaveForUser(ctx context.Context, name, path string, userID uuid.UUID) (Image, error)
	SaveForPost(ctx context.Context, name, path string, postID int) (Image, error)
	DeleteForPost(ctx context.Context, postID int) (bool, error)
}

type objectStore interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, name string) error
	PresignGet(ctx context.Context, name string, ttl time.Duration) (string, error)
}

// Service stores profile and post pictures in the object store.
type Service struct {
	repo        metadataStore
	objects     objectStore
	presignTTL  time.Duration
	maxFileSize int64
	log         *zap.Logger
}

// NewService constructs an image service.
func NewService(repo metadataStore, objects objectStore, presignTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		objects:     objects,
		presignTTL:  presignTTL,
		maxFileSize: defaultMaxFileSize,
		log:         zap.L().Named("image"),
	}
}

// SaveProfilePicture replaces the profile picture of userID and returns its path.
func (s *Service) SaveProfilePicture(ctx context.Context, userID uuid.UUID, up Upload) (string, error) {
	previous, err := s.repo.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		return "", err
	}

	path, err := s.store(ctx, up)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.SaveForUser(ctx, sanitizeFilename(up.Filename), path, userID); err != nil {
		s.discard(ctx, path)
		return "", err
	}

	if previous.Path != "" {
		s.discard(ctx, previous.Path)
	}
	return path, nil
}

// SavePostImage replaces the image attached to postID and returns its path.
func (s *Service) SavePostImage(ctx context.Context, postID int, up Upload) (string, error) {
	previous, err := s.repo.FindByPost(ctx, postID)
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		return "", err
	}

	path, err := s.store(ctx, up)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.SaveForPost(ctx, sanitizeFilename(up.Filename), path, postID); err != nil {
		s.discard(ctx, path)
		return "", err
	}

	if previous.Path != "" {
		s.discard(ctx, previous.Path)
	}
	return path, nil
}

// ProfilePicturePath returns the stored picture path of a user, or "" when none was uploaded.
func (s *Service) ProfilePicturePath(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.pathOf(s.repo.FindByUser(ctx, userID))
}

// PostImagePath returns the image path of a post, or "" when it has none.
func (s *Service) PostImagePath(ctx context.Context, postID int) (string, error) {
	return s.pathOf(s.repo.FindByPost(ctx, postID))
}

// DeletePostImage removes both the object and the metadata row of a post image.
// Each half that could not be removed contributes its own error code.
func (s *Service) DeletePostImage(ctx context.Context, postID int) error {
	var errs []error

	img, err := s.repo.FindByPost(ctx, postID)
	switch {
	case errors.Is(err, ErrImageNotFound):
		errs = append(errs, ErrFileNotDeleted)
	case err != nil:
		return err
	default:
		if err := s.objects.Remove(ctx, img.Path); err != nil {
			s.log.Warn("remove post image object", zap.Int("post_id", postID), zap.Error(err))
			errs = append(errs, ErrFileNotDeleted)
		}
	}

	deleted, err := s.repo.DeleteForPost(ctx, postID)
	if err != nil {
		return err
	}
	if !deleted {
		errs = append(errs, ErrEntryNotDeleted)
	}
	return errors.Join(errs...)
}

// PresignedURL returns a time-limited GET URL for a stored picture path.
func (s *Service) PresignedURL(ctx context.Context, path string) (string, error) {
	if !strings.HasPrefix(path, PathPrefix) || strings.Contains(path, "..") || len(path) == len(PathPrefix) {
		return "", ErrImageNotFound
	}
	u, err := s.objects.PresignGet(ctx, path, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return u, nil
}

func (s *Service) store(ctx context.Context, up Upload) (string, error) {
	if up.Body == nil || up.Size <= 0 {
		return "", ErrFileCannotBeNull
	}
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(up.ContentType))]
	if !ok {
		return "", ErrInvalidFileType
	}
	if up.Size > s.maxFileSize {
		return "", ErrFileTooLarge
	}

	path := fmt.Sprintf("%s%s.%s", PathPrefix, uuid.New(), ext)
	if err := s.objects.Put(ctx, path, up.Body, up.Size, up.ContentType); err != nil {
		return "", fmt.Errorf("store object: %w", err)
	}
	return path, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.objects.Remove(ctx, path); err != nil {
		s.log.Warn("remove replaced image", zap.String("path", path), zap.Error(err))
	}
}

func (s *Service) pathOf(img Image, err error) (string, error) {
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return "", nil
		}
		return "", err
	}
	return img.Path, nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
