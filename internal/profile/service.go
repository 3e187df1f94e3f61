package profile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	defaultMaxAvatarSize = 2 << 20 // 2 MiB
	defaultAvatarURLTTL  = 15 * time.Minute
)

var allowedAvatarTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

type preferenceStore interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (Preferences, error)
	SavePreferences(ctx context.Context, userID uuid.UUID, theme Theme) (Preferences, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, Avatar, error)
	RemoveObject(ctx context.Context, bucketName, objectName string) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
}

// Service manages the authenticated user's preferences and avatar.
type Service struct {
	prefs         preferenceStore
	objectStore   objectStore
	objectBucket  string
	maxAvatarSize int64
	avatarURLTTL  time.Duration
	nowFunc       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithAvatarURLTTL sets how long presigned avatar URLs stay valid.
func WithAvatarURLTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.avatarURLTTL = ttl
		}
	}
}

// NewService constructs a profile service.
func NewService(prefs preferenceStore, store objectStore, objectBucket string, opts ...Option) *Service {
	s := &Service{
		prefs:         prefs,
		objectStore:   store,
		objectBucket:  objectBucket,
		maxAvatarSize: defaultMaxAvatarSize,
		avatarURLTTL:  defaultAvatarURLTTL,
		nowFunc:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAvatarSize is the largest accepted avatar in bytes.
func (s *Service) MaxAvatarSize() int64 {
	return s.maxAvatarSize
}

// GetPreferences returns the user's preferences.
func (s *Service) GetPreferences(ctx context.Context, userID uuid.UUID) (Preferences, error) {
	return s.prefs.GetPreferences(ctx, userID)
}

// UpdatePreferences validates and stores a theme preset.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, theme string) (Preferences, error) {
	parsed, err := ParseTheme(theme)
	if err != nil {
		return Preferences{}, err
	}
	return s.prefs.SavePreferences(ctx, userID, parsed)
}

// UploadAvatar stores size bytes from r as the user's avatar, replacing any
// previous one. The content type is sniffed from the data, not trusted
// from the client.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, r io.Reader, size int64) (Avatar, error) {
	if size <= 0 {
		return Avatar{}, ErrUnsupportedMediaType
	}
	if size > s.maxAvatarSize {
		return Avatar{}, ErrAvatarTooLarge
	}

	buffered := bufio.NewReaderSize(r, 512)
	head, err := buffered.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return Avatar{}, fmt.Errorf("read avatar: %w", err)
	}

	contentType := http.DetectContentType(head)
	if _, ok := allowedAvatarTypes[contentType]; !ok {
		return Avatar{}, ErrUnsupportedMediaType
	}

	info, err := s.objectStore.PutObject(ctx, s.objectBucket, avatarObjectName(userID), io.LimitReader(buffered, size), size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Avatar{}, fmt.Errorf("store avatar: %w", err)
	}

	return Avatar{
		ContentType:  contentType,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// GetAvatar opens the user's avatar. The caller closes the reader.
func (s *Service) GetAvatar(ctx context.Context, userID uuid.UUID) (io.ReadCloser, Avatar, error) {
	return s.objectStore.GetObject(ctx, s.objectBucket, avatarObjectName(userID))
}

// AvatarURL returns a presigned download URL for the user's avatar, for
// clients that cannot attach a bearer token such as an <img> tag.
func (s *Service) AvatarURL(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	expiresAt := s.nowFunc().Add(s.avatarURLTTL)
	u, err := s.objectStore.PresignedGetObject(ctx, s.objectBucket, avatarObjectName(userID), s.avatarURLTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return u.String(), expiresAt, nil
}

// DeleteAvatar removes the user's avatar if present.
func (s *Service) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	err := s.objectStore.RemoveObject(ctx, s.objectBucket, avatarObjectName(userID))
	if err != nil && !errors.Is(err, ErrAvatarNotFound) {
		return err
	}
	return nil
}

func avatarObjectName(userID uuid.UUID) string {
	return "avatars/" + userID.String()
}
