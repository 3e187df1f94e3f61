package profile

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts minio.Client to the objectStore interface.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore constructs an adapter.
func NewMinIOStore(client *minio.Client) *MinIOStore {
	return &MinIOStore{client: client}
}

func (s *MinIOStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return s.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

// GetObject opens the object and stats it so a missing key is reported
// before any bytes are streamed to the client.
func (s *MinIOStore) GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, Avatar, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, Avatar{}, translateMinIOError(err)
	}

	info, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, Avatar{}, translateMinIOError(err)
	}

	return object, Avatar{
		ContentType:  info.ContentType,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (s *MinIOStore) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	if err := s.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return translateMinIOError(err)
	}
	return nil
}

// PresignedGetObject signs a download URL for an existing object. Missing
// objects are reported instead of signing a URL that would 404.
func (s *MinIOStore) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error) {
	if _, err := s.client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{}); err != nil {
		return nil, translateMinIOError(err)
	}

	u, err := s.client.PresignedGetObject(ctx, bucketName, objectName, expires, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign object: %w", err)
	}
	return u, nil
}

func translateMinIOError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrAvatarNotFound
	}
	return fmt.Errorf("object store: %w", err)
}
