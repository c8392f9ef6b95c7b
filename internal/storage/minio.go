// Package storage wraps the MinIO client that holds media binaries.
// Only the object key and derived URL are persisted with a media entry;
// the binary itself never touches MongoDB or the search index.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnallens/content-platform/internal/config"
)

// MediaStorage is a thin wrapper around the minio client used by the
// media upload handler.
type MediaStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMediaStorage creates a MinIO client and ensures the media bucket exists.
func NewMediaStorage(cfg config.StorageConfig) (*MediaStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MediaStorage{client: mc, bucket: cfg.Bucket, publicURL: strings.TrimRight(cfg.PublicURL, "/")}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Upload stores a media binary under key and returns the URL clients
// should use to fetch it.
func (s *MediaStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

// Remove deletes a stored object. Used to clean up after a failed
// media-entry commit.
func (s *MediaStorage) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Download returns a ReadCloser for the stored object.
func (s *MediaStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to ensure the object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (s *MediaStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// ObjectURL returns the public URL for a key when a public base URL is
// configured, falling back to the bucket-relative path.
func (s *MediaStorage) ObjectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return "/" + s.bucket + "/" + key
}
