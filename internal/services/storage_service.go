package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// ErrForeignObject is returned when a URL does not point into our bucket
var ErrForeignObject = errors.New("url does not belong to this storage bucket")

// ObjectStore stores uploaded media and documents behind public URLs
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// StorageService is an ObjectStore on MinIO or any S3-compatible endpoint
type StorageService struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logrus.Logger
}

// NewStorageService creates a MinIO-backed storage service
func NewStorageService(cfg config.StorageConfig, logger *logrus.Logger) (*StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &StorageService{client: client, bucket: cfg.Bucket, baseURL: baseURL, logger: logger}, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.WithField("bucket", s.bucket).Info("Storage bucket created")
	return nil
}

// Upload stores r under objectPath and returns its public URL
func (s *StorageService) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	key := cleanKey(objectPath)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object a public URL points to
func (s *StorageService) Delete(ctx context.Context, publicURL string) error {
	key, err := s.objectKey(publicURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PublicURL builds the public link of an object key
func (s *StorageService) PublicURL(key string) string {
	return s.baseURL + "/" + cleanKey(key)
}

// Ping checks that the bucket is reachable
func (s *StorageService) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}
	return nil
}

func (s *StorageService) objectKey(publicURL string) (string, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignObject, publicURL)
	}
	return strings.TrimPrefix(publicURL, prefix), nil
}

func cleanKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
