package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStore mirrors generated documents into S3-compatible object
// storage. The store is optional: when no endpoint is configured callers
// receive a nil store and skip archival.
type ArtifactStore struct {
	client *minio.Client
	bucket string
	root   string
}

// NewArtifactStore connects to object storage and ensures the bucket exists.
// Returns (nil, nil) when endpoint is empty.
func NewArtifactStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, root string, useSSL bool) (*ArtifactStore, error) {
	if endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &ArtifactStore{client: client, bucket: bucket, root: root}, nil
}

// Upload copies one local artifact into the bucket under its relative path.
func (s *ArtifactStore) Upload(ctx context.Context, relPath string) error {
	if s == nil {
		return nil
	}
	local := filepath.Join(s.root, relPath)
	_, err := s.client.FPutObject(ctx, s.bucket, filepath.ToSlash(relPath), local, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", relPath, err)
	}
	return nil
}

// PresignedURL returns a temporary download link for an archived artifact.
func (s *ArtifactStore) PresignedURL(ctx context.Context, relPath string, expirySeconds int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, filepath.ToSlash(relPath), time.Duration(expirySeconds)*time.Second, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", relPath, err)
	}
	return u.String(), nil
}
