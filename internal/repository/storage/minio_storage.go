package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cfg "github.com/dafibh/spaces/spaces-backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIODocumentStorage implements DocumentStorage using MinIO
type MinIODocumentStorage struct {
	client     *minio.Client
	bucketName string
}

var _ DocumentStorage = (*MinIODocumentStorage)(nil)

// NewMinIODocumentStorage creates a MinIO document storage and makes sure the bucket exists
func NewMinIODocumentStorage(ctx context.Context, mcfg cfg.MinIOConfig) (*MinIODocumentStorage, error) {
	client, err := minio.New(mcfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mcfg.AccessKeyID, mcfg.SecretAccessKey, ""),
		Secure: mcfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIODocumentStorage{client: client, bucketName: mcfg.BucketName}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ensureBucket creates the bucket if it doesn't exist. Documents are private,
// so no public policy is set.
func (r *MinIODocumentStorage) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PresignUpload generates a presigned PUT URL for the object
func (r *MinIODocumentStorage) PresignUpload(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error) {
	var headers http.Header
	if contentType != "" {
		headers = http.Header{"Content-Type": []string{contentType}}
	}
	u, err := r.client.PresignHeader(ctx, http.MethodPut, r.bucketName, objectKey, expiry, nil, headers)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return u.String(), nil
}

// PresignGet generates a presigned GET URL for temporary access
func (r *MinIODocumentStorage) PresignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := r.client.PresignedGetObject(ctx, r.bucketName, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// Delete removes an object from MinIO storage
func (r *MinIODocumentStorage) Delete(ctx context.Context, objectKey string) error {
	if err := r.client.RemoveObject(ctx, r.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
