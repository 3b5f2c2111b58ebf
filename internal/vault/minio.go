// Package vault stores opaque file blobs for the contracting workflow. The
// MinIO backend is used in deployments; the local backend keeps files on disk
// for development.
package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cristian138/th-academy/pkg/config"
)

type MinioVault struct {
	client *minio.Client
	bucket string
}

func NewMinio(cfg config.MinioConfig) (*MinioVault, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioVault{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (v *MinioVault) EnsureBucket(ctx context.Context) error {
	exists, err := v.client.BucketExists(ctx, v.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := v.client.MakeBucket(ctx, v.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Store writes the blob under <category>/<uuid>_<name> and returns that
// object name as the file id.
func (v *MinioVault) Store(ctx context.Context, content []byte, name, category string) (string, error) {
	objectName := path.Join(category, fmt.Sprintf("%s_%s", uuid.New(), name))
	_, err := v.client.PutObject(ctx, v.bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return objectName, nil
}

func (v *MinioVault) Retrieve(ctx context.Context, fileID string) ([]byte, error) {
	obj, err := v.client.GetObject(ctx, v.bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (v *MinioVault) Delete(ctx context.Context, fileID string) error {
	if err := v.client.RemoveObject(ctx, v.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
