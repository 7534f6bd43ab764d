package storage

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/abduss/forum/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const (
	objectStoreTimeout = 5 * time.Second
	minioAPIPort       = "9000"

	// multipart uploads left unfinished this long are discarded
	abandonedUploadDays = 1
)

// NewMinIOClient connects to the object store holding profile and post pictures.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(apiEndpoint(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// EnsureImageBucket creates the picture bucket when missing and installs the
// cleanup rule for abandoned multipart uploads under prefix.
func EnsureImageBucket(ctx context.Context, client *minio.Client, cfg config.MinIOConfig, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, objectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	if err := client.SetBucketLifecycle(ctx, cfg.Bucket, imageLifecycle(prefix)); err != nil {
		return fmt.Errorf("set lifecycle on %q: %w", cfg.Bucket, err)
	}
	return nil
}

func imageLifecycle(prefix string) *lifecycle.Configuration {
	rules := lifecycle.NewConfiguration()
	rules.Rules = []lifecycle.Rule{{
		ID:         "abort-abandoned-image-uploads",
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: prefix},
		AbortIncompleteMultipartUpload: lifecycle.AbortIncompleteMultipartUpload{
			DaysAfterInitiation: lifecycle.ExpirationDays(abandonedUploadDays),
		},
	}}
	return rules
}

// apiEndpoint appends the default MinIO API port to a bare host.
func apiEndpoint(endpoint string) string {
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return endpoint
	}
	return net.JoinHostPort(endpoint, minioAPIPort)
}
