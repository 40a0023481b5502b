package objectclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	cfg "github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/core"
)

// MinioClient talks to a MinIO (or any S3-compatible) server with path-style URLs.
type MinioClient struct {
	client *minio.Client
	bucket string
	base   string
	layout urlLayout
}

var _ core.ObjectClient = (*MinioClient)(nil)

// NewMinioClient connects and creates the bucket when it is missing.
func NewMinioClient(ctx context.Context, cfg *cfg.Config, log logrus.FieldLogger) (*MinioClient, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT not set")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.AwsRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctxBucket, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctxBucket, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctxBucket, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.AwsRegion}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.WithField("bucket", cfg.BucketName).Info("created minio bucket")
	}

	log.WithField("endpoint", cfg.MinioEndpoint).Info("MinIO object client ready")
	return newMinioClient(client, cfg.BucketName), nil
}

func newMinioClient(client *minio.Client, bucket string) *MinioClient {
	base := client.EndpointURL()
	return &MinioClient{
		client: client,
		bucket: bucket,
		base:   base.Scheme + "://" + base.Host,
		layout: urlLayout{bucket: bucket, pathHosts: []string{hostOf(base.Host)}},
	}
}

func (c *MinioClient) UploadFile(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := c.client.PutObject(ctxUpload, c.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio upload failed: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", c.base, c.bucket, key), nil
}

func (c *MinioClient) DeleteFile(ctx context.Context, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := c.client.RemoveObject(ctxDel, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete failed: %w", err)
	}
	return nil
}

// PresignPut signs a plain PUT. MinIO's presigner does not bind the content type.
func (c *MinioClient) PresignPut(ctx context.Context, key, _ string, expires time.Duration) (string, error) {
	u, err := c.client.PresignedPutObject(ctx, c.bucket, key, expires)
	if err != nil {
		return "", fmt.Errorf("minio presign put failed: %w", err)
	}
	return u.String(), nil
}

func (c *MinioClient) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign get failed: %w", err)
	}
	return u.String(), nil
}

func (c *MinioClient) KeyFromURL(rawURL string) (string, bool) {
	return c.layout.keyFromURL(rawURL)
}
