package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"storybook/internal/infra"
)

// S3Store persists book assets in an S3 bucket and hands out public or
// presigned URLs. Keys follow the final/{preview_id}/page_NN.jpg convention
// consumed by the pipeline.
type S3Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

// NewS3Store builds an S3-backed store using the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region, baseURL string, logger infra.Logger) (*S3Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     bucket,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Upload stores the bytes under key and returns the public URL.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put object %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

// Download fetches the bytes behind a URL. Used for pulling provider-hosted
// results before persisting them under our own keys.
func (s *S3Store) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage: download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DownloadAndStore pulls a provider-hosted image and re-uploads it under the
// given key, returning the durable URL. Provider URLs are short-lived, so
// every accepted page goes through this before it is persisted.
func (s *S3Store) DownloadAndStore(ctx context.Context, sourceURL, key string) (string, error) {
	data, err := s.Download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return s.Upload(ctx, key, data, contentType)
}

// SignedURL returns a presigned GET URL for the key.
func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	result, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return result.URL, nil
}

func (s *S3Store) publicURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
