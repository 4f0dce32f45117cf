// Package source loads dump text from a local path or an s3://bucket/key
// location.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dbsmedya/goalias/internal/config"
	"github.com/dbsmedya/goalias/internal/dump"
	"github.com/dbsmedya/goalias/internal/logger"
)

const s3Scheme = "s3"

// Loader reads dumps. The S3 client is only built when an s3:// location
// is actually requested.
type Loader struct {
	cfg    config.S3Config
	logger *logger.Logger

	mu     sync.Mutex
	client *s3.Client
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3Client injects a ready S3 client (tests, custom transports).
func WithS3Client(c *s3.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.logger = log }
}

// NewLoader creates a loader.
func NewLoader(cfg config.S3Config, opts ...Option) *Loader {
	l := &Loader{cfg: cfg, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseS3URL splits s3://bucket/key. ok is false for anything that is not
// an s3 URL, which callers treat as a local path.
func ParseS3URL(location string) (bucket, key string, ok bool, err error) {
	if !strings.HasPrefix(location, s3Scheme+"://") {
		return "", "", false, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", "", true, fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", true, fmt.Errorf("invalid s3 location %q: want s3://bucket/key", location)
	}
	return u.Host, key, true, nil
}

// Load returns the full text at location.
func (l *Loader) Load(ctx context.Context, location string) (string, error) {
	bucket, key, isS3, err := ParseS3URL(location)
	if err != nil {
		return "", err
	}
	if !isS3 {
		return dump.LoadFile(location)
	}

	client, err := l.s3Client(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to configure s3 client: %w", err)
	}

	l.logger.Debugw("Fetching dump from S3", "bucket", bucket, "key", key)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", fmt.Errorf("failed to read dump %s: %w", location, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read dump %s: %w", location, err)
	}
	return string(data), nil
}

func (l *Loader) s3Client(ctx context.Context) (*s3.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}

	region := l.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	l.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if l.cfg.PathStyle {
			o.UsePathStyle = true
		}
		if l.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(l.cfg.Endpoint)
		}
	})
	return l.client, nil
}
