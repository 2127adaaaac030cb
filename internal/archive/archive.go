// Package archive ships a terminated scheduler's residual audit
// snapshot somewhere durable: an S3 bucket by default, or a local
// directory when no bucket is configured (the same local/ S3
// distinction the reference worker's file stager draws for task
// output, reused here for scheduler archival instead).
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/me/esrt/internal/config"
)

// Sink archives a scheduler's final state as an opaque blob and
// returns a location string identifying where it landed.
type Sink interface {
	Archive(ctx context.Context, schedID string, data []byte) (location string, err error)
}

// New builds a Sink from an ArchiveConfig: an S3Sink if Bucket is set,
// otherwise a LocalSink rooted at LocalDir (defaulting to the OS temp
// directory). Returns nil, nil if archiving is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (Sink, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Bucket != "" {
		return NewS3Sink(ctx, cfg.Bucket, cfg.Prefix, cfg.Region)
	}
	dir := cfg.LocalDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "esrt-archive")
	}
	return NewLocalSink(dir), nil
}

// LocalSink archives to a local directory, one file per schedID.
type LocalSink struct {
	dir string
}

// NewLocalSink constructs a LocalSink rooted at dir.
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

// Archive implements Sink.
func (s *LocalSink) Archive(_ context.Context, schedID string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: mkdir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%d.json", schedID, time.Now().UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", path, err)
	}
	return "file://" + path, nil
}

// S3Sink archives to an S3 bucket under an optional key prefix.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink constructs an S3Sink, loading AWS credentials and region
// from the default config chain (environment, shared config file,
// instance metadata), overridden by region if non-empty.
func NewS3Sink(ctx context.Context, bucket, prefix, region string) (*S3Sink, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}
	return &S3Sink{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Archive implements Sink.
func (s *S3Sink) Archive(ctx context.Context, schedID string, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s-%d.json", s.prefix, schedID, time.Now().UnixNano())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
