// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AiChengYin/pinkdiary/internal/logging"
)

// ObjectScheme prefixes object-store handles.
const ObjectScheme = "s3://"

// ObjectConfig configures the S3-compatible object sink.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string

	// Prefix is prepended to every object key.
	Prefix string

	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32

	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
}

// ObjectSink uploads artifacts to an S3-compatible bucket through minio-go.
// Writes go through a circuit breaker so an unreachable endpoint fails fast
// and the chain moves on to the next sink.
type ObjectSink struct {
	client  *minio.Client
	cfg     ObjectConfig
	breaker *gobreaker.CircuitBreaker[minio.UploadInfo]

	bucketReady atomic.Bool
}

// NewObjectSink creates the sink. No network call is made until the first write.
func NewObjectSink(cfg ObjectConfig) (*ObjectSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("object sink requires endpoint and bucket")
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = time.Minute
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	s := &ObjectSink{client: client, cfg: cfg}
	s.breaker = gobreaker.NewCircuitBreaker[minio.UploadInfo](gobreaker.Settings{
		Name:    "object-sink",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Object sink circuit breaker state changed")
		},
	})
	return s, nil
}

// Name implements Sink.
func (s *ObjectSink) Name() string { return NameObject }

// BreakerState returns the current circuit breaker state.
func (s *ObjectSink) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// Key returns the object key an artifact name maps to.
func (s *ObjectSink) Key(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

// ensureBucket creates the bucket on first use.
func (s *ObjectSink) ensureBucket(ctx context.Context) error {
	if s.bucketReady.Load() {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.cfg.Bucket, err)
		}
		logging.Info().Str("bucket", s.cfg.Bucket).Msg("Object sink bucket created")
	}

	s.bucketReady.Store(true)
	return nil
}

// WriteArtifact implements Sink.
func (s *ObjectSink) WriteArtifact(ctx context.Context, name string, data []byte) (Location, error) {
	key := s.Key(name)

	info, err := s.breaker.Execute(func() (minio.UploadInfo, error) {
		if err := s.ensureBucket(ctx); err != nil {
			return minio.UploadInfo{}, err
		}
		return s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
	})
	if err != nil {
		return Location{}, fmt.Errorf("upload %s: %w", key, err)
	}

	logging.Debug().
		Str("bucket", info.Bucket).
		Str("key", info.Key).
		Str("etag", info.ETag).
		Int64("size", info.Size).
		Msg("Artifact uploaded")
	return Location{Sink: NameObject, URI: ObjectScheme + s.cfg.Bucket + "/" + key}, nil
}

// ReadArtifact implements Source. The handle may be an s3://bucket/key URI or
// a bare key in the configured bucket.
func (s *ObjectSink) ReadArtifact(ctx context.Context, handle string) ([]byte, error) {
	bucket, key, err := s.parseHandle(handle)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(handle, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(handle, err)
	}
	return data, nil
}

// RemoveArtifact deletes an uploaded artifact.
func (s *ObjectSink) RemoveArtifact(ctx context.Context, handle string) error {
	bucket, key, err := s.parseHandle(handle)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError(handle, err)
	}
	return nil
}

func (s *ObjectSink) parseHandle(handle string) (bucket, key string, err error) {
	if !strings.HasPrefix(handle, ObjectScheme) {
		return s.cfg.Bucket, s.Key(handle), nil
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(handle, ObjectScheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object handle %q", handle)
	}
	return bucket, key, nil
}

// mapError turns NoSuchKey into ErrNotFound. GetObject is lazy, so the
// error usually surfaces on the first read.
func (s *ObjectSink) mapError(handle string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return fmt.Errorf("read %s: %w", handle, err)
}
