// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinioImage is the MinIO server image used for object sink tests
	DefaultMinioImage = "minio/minio:RELEASE.2025-04-22T22-12-26Z"

	// DefaultMinioPort is the S3 API port
	DefaultMinioPort = "9000"

	// DefaultMinioUser and DefaultMinioPassword are the root credentials
	DefaultMinioUser     = "minioadmin"
	DefaultMinioPassword = "minioadmin"
)

// MinioContainer represents a running MinIO server for testing.
type MinioContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

// MinioOption configures the MinIO container.
type MinioOption func(*minioConfig)

type minioConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMinioImage sets a custom MinIO Docker image.
func WithMinioImage(image string) MinioOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithStartTimeout sets the timeout for waiting for MinIO to start.
func WithStartTimeout(timeout time.Duration) MinioOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinioContainer creates and starts a MinIO server.
//
// Example:
//
//	minio, err := testinfra.NewMinioContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	s, err := sink.NewObjectSink(sink.ObjectConfig{
//	    Endpoint:  minio.Endpoint,
//	    AccessKey: minio.AccessKey,
//	    SecretKey: minio.SecretKey,
//	    Bucket:    "pinkdiary",
//	})
func NewMinioContainer(ctx context.Context, opts ...MinioOption) (*MinioContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinioImage,
		startTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinioPort + "/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultMinioUser,
			"MINIO_ROOT_PASSWORD": DefaultMinioPassword,
		},
		Cmd: []string{"server", "/data"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinioPort+"/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinioPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultMinioPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MinioContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("%s:%s", host, port.Port()),
		AccessKey: DefaultMinioUser,
		SecretKey: DefaultMinioPassword,
	}, nil
}
