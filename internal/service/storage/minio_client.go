package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerHalfOpen
	CircuitBreakerOpen
)

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxFailures  int
	Timeout      time.Duration
	ResetTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns default circuit breaker settings
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:  5,
		Timeout:      10 * time.Second,
		ResetTimeout: 30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// MinioClient wraps the MinIO client with a per-operation timeout and
// a simple failure-count circuit breaker
type MinioClient struct {
	client      *minio.Client
	config      *CircuitBreakerConfig
	state       CircuitBreakerState
	failures    int
	lastFailure time.Time
}

// NewMinioClient creates a new MinIO client with resilience features
func NewMinioClient(endpoint, accessKey, secretKey string, secure bool) (*MinioClient, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioClient{
		client: minioClient,
		config: DefaultCircuitBreakerConfig(),
		state:  CircuitBreakerClosed,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet
func (c *MinioClient) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	logger.Info("Bucket created", zap.String("bucket", bucketName))
	return nil
}

// UploadFile uploads an object, guarded by the circuit breaker
func (c *MinioClient) UploadFile(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	var info minio.UploadInfo
	err := c.execute(ctx, func(opCtx context.Context) error {
		var err error
		info, err = c.client.PutObject(opCtx, bucketName, objectName, reader, size, opts)
		return err
	})
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("upload failed: %w", err)
	}
	return info, nil
}

// GetFile fetches an object, guarded by the circuit breaker
func (c *MinioClient) GetFile(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	var obj *minio.Object
	err := c.execute(ctx, func(opCtx context.Context) error {
		var err error
		obj, err = c.client.GetObject(opCtx, bucketName, objectName, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return obj, nil
}

// DeleteFile removes an object, guarded by the circuit breaker
func (c *MinioClient) DeleteFile(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	err := c.execute(ctx, func(opCtx context.Context) error {
		return c.client.RemoveObject(opCtx, bucketName, objectName, opts)
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// execute runs one operation through the breaker with the configured
// timeout applied on top of the caller's context
func (c *MinioClient) execute(ctx context.Context, op func(context.Context) error) error {
	if c.state == CircuitBreakerOpen {
		if time.Since(c.lastFailure) < c.config.ResetTimeout {
			return ErrCircuitOpen
		}
		c.state = CircuitBreakerHalfOpen
	}

	opCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	err := op(opCtx)
	if err == nil {
		c.onSuccess()
		return nil
	}

	c.onFailure(err)
	if c.failures >= c.config.MaxFailures {
		c.state = CircuitBreakerOpen
		logger.Warn("MinIO circuit breaker opened",
			zap.Int("failures", c.failures))
	}
	return err
}

func (c *MinioClient) onSuccess() {
	c.failures = 0
	c.state = CircuitBreakerClosed
	c.lastFailure = time.Time{}
}

func (c *MinioClient) onFailure(err error) {
	c.failures++
	c.lastFailure = time.Now()
	logger.Warn("MinIO operation failed",
		zap.Int("failures", c.failures),
		zap.Error(err))
}

// ResetCircuitBreaker resets the circuit breaker
func (c *MinioClient) ResetCircuitBreaker() {
	c.state = CircuitBreakerClosed
	c.failures = 0
	c.lastFailure = time.Time{}
}

// GetState returns the current circuit breaker state
func (c *MinioClient) GetState() CircuitBreakerState {
	return c.state
}
