package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

// DefaultBucket holds crop listing images
const DefaultBucket = "produce-images"

var extensionByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Service stores listing images in MinIO and hands back public URLs
type Service struct {
	client     *MinioClient
	bucketName string
	publicURL  string // base URL objects are served from
}

// NewService creates a new storage service and ensures the bucket exists
func NewService(client *MinioClient, bucketName, publicURL string) (*Service, error) {
	if bucketName == "" {
		bucketName = DefaultBucket
	}

	if err := client.EnsureBucket(context.Background(), bucketName); err != nil {
		return nil, err
	}

	return &Service{
		client:     client,
		bucketName: bucketName,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}, nil
}

// UploadImageInput contains an image upload
type UploadImageInput struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// UploadImage stores a listing image under a generated object name
// and returns its public URL
func (s *Service) UploadImage(ctx context.Context, input *UploadImageInput) (string, error) {
	ext, ok := extensionByContentType[input.ContentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type: %s", input.ContentType)
	}

	objectName := fmt.Sprintf("produce_%d.%s", time.Now().UnixNano(), ext)

	_, err := s.client.UploadFile(ctx, s.bucketName, objectName, input.Reader, input.Size, minio.PutObjectOptions{
		ContentType: input.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	logger.Debug("Image uploaded",
		zap.String("bucket", s.bucketName),
		zap.String("object", objectName))

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, objectName), nil
}

// DeleteByURL removes the object a public URL points at. URLs outside
// this service's bucket are ignored.
func (s *Service) DeleteByURL(ctx context.Context, imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("invalid image url: %w", err)
	}

	prefix := "/" + s.bucketName + "/"
	idx := strings.Index(parsed.Path, prefix)
	if idx < 0 {
		return nil
	}
	objectName := parsed.Path[idx+len(prefix):]
	if objectName == "" {
		return nil
	}

	if err := s.client.DeleteFile(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}
