package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

func TestUploadImage_UnsupportedContentType(t *testing.T) {
	svc := &Service{bucketName: DefaultBucket, publicURL: "http://localhost:9000"}

	_, err := svc.UploadImage(context.Background(), &UploadImageInput{
		Reader:      strings.NewReader("not an image"),
		Size:        12,
		ContentType: "application/pdf",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestDeleteByURL_ForeignURLIgnored(t *testing.T) {
	svc := &Service{bucketName: DefaultBucket, publicURL: "http://localhost:9000"}

	// Points at another host and bucket entirely; nothing to delete here.
	err := svc.DeleteByURL(context.Background(), "https://cdn.example.com/other-bucket/image.jpg")

	assert.NoError(t, err)
}

func TestDeleteByURL_EmptyObjectNameIgnored(t *testing.T) {
	svc := &Service{bucketName: DefaultBucket, publicURL: "http://localhost:9000"}

	err := svc.DeleteByURL(context.Background(), "http://localhost:9000/"+DefaultBucket+"/")

	assert.NoError(t, err)
}

func TestDeleteByURL_MalformedURL(t *testing.T) {
	svc := &Service{bucketName: DefaultBucket, publicURL: "http://localhost:9000"}

	err := svc.DeleteByURL(context.Background(), "http://bad url with spaces/x")

	assert.Error(t, err)
}

func TestExtensionMapping(t *testing.T) {
	assert.Equal(t, "jpg", extensionByContentType["image/jpeg"])
	assert.Equal(t, "png", extensionByContentType["image/png"])
	assert.Equal(t, "webp", extensionByContentType["image/webp"])
	assert.Equal(t, "gif", extensionByContentType["image/gif"])
}
