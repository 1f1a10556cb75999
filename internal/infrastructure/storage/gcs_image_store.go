package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"

	"github.com/trade-ham/marketplace-api/pkg/helpers"
)

// GCSImageStore uploads product images to a Cloud Storage bucket.
type GCSImageStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSImageStore(client *storage.Client, bucket string) *GCSImageStore {
	return &GCSImageStore{Client: client, Bucket: bucket}
}

func (s *GCSImageStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	return helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, contentType, r)
}
