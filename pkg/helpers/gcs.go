package helpers

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient uses the service account file at credsPath, or ADC when it is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// ImageCacheControl is set on uploaded product images. Object names are
// unique per upload so the content never changes under the same URL.
const ImageCacheControl = "public, max-age=31536000, immutable"

// UploadObject streams r into bucket/objectPath and returns the object's public URL.
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = ImageCacheControl
	w.ChunkSize = 0 // single request; images are capped well below the chunk size
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", objectPath, err)
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL is the storage.googleapis.com address of an object in a public-read bucket.
func PublicURL(bucket, objectPath string) string {
	segs := strings.Split(objectPath, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.Join(segs, "/"))
}
