package application

import (
	"context"
	"io"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

// ProductIndexer mirrors products into the search index.
type ProductIndexer interface {
	Index(ctx context.Context, p *entity.Product) error
	Remove(ctx context.Context, productID int64) error
}

// ImageStore persists an uploaded object and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// JobPublisher enqueues a JSON job for an out-of-process worker.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ProductSuggester returns product name completions for a prefix.
type ProductSuggester interface {
	Suggest(ctx context.Context, prefix string, size int) ([]string, error)
}
