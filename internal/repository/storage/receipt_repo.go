package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptRepository abstracts receipt object storage
type ReceiptRepository interface {
	// Upload stores the object and returns its object path
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	// Delete removes the object
	Delete(ctx context.Context, objectPath string) error
	// GeneratePresignedURL returns a temporary GET URL for the object
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
