package storage

import (
	"context"
	"io"
)

// BlobStore persists raw payload bytes under opaque keys. Save returns the
// location callers must present to Open later; the location format belongs
// to the backend and is stored verbatim on the file record.
type BlobStore interface {
	Save(ctx context.Context, key string, content io.Reader) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Remove(ctx context.Context, location string) error
}
