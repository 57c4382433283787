// Package storage contains the S3-compatible object store used for item
// attachments. Implementations rely on streaming I/O only and never touch
// local disk.
package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions define optional parameters for uploading objects. Size should be
// the exact number of bytes if known; set -1 to let the backend chunk.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStore is the object-storage collaborator. Safe for concurrent use.
type ObjectStore interface {
	// Put uploads an object under the given key from the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading the object without
	// credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
