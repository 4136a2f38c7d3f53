// Package storage archives original uploaded documents in an S3-compatible
// object store. Archival is best-effort from the pipeline's point of view:
// the validation flow continues even when the store is unavailable.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client interface. Methods use
// context and streaming readers; no local disk is involved.
type Storage interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key. Used to roll back an archive whose
	// registration row failed to persist.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// archived document without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
