// Package storage holds the file bytes behind standard document records.
// Backends stream content and never stage it on local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrPresignUnsupported is returned by backends that cannot hand out download URLs.
	ErrPresignUnsupported = errors.New("presigned urls are not supported by this storage backend")
)

// PutObjectOptions describes an upload. Size is the exact byte count, or -1
// when unknown and the backend should chunk.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	// Metadata values must be ASCII; callers escape file names before storing them.
	Metadata map[string]string
}

// ObjectInfo is what a backend reports about a stored file.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage keeps document files under opaque keys such as documents/<id>.pdf.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns ErrObjectNotFound for unknown keys. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete is idempotent; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads the object without credentials until expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
