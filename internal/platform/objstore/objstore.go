// Package objstore defines the durable storage contract for uploaded videos
// and its local filesystem, GCS and MinIO backends.
package objstore

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Open and Remove when the key has no object.
var ErrObjectNotFound = errors.New("object not found")

// Writer receives an object's bytes. Exactly one of Commit or Abort must be
// called. Abort discards everything written so far. A Commit that returns an
// error leaves no new object behind and does not disturb an object already
// stored under the key, so callers have nothing to clean up.
type Writer interface {
	io.Writer
	Commit() error
	Abort() error
}

type Store interface {
	// Backend names the implementation ("local", "gcs", "minio").
	Backend() string
	// Create opens a writer for key, replacing any existing object on Commit.
	Create(ctx context.Context, key string) (Writer, error)
	// Open returns a reader for key and its size in bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
	// List returns every key currently held by the store.
	List(ctx context.Context) ([]string, error)
	// Path is the location recorded in metadata rows for key.
	Path(key string) string
}
