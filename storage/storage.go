package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Object is a single write to a backend.
type Object struct {
	// Path is the slash-separated key relative to the backend root.
	Path        string
	ContentType string
	// Size is the content length, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put writes an object, replacing any previous content at its path.
	Put(ctx context.Context, obj Object) error

	// Get returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
