package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Read when the key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo represents metadata about a stored object.
type FileInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is where exported fixture snapshots are written.
type Storage interface {
	// Write stores content from the reader with the given key.
	// The size parameter is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// DeletePrefix removes all content with keys starting with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// List returns information about all objects with keys starting with the given prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL for accessing the content.
	// For local storage, this returns the key as a path.
	// For S3, this returns a presigned URL valid for the specified duration.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "local", "s3"
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// New creates the backend named by cfg.Driver. The "none" driver returns a nil
// Storage, which callers treat as export being disabled.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return NewLocalStorage(cfg.Local)
	}
}
