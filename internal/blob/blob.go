// Package blob provides object storage for invoice PDFs and media
// behind a small Store interface, with filesystem, in-memory and
// S3-compatible drivers.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no object exists at the given path
var ErrNotFound = errors.New("blob not found")

// Store is the object storage contract. Put returns a URL that can be
// handed to clients (or stored as serverPdfUrl).
type Store interface {
	Put(ctx context.Context, container, path string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, container, path string) ([]byte, string, error)
	Delete(ctx context.Context, container, path string) error
}

// Config selects and parameterizes a driver
type Config struct {
	Driver string // fs | s3 | memory (default fs)

	// fs driver
	FSRoot  string
	BaseURL string // optional public base URL for constructed object URLs

	// s3 driver
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, for MinIO and the like
	S3PathStyle bool
}

// Open constructs a Store for the configured driver
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "fs"
	}
	switch driver {
	case "fs":
		return NewFilesystem(cfg.FSRoot, cfg.BaseURL)
	case "s3":
		return NewS3(ctx, cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
