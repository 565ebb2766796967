// Package storage keeps uploaded product images on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
//
//	storage.Connect()
//	err := storage.Default().Put(ctx, "products/3f2a….jpg", file, "image/jpeg")
//	url := storage.Default().URL("products/3f2a….jpg")
//
// STORAGE_DISK picks the default disk; "s3" is booted only when S3_BUCKET is
// set.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a path does not exist on the disk.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path. contentType is stored where the driver supports
	// it.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get opens path for reading. The caller closes it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path. A missing file is not an error.
	Delete(ctx context.Context, path string) error

	// URL is the public address of path.
	URL(path string) string
}
