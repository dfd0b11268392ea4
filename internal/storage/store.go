// Package storage keeps uploaded original images on the local filesystem so
// they can be re-transformed and referenced from NFT metadata.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidPath is returned for paths that are absolute or escape the root.
var ErrInvalidPath = errors.New("invalid storage path")

// Store defines the interface for a file storage backend.
type Store interface {
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
