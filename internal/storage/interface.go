package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Retrieve when nothing is stored under a name.
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for the analysis archive
type StorageInterface interface {
	Store(ctx context.Context, filename string, data []byte) error
	Retrieve(ctx context.Context, filename string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, filename string) error
}
