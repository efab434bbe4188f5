package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("staged video not found")
	ErrInvalidKey = errors.New("invalid staged video key")
)

// Store holds uploaded video files between the generate and upload steps.
// Keys are opaque, generated by Save, and safe to hand back to clients.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// NewKey derives a unique key from the client's file name, keeping only its
// extension.
func NewKey(name string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(name))
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
