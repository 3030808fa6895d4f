// Package notestore persists finished notes under generated identifiers.
//
// Every backend satisfies the same contract: Save returns a fresh id and
// fails only on backend I/O errors; Get reports ok=false for ids that are
// malformed for the backend or were never saved, without telling the two
// apart. Notes are never updated or deleted.
package notestore

import (
	"context"
	"io"
)

type Store interface {
	Save(ctx context.Context, note string) (string, error)
	Get(ctx context.Context, id string) (string, bool, error)
}

// Backend is a Store that owns a connection or file handle.
type Backend interface {
	Store
	io.Closer
}
