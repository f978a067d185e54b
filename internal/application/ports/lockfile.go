package ports

import (
	"context"

	"github.com/wasmpkg/wkg/internal/domain/entities"
)

// LockFileStore is the Lock File & File Lock port (spec.md §4.8): open a
// lock file under a shared or exclusive advisory OS lock, read it, and
// write it back. The handle returned by an Open* call owns the
// underlying file descriptor and its lock; Close releases both.
type LockFileStore interface {
	// OpenShared blocks until a shared (read) lock is acquired.
	OpenShared(ctx context.Context, path string) (LockFileHandle, error)

	// OpenExclusive blocks until an exclusive (read-write) lock is
	// acquired, creating missing parent directories and an empty lock
	// file if none exists yet.
	OpenExclusive(ctx context.Context, path string) (LockFileHandle, error)

	// TryOpenShared and TryOpenExclusive return ok=false immediately on
	// contention instead of blocking.
	TryOpenShared(ctx context.Context, path string) (handle LockFileHandle, ok bool, err error)
	TryOpenExclusive(ctx context.Context, path string) (handle LockFileHandle, ok bool, err error)
}

// LockFileHandle is an open, locked wkg.lock file.
type LockFileHandle interface {
	// Load reads and parses the lock file's current contents.
	Load(ctx context.Context) (*entities.LockFile, error)

	// Write rewinds, truncates, and rewrites the lock file with lf,
	// fsyncing before returning. Only valid on a handle opened exclusive.
	Write(ctx context.Context, lf *entities.LockFile) error

	// Path returns the canonicalized path this handle was opened against.
	Path() string

	// Close releases the advisory lock and the underlying file
	// descriptor.
	Close() error
}
