// Package lockfile implements the LockFileStore/LockFileHandle ports
// (spec.md §4.8) over an advisory OS file lock (`github.com/gofrs/flock`,
// which wraps flock(2) on Unix and LockFileEx on Windows) and a
// preamble-commented TOML body (`github.com/pelletier/go-toml/v2`).
package lockfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
)

// DefaultFileName is the lock file's conventional name, written in the
// current working directory alongside the package manifest.
const DefaultFileName = "wkg.lock"

// preamble is written verbatim before the TOML body on every write
// (spec.md §4.8's "fixed preamble comment").
const preamble = "" +
	"# This file is automatically generated by wkg.\n" +
	"# It is not intended for manual editing.\n"

// lockRetryInterval is how often a blocking Open* retries lock
// acquisition while honoring ctx cancellation; flock itself has no
// asynchronous form, so this is the only suspension point available to
// a blocked acquisition attempt beyond the first.
const lockRetryInterval = 50 * time.Millisecond

// onNFSFunc is swapped out in tests to exercise the NFS no-lock path
// without requiring an actual NFS mount.
var onNFSFunc = onNFS

// Store is a filesystem-backed LockFileStore.
type Store struct{}

// New constructs a lock file store.
func New() *Store {
	return &Store{}
}

var _ ports.LockFileStore = (*Store)(nil)

func (s *Store) OpenShared(ctx context.Context, path string) (ports.LockFileHandle, error) {
	h, _, err := s.open(ctx, path, false, false)
	return h, err
}

func (s *Store) OpenExclusive(ctx context.Context, path string) (ports.LockFileHandle, error) {
	h, _, err := s.open(ctx, path, true, false)
	return h, err
}

func (s *Store) TryOpenShared(ctx context.Context, path string) (ports.LockFileHandle, bool, error) {
	return s.open(ctx, path, false, true)
}

func (s *Store) TryOpenExclusive(ctx context.Context, path string) (ports.LockFileHandle, bool, error) {
	return s.open(ctx, path, true, true)
}

func (s *Store) open(ctx context.Context, path string, exclusive, tryOnly bool) (ports.LockFileHandle, bool, error) {
	if exclusive {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, false, &domainservices.LockFileError{Path: path, Err: err}
		}
	}

	flags := os.O_RDONLY
	if exclusive {
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, false, &domainservices.LockFileError{Path: path, Err: err}
	}

	var fl *flock.Flock
	if onNFSFunc(path) {
		// spec.md §4.8/§9: on NFS-mounted paths, silently skip
		// locking rather than attempt flock against a filesystem
		// that may not honor it consistently across clients.
		fl = nil
	} else {
		fl = flock.New(path)
	}
	ok, err := acquireLock(ctx, fl, exclusive, tryOnly)
	if err != nil {
		f.Close()
		return nil, false, &domainservices.LockFileError{Path: path, Err: err}
	}
	if !ok {
		f.Close()
		return nil, false, nil
	}

	canonical := path
	if abs, err := filepath.Abs(path); err == nil {
		canonical = abs
	}

	return &Handle{file: f, flock: fl, path: canonical}, true, nil
}

// acquireLock attempts to take fl in the requested mode. fl is nil when
// the path was already identified as NFS-mounted, in which case locking
// is skipped entirely and acquisition reports success (spec.md §4.8/§9).
// A try-only request returns immediately on contention; a blocking
// request retries at lockRetryInterval until acquired or ctx is done,
// since flock(2) has no async form to suspend on directly. An error
// classified as "locking unsupported by this filesystem" is likewise
// treated as success-without-a-real-lock rather than surfaced, distinct
// from "would block" contention which try-only callers must still see.
func acquireLock(ctx context.Context, fl *flock.Flock, exclusive, tryOnly bool) (bool, error) {
	if fl == nil {
		return true, nil
	}

	tryAcquire := fl.TryRLock
	if exclusive {
		tryAcquire = fl.TryLock
	}

	if tryOnly {
		ok, err := tryAcquire()
		if err != nil && lockUnsupportedErr(err) {
			return true, nil
		}
		return ok, err
	}

	for {
		ok, err := tryAcquire()
		if err != nil {
			if lockUnsupportedErr(err) {
				return true, nil
			}
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// Handle is an open, locked wkg.lock file.
type Handle struct {
	file  *os.File
	flock *flock.Flock
	path  string
}

var _ ports.LockFileHandle = (*Handle)(nil)

// Load reads and parses the lock file's current contents, verifying
// version == 1 and rewinding the handle so a subsequent Write starts
// clean.
func (h *Handle) Load(ctx context.Context) (*entities.LockFile, error) {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, &domainservices.LockFileError{Path: h.path, Err: err}
	}

	data, err := io.ReadAll(h.file)
	if err != nil {
		return nil, &domainservices.LockFileError{Path: h.path, Err: err}
	}

	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, &domainservices.LockFileError{Path: h.path, Err: err}
	}

	if len(data) == 0 {
		return entities.NewLockFile(), nil
	}

	var lf entities.LockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, &domainservices.LockFileError{Path: h.path, Err: fmt.Errorf("parsing: %w", err)}
	}
	if lf.Version != entities.LockFileVersion {
		return nil, &entities.UnsupportedLockFileVersionError{Got: lf.Version, Want: entities.LockFileVersion}
	}
	return &lf, nil
}

// Write rewinds, truncates, and rewrites the lock file with the
// preamble plus lf's serialized TOML, then fsyncs.
func (h *Handle) Write(ctx context.Context, lf *entities.LockFile) error {
	body, err := toml.Marshal(lf)
	if err != nil {
		return &domainservices.LockFileError{Path: h.path, Err: fmt.Errorf("encoding: %w", err)}
	}

	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return &domainservices.LockFileError{Path: h.path, Err: err}
	}
	if err := h.file.Truncate(0); err != nil {
		return &domainservices.LockFileError{Path: h.path, Err: err}
	}

	var buf bytes.Buffer
	buf.WriteString(preamble)
	buf.Write(body)

	if _, err := h.file.Write(buf.Bytes()); err != nil {
		return &domainservices.LockFileError{Path: h.path, Err: err}
	}
	if err := h.file.Sync(); err != nil {
		return &domainservices.LockFileError{Path: h.path, Err: err}
	}
	return nil
}

// Path returns the canonicalized path this handle was opened against.
func (h *Handle) Path() string {
	return h.path
}

// Close releases the advisory lock and the underlying file descriptor.
// flock is nil when the path was NFS-mounted and locking was skipped at
// open time, so there is nothing to unlock.
func (h *Handle) Close() error {
	var unlockErr error
	if h.flock != nil {
		unlockErr = h.flock.Unlock()
	}
	closeErr := h.file.Close()
	if unlockErr != nil {
		return &domainservices.LockFileError{Path: h.path, Err: unlockErr}
	}
	if closeErr != nil {
		return &domainservices.LockFileError{Path: h.path, Err: closeErr}
	}
	return nil
}
