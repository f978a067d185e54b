package ports

import (
	"context"
	"io"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Cache is the Local Cache port (spec.md §4.5): a filesystem store of
// content blobs keyed by digest and release records keyed by
// package+version.
type Cache interface {
	// PutData writes stream to the blob keyed by digest, creating or
	// overwriting it.
	PutData(ctx context.Context, digest values.ContentDigest, stream io.Reader) error

	// GetData returns a reader over the blob keyed by digest, or ok=false
	// if it hasn't been cached.
	GetData(ctx context.Context, digest values.ContentDigest) (data io.ReadCloser, ok bool, err error)

	// PutRelease records a release's metadata for pkg@version.
	PutRelease(ctx context.Context, pkg values.PackageRef, release entities.Release) error

	// GetRelease returns the previously recorded release for pkg@version,
	// or ok=false if nothing has been cached for it.
	GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (release entities.Release, ok bool, err error)
}
