// Package ports defines the interfaces the application layer depends on
// but does not implement: backend drivers, the local cache, the lock
// file store, and the external collaborators spec.md treats as
// out-of-scope (credential helper, dependency decoder). Infrastructure
// packages provide the concrete adapters.
package ports

import (
	"context"
	"io"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// PackageLoader is the read half of a backend driver's capability set
// (spec.md §4.4): list versions, fetch release metadata, and stream
// content with or without digest validation.
type PackageLoader interface {
	// ListAllVersions returns every version this backend knows about for
	// pkg, including yanked ones.
	ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error)

	// GetRelease returns the release metadata for one version.
	GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error)

	// StreamContentUnvalidated returns the content bytes for a release
	// without checking them against the release's digest.
	StreamContentUnvalidated(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error)
}

// PackagePublisher is the write half of a backend driver's capability set.
type PackagePublisher interface {
	// Publish uploads data as pkg@version. The built-in drivers read data
	// once, from its current position to the end.
	Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error
}

// Driver is the full capability set a backend exposes: OCI, SignedLog, and
// LocalFS all implement it (spec.md §4.4).
type Driver interface {
	PackageLoader
	PackagePublisher
}

// CredentialHelper reads OCI registry credentials from the host's secret
// store. Out of scope for implementation per spec.md §1 — this is a pure
// port; the infrastructure adapter only has to satisfy the interface for
// the OCI driver's auth chain to compile and be testable against a fake.
type CredentialHelper interface {
	// Get returns the username/password pair configured for a registry
	// host, or ok=false if nothing is configured there.
	Get(ctx context.Context, registry values.Registry) (username, password string, ok bool, err error)
}

// KeyringSigner delegates signed-log publish-record signing to the
// host's keyring when no private key is configured for the registry
// (spec.md §4.4.2's "sign with the configured private key if present,
// else delegate to the host keyring"). Out of scope for implementation
// per spec.md §1 — a pure port, like CredentialHelper.
type KeyringSigner interface {
	// Sign returns a detached signature over content and the PEM-encoded
	// public key it verifies against.
	Sign(ctx context.Context, content []byte) (signature, publicKeyPEM []byte, err error)
}

// DependencyDecoder decodes a component binary or a local package
// directory into its declared dependency edges (entities.DecodedDependency),
// without requiring a full interface-definition (WIT) parser. The
// interface-definition parser itself is out of scope for implementation
// per spec.md §1; this port only needs the shape described in §4.7.
type DependencyDecoder interface {
	Decode(ctx context.Context, content io.Reader) (entities.DecodedDependency, error)
	DecodeLocal(ctx context.Context, path string) (entities.DecodedDependency, error)
}
