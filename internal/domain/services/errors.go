// Package services holds domain logic that operates purely on values and
// entities: the backend-protocol selection chain and the foreign-
// dependency graph's cycle detection. Neither talks to the network or
// disk; that belongs to application/services and infrastructure.
package services

import (
	"fmt"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Error taxonomy for the remaining kinds from spec.md §7 not already
// covered by a domain/entities struct error: ConfigError, LockFileError,
// PackageNotFoundError, CredentialError, RegistryError, CacheError, and
// the two metadata/manifest parse failures.

// ConfigError indicates the configuration file was not readable or did
// not parse.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("loading config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LockFileError indicates a wkg.lock file could not be opened, locked,
// read, or written.
type LockFileError struct {
	Path string
	Err  error
}

func (e *LockFileError) Error() string {
	return fmt.Sprintf("lock file %s: %v", e.Path, e.Err)
}

func (e *LockFileError) Unwrap() error { return e.Err }

// PackageNotFoundError indicates a backend has no knowledge of a package
// at all (distinct from VersionNotFoundError, which means the package
// exists but no release satisfies a requirement).
type PackageNotFoundError struct {
	Package  values.PackageRef
	Registry values.Registry
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found on registry %s", e.Package, e.Registry)
}

// CredentialError indicates the client could not obtain or validate
// authentication for a registry.
type CredentialError struct {
	Registry values.Registry
	Err      error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials for %s: %v", e.Registry, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// RegistryError wraps any other failure surfaced by a backend driver or
// its transport, including a digest mismatch detected during resolution
// (spec.md §4.7 step 5, Testable Property 8) which carries both digests.
type RegistryError struct {
	Registry values.Registry
	Op       string
	Err      error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s: %s: %v", e.Registry, e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// CacheError indicates local cache I/O failed, or an operation was
// attempted against a cache in read-only (offline) mode.
type CacheError struct {
	Reason string
	Err    error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cache: %s", e.Reason)
}

func (e *CacheError) Unwrap() error { return e.Err }

// InvalidRegistryMetadataError indicates a registry's metadata document
// was malformed, or resolved to a disallowed backend choice (only local
// configuration, never fetched metadata, may select the localfs backend;
// spec.md §4.4.4 step 5).
type InvalidRegistryMetadataError struct {
	Registry values.Registry
	Reason   string
}

func (e *InvalidRegistryMetadataError) Error() string {
	return fmt.Sprintf("registry %s metadata: %s", e.Registry, e.Reason)
}

// InvalidPackageManifestError indicates a fetched OCI manifest did not
// parse as expected (e.g. had no layers).
type InvalidPackageManifestError struct {
	Package values.PackageRef
	Reason  string
}

func (e *InvalidPackageManifestError) Error() string {
	return fmt.Sprintf("invalid manifest for %s: %s", e.Package, e.Reason)
}

// InvalidComponentError indicates a fetched artifact did not parse as a
// component binary.
type InvalidComponentError struct {
	Package values.PackageRef
	Reason  string
}

func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("invalid component %s: %s", e.Package, e.Reason)
}
