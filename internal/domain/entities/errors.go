package entities

import (
	"fmt"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

// IntegrityError indicates the content fetched for a release did not
// match the digest the registry advertised for it.
type IntegrityError struct {
	Package  values.PackageRef
	Expected values.ContentDigest
	Actual   values.ContentDigest
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"integrity check failed for %s: expected %s, got %s",
		e.Package, e.Expected, e.Actual,
	)
}

// VersionNotFoundError indicates no published version of a package
// satisfies the resolver's requirement.
type VersionNotFoundError struct {
	Package     values.PackageRef
	Requirement values.VersionRequirement
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("no version of %s satisfies %s", e.Package, e.Requirement)
}

// RegistryNotConfiguredError indicates Config.ResolveRegistry exhausted
// every resolution tier without finding a registry for a package.
type RegistryNotConfiguredError struct {
	Package values.PackageRef
}

func (e *RegistryNotConfiguredError) Error() string {
	return fmt.Sprintf("no registry configured for package %s", e.Package)
}

// AmbiguousProtocolError indicates a registry advertised more than one
// protocol in its RegistryMetadata and neither the metadata nor the local
// Config picked one.
type AmbiguousProtocolError struct {
	Registry values.Registry
}

func (e *AmbiguousProtocolError) Error() string {
	return fmt.Sprintf("registry %s advertises multiple protocols with no preferred one; configure [registry.%s] protocol explicitly", e.Registry, e.Registry)
}

// UnsupportedProtocolError indicates a registry's resolved protocol has
// no corresponding backend driver in this client.
type UnsupportedProtocolError struct {
	Registry values.Registry
	Protocol string
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("registry %s requested unsupported protocol %q", e.Registry, e.Protocol)
}
