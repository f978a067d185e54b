// Package credentials implements the explicit-credential tier of the
// OCI driver's auth chain (spec.md §4.4.1 step 1: "if explicit
// username/password is configured, use Basic"). Consulting the host's
// secret store (step 2) is out of scope for implementation (spec.md
// §1); a Static helper that never matches simply falls through to the
// driver's own anonymous fallback (step 3).
package credentials

import (
	"context"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Static is a CredentialHelper backed by a single statically configured
// registry/username/password triple, as set via WKG_OCI_USERNAME/
// WKG_OCI_PASSWORD (spec.md §6) against the registry named by
// WKG_REGISTRY or --registry.
type Static struct {
	registry           values.Registry
	username, password string
}

// NewStatic constructs a Static helper. If username or password is
// empty, Get always reports ok=false.
func NewStatic(registry values.Registry, username, password string) *Static {
	return &Static{registry: registry, username: username, password: password}
}

var _ ports.CredentialHelper = (*Static)(nil)

// Get returns the configured credential if registry matches the one
// it was configured for.
func (s *Static) Get(ctx context.Context, registry values.Registry) (string, string, bool, error) {
	if s.username == "" || s.password == "" {
		return "", "", false, nil
	}
	if !registry.Equals(s.registry) {
		return "", "", false, nil
	}
	return s.username, s.password, true, nil
}
