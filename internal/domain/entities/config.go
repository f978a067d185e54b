package entities

import (
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// RegistryConfig holds the per-registry settings a user can set in the
// Configuration Store: which backend protocol to speak, and that
// protocol's own configuration blob (OCI registry path rewriting,
// signed-log transparency-log URL, local filesystem root, credential
// helper selection). Protocol, if set, selects the backend ahead of the
// registry's advertised preference, and the values set in the typed
// protocol block override, field by field, the ones the driver would
// otherwise take from the advertised RegistryMetadata (spec.md §4.2's
// "explicit configuration wins over registry-advertised metadata" rule).
type RegistryConfig struct {
	Protocol  string                   `toml:"protocol,omitempty"`
	OCI       *OCIRegistryConfig       `toml:"oci,omitempty"`
	SignedLog *SignedLogRegistryConfig `toml:"signedLog,omitempty"`
	LocalFS   *LocalFSRegistryConfig   `toml:"localFs,omitempty"`
}

// OCIRegistryConfig configures the OCI backend driver for one registry.
type OCIRegistryConfig struct {
	// Registry overrides the host:port the OCI client connects to; if
	// empty, the Registry value this config is keyed under is used.
	Registry string `toml:"registry,omitempty"`
	// NamespacePrefix is prepended to the OCI repository path derived from
	// a package's namespace and name, e.g. "wasm-pkgs/" turns
	// "wasi:http" into the repository "wasm-pkgs/wasi/http".
	NamespacePrefix string `toml:"namespacePrefix,omitempty"`
	// Insecure talks plain HTTP to the registry instead of HTTPS, for
	// local/dev registries (WKG_OCI_INSECURE, spec.md §6).
	Insecure bool `toml:"insecure,omitempty"`
}

// SignedLogRegistryConfig configures the signed transparency-log backend
// driver for one registry.
type SignedLogRegistryConfig struct {
	URL string `toml:"url,omitempty"`
	// KeyPath is an optional path to a private key used to sign publish
	// records. If empty, the driver delegates signing to the host
	// keyring via the KeyringSigner port when one is wired in, and
	// otherwise submits publish records unsigned.
	KeyPath string `toml:"keyPath,omitempty"`
}

// LocalFSRegistryConfig configures the local filesystem backend driver,
// used for offline development and test fixtures.
type LocalFSRegistryConfig struct {
	Root string `toml:"root,omitempty"`
}

// defaultFallbackNamespaceRegistries seeds Config.FallbackRegistry with
// the two built-in namespace fallbacks every installation ships with
// (spec.md §3's "fallback_namespace_registries", mirroring
// wasm-pkg-common's DEFAULT_FALLBACK_NAMESPACE_REGISTRIES): packages in
// the "wasi" or "ba" namespace resolve to bytecodealliance.org even
// with no other configuration present, matching the upstream tool's
// out-of-the-box behavior.
func defaultFallbackNamespaceRegistries() map[values.Label]values.Registry {
	bytecodeAlliance := values.MustNewRegistry("bytecodealliance.org")
	return map[values.Label]values.Registry{
		values.MustNewLabel("wasi"): bytecodeAlliance,
		values.MustNewLabel("ba"):   bytecodeAlliance,
	}
}

// Config is the Configuration Store aggregate (spec.md §4.2): it resolves
// a package reference to the registry that should serve it, in strict
// priority order:
//
//  1. An exact per-package override (Config.PackageOverrides).
//  2. A per-namespace default registry (Config.Namespaces).
//  3. The global default registry (Config.DefaultRegistry).
//  4. A namespace-keyed built-in fallback (Config.FallbackRegistry),
//     seeded with the defaults above and overridable per namespace;
//     absent a match there either, resolution fails with
//     RegistryNotConfiguredError.
type Config struct {
	DefaultRegistry  *values.Registry                 `toml:"defaultRegistry,omitempty"`
	FallbackRegistry map[values.Label]values.Registry `toml:"-"`
	Namespaces       map[string]values.Registry        `toml:"namespaceRegistries,omitempty"`
	PackageOverrides map[string]values.Registry         `toml:"packageRegistryOverrides,omitempty"`
	Registries       map[string]RegistryConfig         `toml:"registry,omitempty"`
}

// NewConfig returns a Configuration Store pre-populated with the
// built-in fallback namespace registries; every other tier starts
// empty, to be filled in from a loaded TOML document or explicit
// setters.
func NewConfig() *Config {
	return &Config{
		Namespaces:       map[string]values.Registry{},
		PackageOverrides: map[string]values.Registry{},
		Registries:       map[string]RegistryConfig{},
		FallbackRegistry: defaultFallbackNamespaceRegistries(),
	}
}

// ResolveRegistry implements the four-tier resolution order for a
// package reference. The returned bool is false only when every tier is
// exhausted without a match.
func (c *Config) ResolveRegistry(ref values.PackageRef) (values.Registry, bool) {
	if r, ok := c.PackageOverrides[ref.String()]; ok {
		return r, true
	}
	if r, ok := c.Namespaces[ref.Namespace().String()]; ok {
		return r, true
	}
	if c.DefaultRegistry != nil {
		return *c.DefaultRegistry, true
	}
	if r, ok := c.FallbackRegistry[ref.Namespace()]; ok {
		return r, true
	}
	return values.Registry{}, false
}

// SetFallbackNamespaceRegistry overrides (or adds) a built-in fallback
// entry for namespace, merging over rather than replacing the
// defaults NewConfig seeds (spec.md §3: user configuration merges over
// the built-in fallback map, it doesn't have to fully replace it).
func (c *Config) SetFallbackNamespaceRegistry(namespace values.Label, registry values.Registry) {
	if c.FallbackRegistry == nil {
		c.FallbackRegistry = map[values.Label]values.Registry{}
	}
	c.FallbackRegistry[namespace] = registry
}

// RegistryConfigFor returns the explicit RegistryConfig set for a
// registry, if any. Absence is not an error: a registry with no explicit
// config is driven entirely by its advertised RegistryMetadata.
func (c *Config) RegistryConfigFor(r values.Registry) (RegistryConfig, bool) {
	rc, ok := c.Registries[r.String()]
	return rc, ok
}

// SetPackageOverride pins a single package to a specific registry,
// bypassing namespace and default resolution.
func (c *Config) SetPackageOverride(ref values.PackageRef, registry values.Registry) {
	if c.PackageOverrides == nil {
		c.PackageOverrides = map[string]values.Registry{}
	}
	c.PackageOverrides[ref.String()] = registry
}

// SetNamespaceRegistry sets the default registry for all packages in a
// namespace.
func (c *Config) SetNamespaceRegistry(namespace values.Label, registry values.Registry) {
	if c.Namespaces == nil {
		c.Namespaces = map[string]values.Registry{}
	}
	c.Namespaces[namespace.String()] = registry
}
