// Package oci implements the Driver port (spec.md §4.4.1) against an
// OCI distribution registry using oras-go, following the CNCF TAG
// Runtime guidance for Wasm OCI artifacts: a package version is an OCI
// manifest whose sole layer is the component binary, and tags that
// don't parse as semver are silently ignored rather than surfaced as
// errors.
package oci

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"oras.land/oras-go/v2/registry/remote"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// mediaTypeComponent is the media type a component-binary layer is
// published under.
const mediaTypeComponent = "application/wasm"

// Driver is an OCI-backed Driver (spec.md §4.4.1).
type Driver struct {
	registryHost    string
	namespacePrefix string
	insecure        bool
	credentials     ports.CredentialHelper
	registry        values.Registry
	authCache       *authCache
}

// New constructs an OCI driver for registry, honoring the metadata
// document's oci_registry / oci_namespace_prefix legacy aliases and any
// explicit OCIRegistryConfig override (explicit config wins, per
// spec.md §4.2's "explicit configuration wins over advertised
// metadata" rule).
func New(registry values.Registry, regConfig entities.OCIRegistryConfig, metadata entities.RegistryMetadata, credentials ports.CredentialHelper) (*Driver, error) {
	host := registry.String()
	if metadata.OCIRegistry != "" {
		host = metadata.OCIRegistry
	}
	if regConfig.Registry != "" {
		host = regConfig.Registry
	}

	prefix := metadata.OCINamespacePrefix
	if regConfig.NamespacePrefix != "" {
		prefix = regConfig.NamespacePrefix
	}

	return &Driver{
		registryHost:    host,
		namespacePrefix: prefix,
		insecure:        regConfig.Insecure,
		credentials:     credentials,
		registry:        registry,
		authCache:       newAuthCache(),
	}, nil
}

// repository opens the OCI repository backing pkg, with its Client
// authenticated per spec.md §4.4.1's auth chain: the candidate
// credential (explicit Basic, else anonymous) is preflighted against
// this exact repository and operation the first time this (registry,
// operation) pair is seen, downgrading to anonymous on an
// authentication failure for read operations; the outcome is then
// cached and reused for every later call under the same key.
func (d *Driver) repository(ctx context.Context, pkg values.PackageRef, op authOperation) (*remote.Repository, error) {
	name := d.repositoryName(pkg)
	ref := fmt.Sprintf("%s/%s", d.registryHost, name)

	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, &domainservices.RegistryError{Registry: d.registry, Op: "open_repository", Err: err}
	}
	repo.PlainHTTP = d.insecure

	client, err := d.resolve(ctx, ref, op)
	if err != nil {
		return nil, err
	}
	repo.Client = client

	return repo, nil
}

// repositoryName turns a package reference into the OCI repository path
// the CNCF guidance expects: namespace/name, with any configured prefix
// prepended.
func (d *Driver) repositoryName(pkg values.PackageRef) string {
	return d.namespacePrefix + pkg.Namespace().String() + "/" + pkg.Name().String()
}

// ListAllVersions lists the repository's tags and keeps only the ones
// that parse as valid semantic versions (original Rust: source/oci.rs
// list_all_versions).
func (d *Driver) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	repo, err := d.repository(ctx, pkg, opRead)
	if err != nil {
		return nil, err
	}

	var versions []entities.VersionInfo
	err = repo.Tags(ctx, "", func(tags []string) error {
		for _, tag := range tags {
			v, verr := values.NewVersion(tag)
			if verr != nil {
				continue
			}
			versions = append(versions, entities.VersionInfo{Version: v})
		}
		return nil
	})
	if err != nil {
		return nil, &domainservices.RegistryError{Registry: d.registry, Op: "list_tags", Err: err}
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Version.Compare(versions[j].Version) < 0 })
	return versions, nil
}

// GetRelease fetches the version's manifest and reads the content
// digest off its sole layer (spec.md §4.4.1; a manifest with no layers
// is an InvalidPackageManifestError).
func (d *Driver) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	repo, err := d.repository(ctx, pkg, opRead)
	if err != nil {
		return entities.Release{}, err
	}

	_, manifestBytes, err := fetchManifest(ctx, repo, version.String())
	if err != nil {
		return entities.Release{}, &domainservices.RegistryError{Registry: d.registry, Op: "fetch_manifest", Err: err}
	}

	layerDigest, size, err := firstLayerDigest(manifestBytes)
	if err != nil {
		return entities.Release{}, &domainservices.InvalidPackageManifestError{Package: pkg, Reason: err.Error()}
	}

	digest, err := values.ParseContentDigest(layerDigest)
	if err != nil {
		return entities.Release{}, &domainservices.InvalidPackageManifestError{Package: pkg, Reason: fmt.Sprintf("layer digest %q does not parse: %v", layerDigest, err)}
	}

	return entities.Release{
		Version:     version,
		Digest:      digest,
		ContentSize: size,
		PublishedAt: time.Time{},
	}, nil
}

// StreamContentUnvalidated fetches the content layer's bytes by digest,
// without checking them against release.Digest; the application layer
// wraps this in a values.VerifyingReader.
func (d *Driver) StreamContentUnvalidated(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error) {
	repo, err := d.repository(ctx, pkg, opRead)
	if err != nil {
		return nil, err
	}

	desc, err := repo.Blobs().Resolve(ctx, release.Digest.String())
	if err != nil {
		return nil, &domainservices.RegistryError{Registry: d.registry, Op: "resolve_blob", Err: err}
	}

	rc, err := repo.Blobs().Fetch(ctx, desc)
	if err != nil {
		return nil, &domainservices.RegistryError{Registry: d.registry, Op: "fetch_blob", Err: err}
	}
	return rc, nil
}

// Publish pushes data as a single-layer component manifest tagged with
// version's string form.
func (d *Driver) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	repo, err := d.repository(ctx, pkg, opWrite)
	if err != nil {
		return err
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("reading publish content: %w", err)
	}

	if err := pushComponent(ctx, repo, version.String(), content); err != nil {
		return &domainservices.RegistryError{Registry: d.registry, Op: "push", Err: err}
	}
	return nil
}

func firstLayerDigest(manifestJSON []byte) (string, int64, error) {
	var manifest struct {
		Layers []struct {
			Digest string `json:"digest"`
			Size   int64  `json:"size"`
		} `json:"layers"`
	}
	if err := unmarshalManifest(manifestJSON, &manifest); err != nil {
		return "", 0, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(manifest.Layers) == 0 {
		return "", 0, fmt.Errorf("returned manifest had no layers")
	}
	return manifest.Layers[0].Digest, manifest.Layers[0].Size, nil
}
