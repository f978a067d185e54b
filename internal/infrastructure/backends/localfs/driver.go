// Package localfs implements the Driver port against a plain directory
// tree, for offline development and test fixtures: each release is a
// file at <root>/<namespace>/<name>/<version>.wasm (spec.md §4.4.3).
// Publish writes straight into that tree, so this driver doubles as a
// target for dev-time "publish to a local override directory" flows,
// not just a read-only source.
package localfs

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Driver is a local-filesystem-backed Driver.
type Driver struct {
	root string
}

// New constructs a local filesystem driver rooted at root.
func New(root string) *Driver {
	return &Driver{root: root}
}

func (d *Driver) packageDir(pkg values.PackageRef) string {
	return filepath.Join(d.root, pkg.Namespace().String(), pkg.Name().String())
}

func (d *Driver) versionPath(pkg values.PackageRef, version values.Version) string {
	return filepath.Join(d.packageDir(pkg), version.String()+".wasm")
}

// ListAllVersions reads the package's directory and keeps only the
// file names that parse as "<semver>.wasm".
func (d *Driver) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	dir := d.packageDir(pkg)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, &domainservices.PackageNotFoundError{Package: pkg}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var versions []entities.VersionInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wasm") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".wasm")
		v, err := values.NewVersion(stem)
		if err != nil {
			continue
		}
		versions = append(versions, entities.VersionInfo{Version: v})
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Version.Compare(versions[j].Version) < 0 })
	return versions, nil
}

// GetRelease hashes the version's file to produce its content digest,
// since a local file carries no separately published digest.
func (d *Driver) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	path := d.versionPath(pkg, version)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return entities.Release{}, &entities.VersionNotFoundError{Package: pkg}
	}
	if err != nil {
		return entities.Release{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return entities.Release{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	digest, err := values.NewSHA256ContentDigest(h.Sum(nil))
	if err != nil {
		return entities.Release{}, err
	}

	return entities.Release{
		Version:     version,
		Digest:      digest,
		ContentSize: size,
	}, nil
}

// StreamContentUnvalidated opens the version's file for reading.
func (d *Driver) StreamContentUnvalidated(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error) {
	path := d.versionPath(pkg, release.Version)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &entities.VersionNotFoundError{Package: pkg}
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// Publish writes data to the version's file, creating parent
// directories as needed. Unlike the registry-backed drivers this never
// talks to a network, which is exactly why it exists for test fixtures
// and offline overrides.
func (d *Driver) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	dir := d.packageDir(pkg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	path := d.versionPath(pkg, version)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
