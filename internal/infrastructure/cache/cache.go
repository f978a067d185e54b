// Package cache implements the Cache port (spec.md §4.5) as a plain
// directory: one file per content digest, one JSON release record per
// package@version. No process coordinates writers beyond what the
// filesystem gives for free; concurrent writers are safe because
// content is digest-addressed and release records are immutable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	domainservices "github.com/wasmpkg/wkg/internal/domain/services"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Cache is a filesystem-backed Cache.
type Cache struct {
	root string
}

// New constructs a Cache rooted at root, creating it if missing.
func New(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &domainservices.CacheError{Reason: fmt.Sprintf("creating cache root %s", root), Err: err}
	}
	return &Cache{root: root}, nil
}

// Root returns the cache's root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) blobPath(digest values.ContentDigest) string {
	return filepath.Join(c.root, digest.String())
}

func (c *Cache) releasePath(pkg values.PackageRef, version values.Version) string {
	name := fmt.Sprintf("%s-%s.json", pkg.String(), version.String())
	return filepath.Join(c.root, filepath.FromSlash(name))
}

// PutData creates (or overwrites) the blob keyed by digest and copies
// stream into it.
func (c *Cache) PutData(ctx context.Context, digest values.ContentDigest, stream io.Reader) error {
	path := c.blobPath(digest)
	f, err := os.Create(path)
	if err != nil {
		return &domainservices.CacheError{Reason: fmt.Sprintf("creating cache blob %s", path), Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, stream); err != nil {
		return &domainservices.CacheError{Reason: fmt.Sprintf("writing cache blob %s", path), Err: err}
	}
	return nil
}

// GetData returns a reader over digest's blob, or ok=false if it hasn't
// been cached.
func (c *Cache) GetData(ctx context.Context, digest values.ContentDigest) (io.ReadCloser, bool, error) {
	f, err := os.Open(c.blobPath(digest))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domainservices.CacheError{Reason: fmt.Sprintf("opening cache blob %s", digest), Err: err}
	}
	return f, true, nil
}

type releaseRecord struct {
	Version       string `json:"version"`
	ContentDigest string `json:"content_digest"`
}

// PutRelease serializes and atomically writes release's record for
// pkg@release.Version.
func (c *Cache) PutRelease(ctx context.Context, pkg values.PackageRef, release entities.Release) error {
	path := c.releasePath(pkg, release.Version)

	data, err := json.Marshal(releaseRecord{
		Version:       release.Version.String(),
		ContentDigest: release.Digest.String(),
	})
	if err != nil {
		return &domainservices.CacheError{Reason: "encoding release record", Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &domainservices.CacheError{Reason: fmt.Sprintf("writing release record %s", path), Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &domainservices.CacheError{Reason: fmt.Sprintf("committing release record %s", path), Err: err}
	}
	return nil
}

// GetRelease returns the previously recorded release for pkg@version, or
// ok=false if nothing has been cached for it.
func (c *Cache) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, bool, error) {
	path := c.releasePath(pkg, version)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return entities.Release{}, false, nil
	}
	if err != nil {
		return entities.Release{}, false, &domainservices.CacheError{Reason: fmt.Sprintf("reading release record %s", path), Err: err}
	}

	var rec releaseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return entities.Release{}, false, &domainservices.CacheError{Reason: fmt.Sprintf("parsing release record %s", path), Err: err}
	}

	v, err := values.NewVersion(rec.Version)
	if err != nil {
		return entities.Release{}, false, &domainservices.CacheError{Reason: fmt.Sprintf("release record %s has invalid version", path), Err: err}
	}
	digest, err := values.ParseContentDigest(rec.ContentDigest)
	if err != nil {
		return entities.Release{}, false, &domainservices.CacheError{Reason: fmt.Sprintf("release record %s has invalid digest", path), Err: err}
	}

	return entities.Release{Version: v, Digest: digest}, true, nil
}
