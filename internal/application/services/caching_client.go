package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// CachingClient is the Caching Client facade (spec.md §4.6): it wraps a
// Client with a local Cache, serving release metadata and content from
// disk when present and otherwise falling through to the network and
// populating the cache as it goes. In offline mode it never falls
// through: a cache miss becomes a CacheError instead of a network call.
type CachingClient struct {
	client  *Client
	cache   ports.Cache
	offline bool
	logger  *slog.Logger
}

// NewCachingClient constructs a Caching Client. offline, once true, makes
// every miss an error rather than a network fetch (spec.md §4.6).
func NewCachingClient(client *Client, cache ports.Cache, offline bool, logger *slog.Logger) *CachingClient {
	return &CachingClient{client: client, cache: cache, offline: offline, logger: logger}
}

// GetRelease returns pkg@version's release metadata, preferring the
// cache and falling through to the network on a miss (unless offline).
func (c *CachingClient) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	if cached, ok, err := c.cache.GetRelease(ctx, pkg, version); err != nil {
		return entities.Release{}, &services.CacheError{Reason: "read release", Err: err}
	} else if ok {
		return cached, nil
	}

	if c.offline {
		return entities.Release{}, &services.CacheError{Reason: fmt.Sprintf("%s@%s not cached and offline mode is enabled", pkg, version)}
	}

	release, err := c.client.GetRelease(ctx, pkg, version)
	if err != nil {
		return entities.Release{}, err
	}

	if err := c.cache.PutRelease(ctx, pkg, release); err != nil {
		c.logger.Warn("failed to cache release metadata", "package", pkg.String(), "version", version.String(), "error", err)
	}
	return release, nil
}

// GetContent returns a reader over pkg@release's content, serving it
// from the local blob cache when present (a cache hit is returned as
// is, without re-hashing). On a cache miss it streams from the network
// through a digest-verifying reader, tees the bytes into the cache as
// they're read, and re-opens the now-cached blob so the caller always
// reads back the cached file. A blob that is missing at the re-open is
// reported as a CacheError.
func (c *CachingClient) GetContent(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error) {
	if data, ok, err := c.cache.GetData(ctx, release.Digest); err != nil {
		return nil, &services.CacheError{Reason: "read content", Err: err}
	} else if ok {
		return data, nil
	}

	if c.offline {
		return nil, &services.CacheError{Reason: fmt.Sprintf("content for %s@%s not cached and offline mode is enabled", pkg, release.Version)}
	}

	stream, err := c.client.StreamContent(ctx, pkg, release)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := c.cache.PutData(ctx, release.Digest, stream); err != nil {
		return nil, &services.CacheError{Reason: "write content", Err: err}
	}
	if err := stream.Verify(); err != nil {
		return nil, err
	}

	data, ok, err := c.cache.GetData(ctx, release.Digest)
	if err != nil {
		return nil, &services.CacheError{Reason: "reopen content after caching", Err: err}
	}
	if !ok {
		return nil, &services.CacheError{Reason: "content vanished from cache immediately after being written"}
	}
	return data, nil
}

// ListAllVersions always goes to the network: version listings are not
// cached, since a stale listing would silently hide newly published
// versions.
func (c *CachingClient) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	if c.offline {
		return nil, &services.CacheError{Reason: fmt.Sprintf("listing versions for %s requires network access and offline mode is enabled", pkg)}
	}
	return c.client.ListAllVersions(ctx, pkg)
}

// Publish always goes to the network: publishing has no offline mode.
func (c *CachingClient) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	if c.offline {
		return &services.CacheError{Reason: "publish requires network access and offline mode is enabled"}
	}
	return c.client.Publish(ctx, pkg, version, data)
}
