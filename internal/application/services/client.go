package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Client is the Client Facade (spec.md §4.4.4, §4.6): it resolves a
// package to a registry via Config, then to a backend driver, lazily
// constructing and memoizing one driver instance per registry for the
// lifetime of the Client.
type Client struct {
	config          *entities.Config
	metadataFetcher ports.RegistryMetadataFetcher
	driverFactory   ports.DriverFactory
	protocolChain   services.ProtocolResolver
	logger          *slog.Logger

	mu      sync.RWMutex
	drivers map[string]ports.Driver
}

// NewClient constructs a Client Facade.
func NewClient(
	config *entities.Config,
	metadataFetcher ports.RegistryMetadataFetcher,
	driverFactory ports.DriverFactory,
	logger *slog.Logger,
) *Client {
	return &Client{
		config:          config,
		metadataFetcher: metadataFetcher,
		driverFactory:   driverFactory,
		protocolChain:   services.NewDefaultProtocolResolverChain(),
		logger:          logger,
		drivers:         make(map[string]ports.Driver),
	}
}

// ResolveDriver returns the backend driver that should serve pkg,
// constructing it on first use (spec.md §4.4.4 steps 1-6).
func (c *Client) ResolveDriver(ctx context.Context, pkg values.PackageRef) (ports.Driver, values.Registry, error) {
	registry, ok := c.config.ResolveRegistry(pkg)
	if !ok {
		return nil, values.Registry{}, &entities.RegistryNotConfiguredError{Package: pkg}
	}

	driver, err := c.driverFor(ctx, registry)
	if err != nil {
		return nil, values.Registry{}, err
	}
	return driver, registry, nil
}

// driverFor implements the check-under-read-lock, insert-under-write-lock
// pattern spec.md §4.4.4 step 6 and §5 require: at most one driver
// instance per registry is retained, though a racing second construction
// may run to completion with its result discarded.
func (c *Client) driverFor(ctx context.Context, registry values.Registry) (ports.Driver, error) {
	key := registry.String()

	c.mu.RLock()
	driver, ok := c.drivers[key]
	c.mu.RUnlock()
	if ok {
		return driver, nil
	}

	regConfig, _ := c.config.RegistryConfigFor(registry)

	var metadata entities.RegistryMetadata
	hasMetadata := false
	if regConfig.Protocol != entities.ProtocolLocalFS {
		fetched, found, err := c.metadataFetcher.Fetch(ctx, registry)
		if err != nil {
			c.logger.Warn("registry metadata fetch failed, continuing without it", "registry", registry.String(), "error", err)
		} else if found {
			metadata = fetched
			hasMetadata = true
		}
	}

	protocol, err := c.protocolChain.Resolve(ctx, services.ProtocolResolutionInput{
		Registry:    registry,
		RegConfig:   regConfig,
		Metadata:    metadata,
		HasMetadata: hasMetadata,
	})
	if err != nil {
		return nil, err
	}

	newDriver, err := c.driverFactory.NewDriver(ctx, registry, protocol, regConfig, metadata, hasMetadata)
	if err != nil {
		return nil, fmt.Errorf("constructing %s driver for %s: %w", protocol, registry, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.drivers[key]; ok {
		return existing, nil
	}
	c.drivers[key] = newDriver
	return newDriver, nil
}

// ListAllVersions resolves pkg's driver and lists every known version.
func (c *Client) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	driver, registry, err := c.ResolveDriver(ctx, pkg)
	if err != nil {
		return nil, err
	}
	versions, err := driver.ListAllVersions(ctx, pkg)
	if err != nil {
		return nil, &services.RegistryError{Registry: registry, Op: "list_all_versions", Err: err}
	}
	return versions, nil
}

// GetRelease resolves pkg's driver and fetches one version's release.
func (c *Client) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	driver, registry, err := c.ResolveDriver(ctx, pkg)
	if err != nil {
		return entities.Release{}, err
	}
	release, err := driver.GetRelease(ctx, pkg, version)
	if err != nil {
		return entities.Release{}, &services.RegistryError{Registry: registry, Op: "get_release", Err: err}
	}
	return release, nil
}

// StreamContent resolves pkg's driver, streams the release content, and
// wraps it in a digest-validating reader (spec.md §4.4's default
// stream_content behavior).
func (c *Client) StreamContent(ctx context.Context, pkg values.PackageRef, release entities.Release) (*values.VerifyingReader, error) {
	driver, registry, err := c.ResolveDriver(ctx, pkg)
	if err != nil {
		return nil, err
	}
	raw, err := driver.StreamContentUnvalidated(ctx, pkg, release)
	if err != nil {
		return nil, &services.RegistryError{Registry: registry, Op: "stream_content", Err: err}
	}
	return values.NewVerifyingReader(raw, release.Digest)
}

// Publish resolves pkg's driver and uploads data as pkg@version.
func (c *Client) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	driver, registry, err := c.ResolveDriver(ctx, pkg)
	if err != nil {
		return err
	}
	if err := driver.Publish(ctx, pkg, version, data); err != nil {
		return &services.RegistryError{Registry: registry, Op: "publish", Err: err}
	}
	return nil
}
