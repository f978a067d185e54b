// Package container provides dependency injection for the application.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/application/services"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
	"github.com/wasmpkg/wkg/internal/infrastructure/backends"
	"github.com/wasmpkg/wkg/internal/infrastructure/cache"
	"github.com/wasmpkg/wkg/internal/infrastructure/config"
	"github.com/wasmpkg/wkg/internal/infrastructure/credentials"
	"github.com/wasmpkg/wkg/internal/infrastructure/decoder"
	"github.com/wasmpkg/wkg/internal/infrastructure/lockfile"
	"github.com/wasmpkg/wkg/internal/infrastructure/registrymeta"
)

// Options configure the container.
type Options struct {
	Logger *slog.Logger

	// ConfigPath is the TOML configuration file to load. If empty,
	// config.DefaultPath() is used.
	ConfigPath string
	// CacheDir overrides the local cache's root directory.
	CacheDir string
	// Offline puts the caching client in read-only (no-network) mode.
	Offline bool

	// Registry, OCIUsername, and OCIPassword are the explicit
	// credential-tier settings bound from WKG_REGISTRY / WKG_OCI_USERNAME
	// / WKG_OCI_PASSWORD (spec.md §4.4.1 step 1, §6).
	Registry    string
	OCIUsername string
	OCIPassword string
	// OCIInsecure talks plain HTTP, not HTTPS, to the default registry's
	// OCI backend (WKG_OCI_INSECURE, spec.md §6).
	OCIInsecure bool
}

// Container holds all application dependencies.
type Container struct {
	config      *entities.Config
	configPath  string
	configStore *config.Store
	cache       *cache.Cache
	lockStore   *lockfile.Store
	decoder     *decoder.Decoder

	client        *services.Client
	cachingClient *services.CachingClient
	resolver      *services.Resolver

	logger *slog.Logger
}

// New creates a new dependency injection container.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	configStore := config.New()
	configPath := opts.ConfigPath
	if configPath == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving default config path: %w", err)
		}
		configPath = defaultPath
	}
	cfg, err := configStore.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if opts.Registry != "" {
		registry, err := values.NewRegistry(opts.Registry)
		if err != nil {
			return nil, fmt.Errorf("parsing --registry: %w", err)
		}
		cfg.DefaultRegistry = &registry
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		defaultCacheDir, err := defaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default cache dir: %w", err)
		}
		cacheDir = defaultCacheDir
	}
	fileCache, err := cache.New(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("opening local cache: %w", err)
	}

	var credHelper ports.CredentialHelper
	if opts.OCIUsername != "" && opts.OCIPassword != "" && cfg.DefaultRegistry != nil {
		credHelper = credentials.NewStatic(*cfg.DefaultRegistry, opts.OCIUsername, opts.OCIPassword)
	}

	if opts.OCIInsecure && cfg.DefaultRegistry != nil {
		key := cfg.DefaultRegistry.String()
		rc := cfg.Registries[key]
		if rc.OCI == nil {
			rc.OCI = &entities.OCIRegistryConfig{}
		}
		rc.OCI.Insecure = true
		if cfg.Registries == nil {
			cfg.Registries = map[string]entities.RegistryConfig{}
		}
		cfg.Registries[key] = rc
	}

	metadataFetcher := registrymeta.New(http.DefaultClient, opts.Logger)
	driverFactory := backends.New(credHelper, nil, opts.Logger)

	client := services.NewClient(cfg, metadataFetcher, driverFactory, opts.Logger)
	cachingClient := services.NewCachingClient(client, fileCache, opts.Offline, opts.Logger)

	dependencyDecoder := decoder.New(ctx)
	depResolver := services.NewResolver(cachingClient, cfg, dependencyDecoder, opts.Logger)

	return &Container{
		config:        cfg,
		configPath:    configPath,
		configStore:   configStore,
		cache:         fileCache,
		lockStore:     lockfile.New(),
		decoder:       dependencyDecoder,
		client:        client,
		cachingClient: cachingClient,
		resolver:      depResolver,
		logger:        opts.Logger,
	}, nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *entities.Config { return c.config }

// ConfigPath returns the path the configuration was loaded from (or
// would be saved to).
func (c *Container) ConfigPath() string { return c.configPath }

// ConfigStore returns the Configuration Store.
func (c *Container) ConfigStore() *config.Store { return c.configStore }

// CacheDir returns the local cache's root directory.
func (c *Container) CacheDir() string { return c.cache.Root() }

// Client returns the Client Facade.
func (c *Container) Client() *services.Client { return c.client }

// CachingClient returns the Caching Client.
func (c *Container) CachingClient() *services.CachingClient { return c.cachingClient }

// Resolver returns the Dependency Resolver.
func (c *Container) Resolver() *services.Resolver { return c.resolver }

// LockFileStore returns the Lock File Store.
func (c *Container) LockFileStore() ports.LockFileStore { return c.lockStore }

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Close releases resources (the decoder's wazero runtime) held by the
// container.
func (c *Container) Close(ctx context.Context) error {
	return c.decoder.Close(ctx)
}

// defaultCacheDir mirrors config.DefaultPath's per-user convention for
// the local cache's root directory.
func defaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wkg"), nil
}
