package ports

import (
	"context"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// RegistryMetadataFetcher fetches the Registry Metadata Document
// (spec.md §4.3) from a registry's well-known URL.
type RegistryMetadataFetcher interface {
	// Fetch performs the GET. ok=false means the document doesn't exist
	// (HTTP 404), which is a normal, non-error outcome. Any other HTTP or
	// transport failure is returned as err.
	Fetch(ctx context.Context, registry values.Registry) (metadata entities.RegistryMetadata, ok bool, err error)

	// FetchOrDefault swallows any error (logging it) and returns a zero
	// RegistryMetadata on failure — the best-effort discovery fallback
	// spec.md §4.3 requires.
	FetchOrDefault(ctx context.Context, registry values.Registry) entities.RegistryMetadata
}

// DriverFactory constructs a backend driver for a registry once its
// protocol has been resolved (spec.md §4.4.4 step 6).
type DriverFactory interface {
	NewDriver(ctx context.Context, registry values.Registry, protocol string, regConfig entities.RegistryConfig, metadata entities.RegistryMetadata, hasMetadata bool) (Driver, error)
}
