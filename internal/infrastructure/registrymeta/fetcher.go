// Package registrymeta implements the RegistryMetadataFetcher port
// (spec.md §4.3): a best-effort GET against a registry's well-known
// metadata document.
package registrymeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// Fetcher is an HTTP-backed RegistryMetadataFetcher.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New constructs a Fetcher. If logger is nil, slog.Default() is used.
func New(httpClient *http.Client, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{httpClient: httpClient, logger: logger}
}

// metadataURL applies spec.md §4.3's scheme rule: plain http for
// localhost/127.0.0.1 (so local dev registries don't need TLS), https
// otherwise.
func metadataURL(registry values.Registry) string {
	scheme := "https"
	if registry.Host() == "localhost" || registry.Host() == "127.0.0.1" {
		scheme = "http"
	}
	return scheme + "://" + registry.String() + values.RegistryMetadataWellKnownPath
}

// Fetch performs the GET. ok=false means the document doesn't exist
// (404), a normal outcome; any other HTTP or transport failure is
// returned as err.
func (f *Fetcher) Fetch(ctx context.Context, registry values.Registry) (entities.RegistryMetadata, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL(registry), nil)
	if err != nil {
		return entities.RegistryMetadata{}, false, &domainservices.RegistryError{Registry: registry, Op: "fetch_metadata", Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return entities.RegistryMetadata{}, false, &domainservices.RegistryError{Registry: registry, Op: "fetch_metadata", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entities.RegistryMetadata{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return entities.RegistryMetadata{}, false, &domainservices.RegistryError{
			Registry: registry,
			Op:       "fetch_metadata",
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.RegistryMetadata{}, false, &domainservices.RegistryError{Registry: registry, Op: "fetch_metadata", Err: err}
	}

	if err := validateMetadataDocument(body); err != nil {
		return entities.RegistryMetadata{}, false, &domainservices.InvalidRegistryMetadataError{Registry: registry, Reason: fmt.Sprintf("schema validation: %v", err)}
	}

	var metadata entities.RegistryMetadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return entities.RegistryMetadata{}, false, &domainservices.InvalidRegistryMetadataError{Registry: registry, Reason: err.Error()}
	}
	return metadata, true, nil
}

// FetchOrDefault swallows any error, logs it, and returns a zero
// RegistryMetadata on failure: registry metadata discovery is
// best-effort, never a hard failure (spec.md §4.3).
func (f *Fetcher) FetchOrDefault(ctx context.Context, registry values.Registry) entities.RegistryMetadata {
	metadata, ok, err := f.Fetch(ctx, registry)
	if err != nil {
		f.logger.Warn("registry metadata fetch failed, using defaults", "registry", registry, "error", err)
		return entities.RegistryMetadata{}
	}
	if !ok {
		return entities.RegistryMetadata{}
	}
	return metadata
}
