// Package backends wires the three concrete Driver implementations
// (oci, signedlog, localfs) behind the DriverFactory port, so the
// application layer never imports a concrete backend package directly
// (spec.md §4.4.4 step 6).
package backends

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
	"github.com/wasmpkg/wkg/internal/infrastructure/backends/localfs"
	"github.com/wasmpkg/wkg/internal/infrastructure/backends/oci"
	"github.com/wasmpkg/wkg/internal/infrastructure/backends/signedlog"
)

// Factory is a DriverFactory that constructs the built-in backend
// drivers.
type Factory struct {
	credentials ports.CredentialHelper
	keyring     ports.KeyringSigner
	logger      *slog.Logger
}

// New constructs a Factory. credentials and keyring may be nil: both
// name out-of-scope host collaborators (spec.md §1), and every driver
// that consumes them already degrades gracefully (unauthenticated OCI
// pulls, unsigned signed-log publishes) when they're absent.
func New(credentials ports.CredentialHelper, keyring ports.KeyringSigner, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{credentials: credentials, keyring: keyring, logger: logger}
}

var _ ports.DriverFactory = (*Factory)(nil)

// NewDriver constructs the driver for protocol, honoring any per-registry
// override configuration in regConfig (spec.md §4.4.4 step 5: only local
// configuration, never advertised metadata, may select localfs).
func (f *Factory) NewDriver(ctx context.Context, registry values.Registry, protocol string, regConfig entities.RegistryConfig, metadata entities.RegistryMetadata, hasMetadata bool) (ports.Driver, error) {
	switch protocol {
	case entities.ProtocolOCI:
		var cfg entities.OCIRegistryConfig
		if regConfig.OCI != nil {
			cfg = *regConfig.OCI
		}
		return oci.New(registry, cfg, metadata, f.credentials)

	case entities.ProtocolSignedLog:
		var cfg entities.SignedLogRegistryConfig
		if regConfig.SignedLog != nil {
			cfg = *regConfig.SignedLog
		}
		return signedlog.New(registry, cfg, metadata, f.keyring, f.logger)

	case entities.ProtocolLocalFS:
		if regConfig.LocalFS == nil || regConfig.LocalFS.Root == "" {
			return nil, &domainservices.InvalidRegistryMetadataError{Registry: registry, Reason: "localfs backend requires an explicit root directory in local configuration"}
		}
		return localfs.New(regConfig.LocalFS.Root), nil

	default:
		return nil, &domainservices.InvalidRegistryMetadataError{Registry: registry, Reason: fmt.Sprintf("unknown backend protocol %q", protocol)}
	}
}
