// Package signedlog implements the Driver port (spec.md §4.4.2) against
// a file-system-backed signed transparency-log registry: every release
// is an entry in an append-only, cryptographically signed package log,
// and publishing is a content-upload-then-record-then-poll sequence
// rather than a single request.
package signedlog

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

const defaultPollInterval = 2 * time.Second

// Driver is a signed-log-backed Driver (spec.md §4.4.2).
type Driver struct {
	registry     values.Registry
	log          *logClient
	keyPath      string
	keyring      ports.KeyringSigner
	pollInterval time.Duration
	logger       *slog.Logger
}

// New constructs a signed-log driver for registry, honoring the
// metadata document's wargUrl legacy alias and any explicit
// SignedLogRegistryConfig override (explicit config wins, as with the
// OCI driver).
func New(registry values.Registry, regConfig entities.SignedLogRegistryConfig, metadata entities.RegistryMetadata, keyring ports.KeyringSigner, logger *slog.Logger) (*Driver, error) {
	url := metadata.SignedLogURL
	if regConfig.URL != "" {
		url = regConfig.URL
	}
	if url == "" {
		return nil, &domainservices.InvalidRegistryMetadataError{Registry: registry, Reason: "no signed-log URL configured"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		registry:     registry,
		log:          newLogClient(url),
		keyPath:      regConfig.KeyPath,
		keyring:      keyring,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}, nil
}

// fetchPackageInfo synchronizes the local log view with the remote and
// returns the package's current release set. Called unconditionally on
// every read (spec.md §4.4.2's fetch_package_info), trading request
// volume for freshness.
func (d *Driver) fetchPackageInfo(ctx context.Context, pkg values.PackageRef) (packageLogWire, error) {
	namespace, name := pkg.Namespace().String(), pkg.Name().String()

	if err := d.log.update(ctx, namespace, name); err != nil {
		return packageLogWire{}, &domainservices.RegistryError{Registry: d.registry, Op: "sync_log", Err: err}
	}
	log, err := d.log.fetchPackageLog(ctx, namespace, name)
	if err != nil {
		return packageLogWire{}, &domainservices.RegistryError{Registry: d.registry, Op: "fetch_package_log", Err: err}
	}
	return log, nil
}

// ListAllVersions maps each release entry in the log to its version and
// yank state.
func (d *Driver) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	log, err := d.fetchPackageInfo(ctx, pkg)
	if err != nil {
		return nil, err
	}

	versions := make([]entities.VersionInfo, 0, len(log.Releases))
	for _, r := range log.Releases {
		v, err := values.NewVersion(r.Version)
		if err != nil {
			d.logger.Warn("signed-log entry has unparsable version, skipping", "package", pkg, "version", r.Version)
			continue
		}
		versions = append(versions, entities.VersionInfo{Version: v, Yanked: r.Yanked})
	}
	return versions, nil
}

// GetRelease looks up version's log entry; a yanked entry is a registry
// error, not a silent fallback (spec.md §4.4.2).
func (d *Driver) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	log, err := d.fetchPackageInfo(ctx, pkg)
	if err != nil {
		return entities.Release{}, err
	}

	for _, r := range log.Releases {
		v, err := values.NewVersion(r.Version)
		if err != nil || !v.Equals(version) {
			continue
		}
		if r.Yanked {
			return entities.Release{}, &domainservices.RegistryError{
				Registry: d.registry,
				Op:       "get_release",
				Err:      fmt.Errorf("%s@%s has been yanked", pkg, version),
			}
		}
		digest, err := values.ParseContentDigest(r.Digest)
		if err != nil {
			return entities.Release{}, &domainservices.InvalidRegistryMetadataError{
				Registry: d.registry,
				Reason:   fmt.Sprintf("release digest %q for %s@%s does not parse: %v", r.Digest, pkg, version, err),
			}
		}
		return entities.Release{Version: version, Digest: digest}, nil
	}
	return entities.Release{}, &entities.VersionNotFoundError{Package: pkg}
}

// StreamContentUnvalidated fetches the release's content. The signed-log
// protocol validates digests server-side before serving content, so
// this returns the same stream stream_content would (spec.md §4.4.2);
// the application layer may still wrap it in a VerifyingReader, which is
// redundant but harmless.
func (d *Driver) StreamContentUnvalidated(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error) {
	namespace, name := pkg.Namespace().String(), pkg.Name().String()
	rc, err := d.log.fetchContent(ctx, namespace, name, release.Digest.String())
	if err != nil {
		return nil, &domainservices.RegistryError{Registry: d.registry, Op: "fetch_content", Err: err}
	}
	return rc, nil
}

// Publish uploads content to the log's content store, signs a publish
// record naming it, submits the record, and polls until the registry
// accepts or rejects it (spec.md §4.4.2).
func (d *Driver) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	namespace, name := pkg.Namespace().String(), pkg.Name().String()

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("reading publish content: %w", err)
	}

	digest, err := d.log.publishContent(ctx, namespace, name, bytes.NewReader(content))
	if err != nil {
		return &domainservices.RegistryError{Registry: d.registry, Op: "publish_content", Err: err}
	}

	sig, publicKeyPEM, err := d.sign(ctx, content)
	if err != nil {
		return &domainservices.CredentialError{Registry: d.registry, Err: err}
	}

	record := publishRecordWire{
		ID:      uuid.NewString(),
		Version: version.String(),
		Digest:  digest,
	}
	if sig != nil {
		record.Signature = base64.StdEncoding.EncodeToString(sig)
		record.PublicKey = string(publicKeyPEM)
	}

	if err := d.log.submitPublishRecord(ctx, namespace, name, record); err != nil {
		return &domainservices.RegistryError{Registry: d.registry, Op: "submit_publish_record", Err: err}
	}

	return d.awaitAcceptance(ctx, namespace, name, record.ID)
}

// awaitAcceptance polls the publish record's status at a fixed interval
// until it is accepted or rejected (spec.md §4.4.2).
func (d *Driver) awaitAcceptance(ctx context.Context, namespace, name, recordID string) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		status, err := d.log.pollPublishStatus(ctx, namespace, name, recordID)
		if err != nil {
			return &domainservices.RegistryError{Registry: d.registry, Op: "poll_publish_status", Err: err}
		}

		switch status.Status {
		case "accepted":
			return nil
		case "rejected":
			return &domainservices.RegistryError{
				Registry: d.registry,
				Op:       "poll_publish_status",
				Err:      fmt.Errorf("publish record %s rejected: %s", recordID, status.Reason),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sign signs content with the registry's configured private key, if
// any, else delegates to the host keyring; if neither is available the
// publish record is submitted unsigned.
func (d *Driver) sign(ctx context.Context, content []byte) (sig, publicKeyPEM []byte, err error) {
	if d.keyPath != "" {
		signer, err := newKeySigner(d.keyPath)
		if err != nil {
			return nil, nil, err
		}
		return signer.sign(ctx, content)
	}
	if d.keyring != nil {
		return d.keyring.Sign(ctx, content)
	}
	d.logger.Warn("no signing key or keyring configured, publishing unsigned record")
	return nil, nil, nil
}
