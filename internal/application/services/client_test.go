package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

type fakeDriver struct {
	release entities.Release
	content []byte
}

func (f *fakeDriver) ListAllVersions(ctx context.Context, pkg values.PackageRef) ([]entities.VersionInfo, error) {
	return []entities.VersionInfo{{Version: f.release.Version}}, nil
}

func (f *fakeDriver) GetRelease(ctx context.Context, pkg values.PackageRef, version values.Version) (entities.Release, error) {
	return f.release, nil
}

func (f *fakeDriver) StreamContentUnvalidated(ctx context.Context, pkg values.PackageRef, release entities.Release) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func (f *fakeDriver) Publish(ctx context.Context, pkg values.PackageRef, version values.Version, data io.ReadSeeker) error {
	return nil
}

type fakeMetadataFetcher struct {
	metadata entities.RegistryMetadata
	found    bool
	calls    int
}

func (f *fakeMetadataFetcher) Fetch(ctx context.Context, registry values.Registry) (entities.RegistryMetadata, bool, error) {
	f.calls++
	return f.metadata, f.found, nil
}

func (f *fakeMetadataFetcher) FetchOrDefault(ctx context.Context, registry values.Registry) entities.RegistryMetadata {
	return f.metadata
}

type countingDriverFactory struct {
	calls  int
	driver ports.Driver
}

func (f *countingDriverFactory) NewDriver(ctx context.Context, registry values.Registry, protocol string, regConfig entities.RegistryConfig, metadata entities.RegistryMetadata, hasMetadata bool) (ports.Driver, error) {
	f.calls++
	return f.driver, nil
}

func testPkg(t *testing.T) values.PackageRef {
	t.Helper()
	return values.MustParsePackageRef("wasi:http")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_Client_ResolveDriver_NoRegistryConfigured(t *testing.T) {
	config := entities.NewConfig()
	client := NewClient(config, &fakeMetadataFetcher{}, &countingDriverFactory{}, discardLogger())

	_, _, err := client.ResolveDriver(context.Background(), testPkg(t))
	var notConfigured *entities.RegistryNotConfiguredError
	assert.ErrorAs(t, err, &notConfigured)
}

func Test_Client_ResolveDriver_MemoizesPerRegistry(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	config := entities.NewConfig()
	config.DefaultRegistry = &registry

	factory := &countingDriverFactory{driver: &fakeDriver{}}
	client := NewClient(config, &fakeMetadataFetcher{}, factory, discardLogger())

	_, _, err := client.ResolveDriver(context.Background(), testPkg(t))
	require.NoError(t, err)
	_, _, err = client.ResolveDriver(context.Background(), testPkg(t))
	require.NoError(t, err)

	assert.Equal(t, 1, factory.calls)
}

func Test_Client_ResolveDriver_SkipsMetadataFetchForExplicitLocalFS(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	config := entities.NewConfig()
	config.DefaultRegistry = &registry
	config.Registries[registry.String()] = entities.RegistryConfig{Protocol: entities.ProtocolLocalFS}

	fetcher := &fakeMetadataFetcher{found: true, metadata: entities.RegistryMetadata{PreferredProtocol: entities.ProtocolOCI}}
	factory := &countingDriverFactory{driver: &fakeDriver{}}
	client := NewClient(config, fetcher, factory, discardLogger())

	_, _, err := client.ResolveDriver(context.Background(), testPkg(t))
	require.NoError(t, err)
	assert.Equal(t, 1, factory.calls)
	assert.Equal(t, 0, fetcher.calls)
}

func Test_Client_GetRelease_UsesResolvedDriver(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	config := entities.NewConfig()
	config.DefaultRegistry = &registry

	version := values.MustNewVersion("1.0.0")
	release := entities.Release{Version: version}
	client := NewClient(config, &fakeMetadataFetcher{}, &countingDriverFactory{driver: &fakeDriver{release: release}}, discardLogger())

	got, err := client.GetRelease(context.Background(), testPkg(t), version)
	require.NoError(t, err)
	assert.True(t, got.Version.Equals(version))
}

func Test_Client_StreamContent_ValidatesDigest(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	config := entities.NewConfig()
	config.DefaultRegistry = &registry

	content := []byte("component bytes")
	digest, err := values.NewSHA256ContentDigest(sha256Sum(content))
	require.NoError(t, err)
	release := entities.Release{Digest: digest}

	client := NewClient(config, &fakeMetadataFetcher{}, &countingDriverFactory{driver: &fakeDriver{content: content}}, discardLogger())

	reader, err := client.StreamContent(context.Background(), testPkg(t), release)
	require.NoError(t, err)
	_, err = io.ReadAll(reader)
	require.NoError(t, err)
	assert.NoError(t, reader.Verify())
}
