package lockfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

func Test_Store_OpenExclusive_CreatesMissingParents(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "nested", "wkg.lock")

	h, err := store.OpenExclusive(context.Background(), path)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, filepath.Dir(path), filepath.Dir(h.Path()))
}

func Test_Store_WriteThenLoad_RoundTrips(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "wkg.lock")

	h, err := store.OpenExclusive(context.Background(), path)
	require.NoError(t, err)
	defer h.Close()

	lf := entities.NewLockFile()
	registryStr := "registry.example.com"
	lf.Upsert(values.MustParsePackageRef("wasi:http"), &registryStr, entities.LockedPackageVersion{
		Requirement: values.MustNewVersionRequirement("^1.0.0"),
		Version:     values.MustNewVersion("1.2.0"),
		Digest:      values.MustParseContentDigest("sha256:" + hexZeroes()),
	})

	require.NoError(t, h.Write(context.Background(), lf))

	loaded, err := h.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Packages, 1)
	assert.Equal(t, 1, loaded.Version)
	assert.True(t, loaded.Packages[0].Name.Equals(values.MustParsePackageRef("wasi:http")))
}

func Test_Store_Load_EmptyFileReturnsFreshLockFile(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "wkg.lock")

	h, err := store.OpenExclusive(context.Background(), path)
	require.NoError(t, err)
	defer h.Close()

	lf, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.LockFileVersion, lf.Version)
	assert.Empty(t, lf.Packages)
}

func Test_Store_TryOpenExclusive_FailsOnContention(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "wkg.lock")

	h1, err := store.OpenExclusive(context.Background(), path)
	require.NoError(t, err)
	defer h1.Close()

	_, ok, err := store.TryOpenExclusive(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_AcquireLock_NilFlockSkipsLockingAndSucceeds(t *testing.T) {
	ok, err := acquireLock(context.Background(), nil, true, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = acquireLock(context.Background(), nil, false, false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_Store_Open_SkipsLockingWhenPathReportedAsNFS(t *testing.T) {
	oldOnNFS := onNFSFunc
	onNFSFunc = func(string) bool { return true }
	defer func() { onNFSFunc = oldOnNFS }()

	store := New()
	path := filepath.Join(t.TempDir(), "wkg.lock")

	h1, err := store.OpenExclusive(context.Background(), path)
	require.NoError(t, err)
	defer h1.Close()

	// A second exclusive "open" over the same NFS-reported path does not
	// contend, since no real lock was ever taken.
	h2, ok, err := store.TryOpenExclusive(context.Background(), path)
	require.NoError(t, err)
	require.True(t, ok)
	h2.Close()
}

func hexZeroes() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
