package registrymeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

func Test_Fetcher_Fetch_ParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, values.RegistryMetadataWellKnownPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"preferredProtocol":"oci","ociRegistry":"registry.example.com"}`))
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	registry := registryFromServerURL(t, srv.URL)

	metadata, ok, err := f.Fetch(context.Background(), registry)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "oci", metadata.PreferredProtocol)
	assert.Equal(t, "registry.example.com", metadata.OCIRegistry)
}

func Test_Fetcher_Fetch_RejectsDocumentFailingSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"preferredProtocol":123}`))
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	registry := registryFromServerURL(t, srv.URL)

	_, ok, err := f.Fetch(context.Background(), registry)
	require.Error(t, err)
	assert.False(t, ok)
}

func Test_Fetcher_Fetch_NotFoundReturnsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(srv.Client(), nil)
	registry := registryFromServerURL(t, srv.URL)

	_, ok, err := f.Fetch(context.Background(), registry)
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Fetcher_FetchOrDefault_SwallowsError(t *testing.T) {
	f := New(http.DefaultClient, nil)
	registry := values.MustNewRegistry("127.0.0.1:1")

	metadata := f.FetchOrDefault(context.Background(), registry)
	assert.Equal(t, "", metadata.PreferredProtocol)
}

func Test_MetadataURL_UsesPlainHTTPForLocalhost(t *testing.T) {
	registry := values.MustNewRegistry("localhost:8080")
	assert.Equal(t, "http://localhost:8080"+values.RegistryMetadataWellKnownPath, metadataURL(registry))

	registry = values.MustNewRegistry("registry.example.com")
	assert.Equal(t, "https://registry.example.com"+values.RegistryMetadataWellKnownPath, metadataURL(registry))
}

// registryFromServerURL builds a values.Registry whose host/port match an
// httptest server's "http://127.0.0.1:PORT" URL, so metadataURL's
// localhost special-case routes the fetch back at the fake server.
func registryFromServerURL(t *testing.T, serverURL string) values.Registry {
	t.Helper()
	const prefix = "http://"
	require.True(t, len(serverURL) > len(prefix) && serverURL[:len(prefix)] == prefix)
	return values.MustNewRegistry(serverURL[len(prefix):])
}
