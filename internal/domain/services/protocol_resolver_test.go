package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

func Test_ProtocolResolverChain_ExplicitWins(t *testing.T) {
	chain := NewDefaultProtocolResolverChain()
	in := ProtocolResolutionInput{
		Registry:  values.MustNewRegistry("registry.example.com"),
		RegConfig: entities.RegistryConfig{Protocol: entities.ProtocolSignedLog},
		Metadata:  entities.RegistryMetadata{PreferredProtocol: entities.ProtocolOCI},
		HasMetadata: true,
	}

	protocol, err := chain.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entities.ProtocolSignedLog, protocol)
}

func Test_ProtocolResolverChain_MetadataPreferred(t *testing.T) {
	chain := NewDefaultProtocolResolverChain()
	in := ProtocolResolutionInput{
		Registry:    values.MustNewRegistry("registry.example.com"),
		Metadata:    entities.RegistryMetadata{PreferredProtocol: entities.ProtocolSignedLog},
		HasMetadata: true,
	}

	protocol, err := chain.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entities.ProtocolSignedLog, protocol)
}

func Test_ProtocolResolverChain_FallsBackToOCI(t *testing.T) {
	chain := NewDefaultProtocolResolverChain()
	in := ProtocolResolutionInput{Registry: values.MustNewRegistry("registry.example.com")}

	protocol, err := chain.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entities.ProtocolOCI, protocol)
}

func Test_ProtocolResolverChain_DisallowsFetchedLocalFS(t *testing.T) {
	chain := NewDefaultProtocolResolverChain()
	in := ProtocolResolutionInput{
		Registry:    values.MustNewRegistry("registry.example.com"),
		Metadata:    entities.RegistryMetadata{PreferredProtocol: entities.ProtocolLocalFS},
		HasMetadata: true,
	}

	_, err := chain.Resolve(context.Background(), in)
	var metaErr *InvalidRegistryMetadataError
	assert.ErrorAs(t, err, &metaErr)
}
