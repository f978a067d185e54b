package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

func Test_Static_Get_MatchesConfiguredRegistry(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	s := NewStatic(registry, "alice", "hunter2")

	username, password, ok, err := s.Get(context.Background(), registry)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "hunter2", password)
}

func Test_Static_Get_MissesOtherRegistry(t *testing.T) {
	s := NewStatic(values.MustNewRegistry("registry.example.com"), "alice", "hunter2")

	_, _, ok, err := s.Get(context.Background(), values.MustNewRegistry("other.example.com"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Static_Get_EmptyCredentialsAlwaysMiss(t *testing.T) {
	registry := values.MustNewRegistry("registry.example.com")
	s := NewStatic(registry, "", "")

	_, _, ok, err := s.Get(context.Background(), registry)
	require.NoError(t, err)
	assert.False(t, ok)
}
