package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyArg(t *testing.T) {
	t.Parallel()

	t.Run("with requirement", func(t *testing.T) {
		t.Parallel()
		in, err := parseDependencyArg("wasi:http@^0.2")
		require.NoError(t, err)
		assert.Equal(t, "wasi:http", in.Package.String())
		assert.Equal(t, "^0.2", in.Requirement.String())
	})

	t.Run("bare package defaults to wildcard requirement", func(t *testing.T) {
		t.Parallel()
		in, err := parseDependencyArg("wasi:io")
		require.NoError(t, err)
		assert.Equal(t, "wasi:io", in.Package.String())
		assert.Equal(t, "*", in.Requirement.String())
	})

	t.Run("invalid package ref", func(t *testing.T) {
		t.Parallel()
		_, err := parseDependencyArg("not-a-package-ref")
		assert.Error(t, err)
	})

	t.Run("invalid requirement", func(t *testing.T) {
		t.Parallel()
		_, err := parseDependencyArg("wasi:http@not-a-constraint")
		assert.Error(t, err)
	})
}
