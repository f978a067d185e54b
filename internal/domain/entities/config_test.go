package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

func Test_Config_ResolveRegistry_PriorityOrder(t *testing.T) {
	pkg := values.MustParsePackageRef("acme:http")
	pkgOverride := values.MustNewRegistry("override.example.com")
	nsRegistry := values.MustNewRegistry("namespace.example.com")
	defaultRegistry := values.MustNewRegistry("default.example.com")
	fallbackRegistry := values.MustNewRegistry("fallback.example.com")

	t.Run("package override wins over everything", func(t *testing.T) {
		c := NewConfig()
		c.SetPackageOverride(pkg, pkgOverride)
		c.SetNamespaceRegistry(pkg.Namespace(), nsRegistry)
		c.DefaultRegistry = &defaultRegistry
		c.SetFallbackNamespaceRegistry(pkg.Namespace(), fallbackRegistry)

		r, ok := c.ResolveRegistry(pkg)
		assert.True(t, ok)
		assert.True(t, r.Equals(pkgOverride))
	})

	t.Run("namespace wins over default and fallback", func(t *testing.T) {
		c := NewConfig()
		c.SetNamespaceRegistry(pkg.Namespace(), nsRegistry)
		c.DefaultRegistry = &defaultRegistry
		c.SetFallbackNamespaceRegistry(pkg.Namespace(), fallbackRegistry)

		r, ok := c.ResolveRegistry(pkg)
		assert.True(t, ok)
		assert.True(t, r.Equals(nsRegistry))
	})

	t.Run("default wins over fallback", func(t *testing.T) {
		c := NewConfig()
		c.DefaultRegistry = &defaultRegistry
		c.SetFallbackNamespaceRegistry(pkg.Namespace(), fallbackRegistry)

		r, ok := c.ResolveRegistry(pkg)
		assert.True(t, ok)
		assert.True(t, r.Equals(defaultRegistry))
	})

	t.Run("fallback used as last resort", func(t *testing.T) {
		c := NewConfig()
		c.SetFallbackNamespaceRegistry(pkg.Namespace(), fallbackRegistry)

		r, ok := c.ResolveRegistry(pkg)
		assert.True(t, ok)
		assert.True(t, r.Equals(fallbackRegistry))
	})

	t.Run("no registry configured at all for a namespace with no built-in fallback", func(t *testing.T) {
		c := NewConfig()
		_, ok := c.ResolveRegistry(pkg)
		assert.False(t, ok)
	})
}

func Test_Config_ResolveRegistry_BuiltInNamespaceFallbacks(t *testing.T) {
	c := NewConfig()

	r, ok := c.ResolveRegistry(values.MustParsePackageRef("wasi:http"))
	assert.True(t, ok)
	assert.Equal(t, "bytecodealliance.org", r.String())

	r, ok = c.ResolveRegistry(values.MustParsePackageRef("ba:some-package"))
	assert.True(t, ok)
	assert.Equal(t, "bytecodealliance.org", r.String())

	_, ok = c.ResolveRegistry(values.MustParsePackageRef("acme:http"))
	assert.False(t, ok)
}

func Test_Config_SetFallbackNamespaceRegistry_OverridesBuiltInDefault(t *testing.T) {
	c := NewConfig()
	custom := values.MustNewRegistry("custom-wasi-mirror.example.com")
	c.SetFallbackNamespaceRegistry(values.MustNewLabel("wasi"), custom)

	r, ok := c.ResolveRegistry(values.MustParsePackageRef("wasi:http"))
	assert.True(t, ok)
	assert.True(t, r.Equals(custom))

	// the other built-in default is untouched.
	r, ok = c.ResolveRegistry(values.MustParsePackageRef("ba:some-package"))
	assert.True(t, ok)
	assert.Equal(t, "bytecodealliance.org", r.String())
}

func Test_Config_RegistryConfigFor(t *testing.T) {
	c := NewConfig()
	r := values.MustNewRegistry("registry.example.com")
	_, ok := c.RegistryConfigFor(r)
	assert.False(t, ok)

	c.Registries[r.String()] = RegistryConfig{Protocol: ProtocolOCI}
	rc, ok := c.RegistryConfigFor(r)
	assert.True(t, ok)
	assert.Equal(t, ProtocolOCI, rc.Protocol)
}
