package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewRegistry(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHost string
		wantPort string
		wantErr  bool
	}{
		{"bare host", "registry.example.com", "registry.example.com", "", false},
		{"host and port", "registry.example.com:8080", "registry.example.com", "8080", false},
		{"uppercase normalized", "Registry.Example.COM", "registry.example.com", "", false},
		{"empty", "", "", "", true},
		{"with scheme-like slash", "https://registry.example.com", "", "", true},
		{"with userinfo", "user@registry.example.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRegistry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, r.Host())
			assert.Equal(t, tt.wantPort, r.Port())
		})
	}
}

func Test_Registry_CaseInsensitiveEquals(t *testing.T) {
	a := MustNewRegistry("Registry.Example.com")
	b := MustNewRegistry("registry.example.COM")
	assert.True(t, a.Equals(b))
}

func Test_Registry_WellKnownMetadataURL(t *testing.T) {
	r := MustNewRegistry("registry.example.com")
	assert.Equal(t, "https://registry.example.com/.well-known/wasm-pkg/registry.json", r.WellKnownMetadataURL())
}

func Test_Registry_String(t *testing.T) {
	assert.Equal(t, "registry.example.com", MustNewRegistry("registry.example.com").String())
	assert.Equal(t, "registry.example.com:8080", MustNewRegistry("registry.example.com:8080").String())
}
