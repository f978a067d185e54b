package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePackageRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNs  string
		wantNm  string
		wantErr bool
	}{
		{"simple", "wasi:http", "wasi", "http", false},
		{"second colon kept in name side", "wasi:http:extra", "wasi", "http:extra", true},
		{"missing separator", "wasihttp", "", "", true},
		{"empty namespace", ":http", "", "", true},
		{"empty name", "wasi:", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParsePackageRef(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNs, ref.Namespace().String())
			assert.Equal(t, tt.wantNm, ref.Name().String())
		})
	}
}

func Test_PackageRef_String(t *testing.T) {
	ref := MustParsePackageRef("wasi:http")
	assert.Equal(t, "wasi:http", ref.String())
}

func Test_PackageRef_Equals(t *testing.T) {
	a := MustParsePackageRef("wasi:http")
	b := MustParsePackageRef("wasi:http")
	c := MustParsePackageRef("wasi:cli")
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func Test_PackageRef_Compare(t *testing.T) {
	a := MustParsePackageRef("wasi:cli")
	b := MustParsePackageRef("wasi:http")
	c := MustParsePackageRef("acme:cli")
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, a.Compare(c))
}

func Test_PackageRef_JSON(t *testing.T) {
	original := MustParsePackageRef("wasi:http")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"wasi:http"`, string(data))

	var decoded PackageRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}
