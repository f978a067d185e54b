package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "foo", false},
		{"dashed words", "foo-bar-baz", false},
		{"word with digits", "foo2-bar3", false},
		{"empty", "", true},
		{"trailing dash", "foo-", true},
		{"leading dash", "-foo", true},
		{"double dash", "foo--bar", true},
		{"uppercase", "Foo", true},
		{"digit first in word", "2foo", true},
		{"underscore", "foo_bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLabel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidLabel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, l.String())
		})
	}
}

func Test_MustNewLabel_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewLabel("")
	})
}

func Test_Label_Equals(t *testing.T) {
	a := MustNewLabel("foo")
	b := MustNewLabel("foo")
	c := MustNewLabel("bar")
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func Test_Label_Compare(t *testing.T) {
	a := MustNewLabel("bar")
	b := MustNewLabel("foo")
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(a))
}

func Test_Label_JSON(t *testing.T) {
	original := MustNewLabel("foo-bar")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"foo-bar"`, string(data))

	var decoded Label
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}

func Test_Label_Text(t *testing.T) {
	original := MustNewLabel("foo-bar")

	data, err := original.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", string(data))

	var decoded Label
	require.NoError(t, decoded.UnmarshalText(data))
	assert.True(t, original.Equals(decoded))
}
