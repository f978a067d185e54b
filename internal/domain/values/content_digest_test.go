package values

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseContentDigest(t *testing.T) {
	sum := sha256.Sum256([]byte("hello world"))
	valid := "sha256:" + hexString(sum[:])

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"missing separator", "sha256abcd", true},
		{"unsupported algorithm", "sha512:abcd", true},
		{"bad hex", "sha256:not-hex", true},
		{"wrong length", "sha256:abcd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseContentDigest(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDigest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func Test_NewSHA256ContentDigest(t *testing.T) {
	sum := sha256.Sum256([]byte("hello world"))
	d, err := NewSHA256ContentDigest(sum[:])
	require.NoError(t, err)
	assert.Equal(t, "sha256", d.Algorithm())

	_, err = NewSHA256ContentDigest([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func Test_VerifyingReader_Success(t *testing.T) {
	content := []byte("the quick brown fox")
	sum := sha256.Sum256(content)
	digest, err := NewSHA256ContentDigest(sum[:])
	require.NoError(t, err)

	vr, err := NewVerifyingReader(strings.NewReader(string(content)), digest)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	for {
		_, err := vr.Read(buf)
		if err != nil {
			break
		}
	}
	assert.NoError(t, vr.Verify())
}

func Test_VerifyingReader_Mismatch(t *testing.T) {
	content := []byte("the quick brown fox")
	wrongSum := sha256.Sum256([]byte("a different payload"))
	digest, err := NewSHA256ContentDigest(wrongSum[:])
	require.NoError(t, err)

	vr, err := NewVerifyingReader(strings.NewReader(string(content)), digest)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	for {
		_, err := vr.Read(buf)
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, vr.Verify(), ErrDigestMismatch)
}

func Test_VerifyingReader_NotYetConsumed(t *testing.T) {
	content := []byte("partial")
	sum := sha256.Sum256(content)
	digest, err := NewSHA256ContentDigest(sum[:])
	require.NoError(t, err)

	vr, err := NewVerifyingReader(strings.NewReader(string(content)), digest)
	require.NoError(t, err)

	assert.ErrorIs(t, vr.Verify(), ErrDigestMismatch)
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}
