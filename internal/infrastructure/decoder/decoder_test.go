package decoder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Decoder_Decode_RecoversPackageAndForeignDeps(t *testing.T) {
	data := buildModule(t,
		customSectionBytes("component-name", "wasi:http"),
		customSectionBytes("producers", "wasi:io/streams@0.2.0 wasi:clocks/monotonic-clock"),
	)

	d := New(context.Background())
	defer d.Close(context.Background())

	dep, err := d.Decode(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "wasi:http", dep.Package.String())
	byName := make(map[string]string, len(dep.ForeignDependencies))
	for _, f := range dep.ForeignDependencies {
		byName[f.Package.String()] = f.Requirement.String()
	}
	require.Contains(t, byName, "wasi:io")
	assert.Equal(t, "0.2.0", byName["wasi:io"])
	require.Contains(t, byName, "wasi:clocks")
	assert.Equal(t, "*", byName["wasi:clocks"])
	assert.NotContains(t, byName, "wasi:http")
}

func Test_Decoder_DecodeLocal_FindsSingleWasmFileInDirectory(t *testing.T) {
	dir := t.TempDir()
	data := buildModule(t, customSectionBytes("component-name", "wasi:random"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.wasm"), data, 0o644))

	d := New(context.Background())
	defer d.Close(context.Background())

	dep, err := d.DecodeLocal(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "wasi:random", dep.Package.String())
}

func Test_Decoder_Decode_RejectsBadMagic(t *testing.T) {
	d := New(context.Background())
	defer d.Close(context.Background())

	_, err := d.Decode(context.Background(), bytes.NewReader([]byte("not-a-wasm-binary-at-all")))
	require.Error(t, err)
}

// buildModule assembles a minimal valid core wasm module: the standard
// 8-byte header followed by the given pre-encoded custom sections.
func buildModule(t *testing.T, sections ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	for _, s := range sections {
		buf.Write(s)
	}
	return buf.Bytes()
}

// customSectionBytes encodes one custom section (id 0, uleb128 size,
// uleb128-length-prefixed name, then payload bytes).
func customSectionBytes(name, payload string) []byte {
	var body bytes.Buffer
	body.Write(uleb128(uint64(len(name))))
	body.WriteString(name)
	body.WriteString(payload)

	var out bytes.Buffer
	out.WriteByte(0x00)
	out.Write(uleb128(uint64(body.Len())))
	out.Write(body.Bytes())
	return out.Bytes()
}

func uleb128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}
