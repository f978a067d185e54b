// Package decoder implements the DependencyDecoder port (spec.md §4.7's
// "dependency-graph decoding" step) against the custom sections of a
// compiled wasm binary, rather than a full WIT/component-model parser
// (out of scope per spec.md §1).
//
// A component binary advertises its own package identity and the
// packages it imports from in a custom "component-name" section, the
// same length-prefixed custom-section framing a plain core module uses
// for its "name" section. Reading that is enough to recover a package
// id and its foreign-dependency edges without pulling in a full WIT
// resolver.
package decoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/tetratelabs/wazero"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// packageRefPattern matches a namespace:name package reference as it
// appears embedded in a component's import and name-section strings,
// with an optional "/interface" path segment (discarded) and an
// optional "@version" suffix (captured, group 2) recording the version
// the import was taken against.
var packageRefPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9-]*:[a-z0-9][a-z0-9-]*(?:[a-z0-9-]*:[a-z0-9-]+)?)(?:/[a-zA-Z0-9][a-zA-Z0-9-]*)?(?:@([0-9][a-zA-Z0-9.+-]*))?`)

// Decoder decodes wasm binaries into entities.DecodedDependency.
type Decoder struct {
	runtime wazero.Runtime
}

// New constructs a Decoder. Close should be called when the decoder is
// no longer needed, to release wazero's compilation cache.
func New(ctx context.Context) *Decoder {
	return &Decoder{runtime: wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCustomSections(true))}
}

// Close releases the underlying wazero runtime.
func (d *Decoder) Close(ctx context.Context) error {
	return d.runtime.Close(ctx)
}

var _ ports.DependencyDecoder = (*Decoder)(nil)

// Decode parses fetched package content (a wasm binary) into a
// DecodedDependency.
func (d *Decoder) Decode(ctx context.Context, content io.Reader) (entities.DecodedDependency, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return entities.DecodedDependency{}, &domainservices.InvalidComponentError{Reason: fmt.Sprintf("reading content: %v", err)}
	}
	return d.decode(ctx, data)
}

// DecodeLocal parses a local package: path may name a wasm binary
// directly, or a directory containing exactly one. Directories holding
// raw WIT source rather than a compiled binary are not supported; a
// full WIT resolver is out of scope (spec.md §1).
func (d *Decoder) DecodeLocal(ctx context.Context, path string) (entities.DecodedDependency, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entities.DecodedDependency{}, &domainservices.InvalidComponentError{Reason: fmt.Sprintf("stat %s: %v", path, err)}
	}

	wasmPath := path
	if info.IsDir() {
		found, err := findSingleWasmFile(path)
		if err != nil {
			return entities.DecodedDependency{}, err
		}
		wasmPath = found
	}

	data, err := os.ReadFile(wasmPath)
	if err != nil {
		return entities.DecodedDependency{}, &domainservices.InvalidComponentError{Reason: fmt.Sprintf("reading %s: %v", wasmPath, err)}
	}
	return d.decode(ctx, data)
}

func findSingleWasmFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &domainservices.InvalidComponentError{Reason: fmt.Sprintf("reading directory %s: %v", dir, err)}
	}
	var found string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wasm" {
			continue
		}
		if found != "" {
			return "", &domainservices.InvalidComponentError{Reason: fmt.Sprintf("directory %s has more than one .wasm file", dir)}
		}
		found = filepath.Join(dir, e.Name())
	}
	if found == "" {
		return "", &domainservices.InvalidComponentError{Reason: fmt.Sprintf("directory %s has no .wasm file", dir)}
	}
	return found, nil
}

func (d *Decoder) decode(ctx context.Context, data []byte) (entities.DecodedDependency, error) {
	sections, err := customSections(ctx, d.runtime, data)
	if err != nil {
		return entities.DecodedDependency{}, err
	}

	var ownName string
	refs := make(map[string]string) // ref -> version ("" if none found)
	for _, s := range sections {
		for _, match := range packageRefPattern.FindAllSubmatch(s.data, -1) {
			ref := string(match[1])
			version := string(match[2])
			if existing, ok := refs[ref]; !ok || (existing == "" && version != "") {
				refs[ref] = version
			}
		}
		if s.name == "component-name" && ownName == "" {
			if match := packageRefPattern.FindSubmatch(s.data); match != nil {
				ownName = string(match[1])
			}
		}
	}

	var pkg values.PackageRef
	var havePkg bool
	if ownName != "" {
		if parsed, err := values.ParsePackageRef(ownName); err == nil {
			pkg = parsed
			havePkg = true
			delete(refs, ownName)
		}
	}

	foreign := make([]entities.ForeignDependency, 0, len(refs))
	for ref, version := range refs {
		parsed, err := values.ParsePackageRef(ref)
		if err != nil {
			continue
		}
		if havePkg && parsed.Equals(pkg) {
			continue
		}
		req, err := values.NewVersionRequirement(version)
		if err != nil {
			req = values.MustNewVersionRequirement("*")
		}
		foreign = append(foreign, entities.ForeignDependency{Package: parsed, Requirement: req})
	}
	sort.Slice(foreign, func(i, j int) bool { return foreign[i].Package.String() < foreign[j].Package.String() })

	return entities.DecodedDependency{Package: pkg, ForeignDependencies: foreign}, nil
}

type customSection struct {
	name string
	data []byte
}

// customSections extracts every top-level custom section from data.
// wazero's compiler only understands the core-module section layout, so
// it is tried first (it also validates the binary); component binaries,
// which reuse core wasm's custom-section framing for their own sections
// but diverge in every other section's meaning, fall back to a
// hand-written scan of that shared framing.
func customSections(ctx context.Context, runtime wazero.Runtime, data []byte) ([]customSection, error) {
	if compiled, err := runtime.CompileModule(ctx, data); err == nil {
		defer compiled.Close(ctx)
		out := make([]customSection, 0, len(compiled.CustomSections()))
		for _, s := range compiled.CustomSections() {
			out = append(out, customSection{name: s.Name(), data: s.Data()})
		}
		return out, nil
	}
	return scanCustomSections(data)
}

// scanCustomSections walks the raw wasm binary section stream looking
// for custom sections (section id 0), without validating or decoding any
// other section. Binary layout: 4-byte magic, 4-byte version, then a
// sequence of (id byte, uleb128 size, payload) sections; a custom
// section's payload opens with a uleb128-length-prefixed name string.
func scanCustomSections(data []byte) ([]customSection, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], []byte{0x00, 0x61, 0x73, 0x6d}) {
		return nil, &domainservices.InvalidComponentError{Reason: "not a wasm binary (bad magic)"}
	}

	var sections []customSection
	pos := 8
	for pos < len(data) {
		id := data[pos]
		pos++
		size, n, err := readULEB128(data[pos:])
		if err != nil {
			return nil, &domainservices.InvalidComponentError{Reason: fmt.Sprintf("malformed section header: %v", err)}
		}
		pos += n
		if pos+int(size) > len(data) {
			return nil, &domainservices.InvalidComponentError{Reason: "section payload overruns binary"}
		}
		payload := data[pos : pos+int(size)]
		pos += int(size)

		if id != 0 {
			continue
		}
		nameLen, n, err := readULEB128(payload)
		if err != nil {
			continue
		}
		if n+int(nameLen) > len(payload) {
			continue
		}
		name := string(payload[n : n+int(nameLen)])
		sections = append(sections, customSection{name: name, data: payload[n+int(nameLen):]})
	}
	return sections, nil
}

func readULEB128(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, by := range b {
		result |= uint64(by&0x7f) << shift
		if by&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("uleb128 overflow")
		}
	}
	return 0, 0, fmt.Errorf("truncated uleb128")
}
