package entities

import "encoding/json"

// Well-known protocol names. "oci" talks to an OCI-compatible artifact
// registry; "signedlog" talks to an append-only transparency log registry
// (this client's take on the Warg protocol); "localfs" serves packages out
// of a directory on disk, used for offline development and tests.
const (
	ProtocolOCI       = "oci"
	ProtocolSignedLog = "signedlog"
	ProtocolLocalFS   = "localfs"
)

// RegistryMetadata is the document a registry host serves at
// values.RegistryMetadataWellKnownPath, advertising which backend
// protocol(s) it speaks and any protocol-specific configuration (spec.md
// §4.2, §6). Field shape mirrors the legacy aliases carried over from the
// wasm-pkg-tools registry.json format: an older registry may publish bare
// "ociRegistry"/"ociNamespacePrefix"/"wargUrl" fields instead of a
// protocolConfigs map. ConfiguredProtocols and ResolvePreferredProtocol
// treat both forms alike. The OCI and signed-log drivers take the
// registry host, namespace prefix and log URL from the legacy fields
// only; those values inside a per-protocol configuration object are
// not read.
type RegistryMetadata struct {
	PreferredProtocol string                     `json:"preferredProtocol,omitempty"`
	ProtocolConfigs   map[string]json.RawMessage `json:"-"`

	// Legacy aliases, present on older registries that predate
	// protocolConfigs.
	OCIRegistry        string `json:"ociRegistry,omitempty"`
	OCINamespacePrefix string `json:"ociNamespacePrefix,omitempty"`
	SignedLogURL       string `json:"wargUrl,omitempty"`
}

// registryMetadataWire is the on-the-wire shape: protocolConfigs is
// flattened into the top-level object in the original format, so it is
// decoded separately and the known keys subtracted out.
type registryMetadataWire struct {
	PreferredProtocol  string `json:"preferredProtocol,omitempty"`
	OCIRegistry        string `json:"ociRegistry,omitempty"`
	OCINamespacePrefix string `json:"ociNamespacePrefix,omitempty"`
	SignedLogURL       string `json:"wargUrl,omitempty"`
}

var knownTopLevelKeys = map[string]bool{
	"preferredProtocol":  true,
	"ociRegistry":        true,
	"ociNamespacePrefix": true,
	"wargUrl":            true,
}

// UnmarshalJSON implements json.Unmarshaler, splitting the known top-level
// alias fields from the flattened per-protocol configuration objects.
func (m *RegistryMetadata) UnmarshalJSON(data []byte) error {
	var wire registryMetadataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	configs := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if knownTopLevelKeys[k] {
			continue
		}
		configs[k] = v
	}
	m.PreferredProtocol = wire.PreferredProtocol
	m.OCIRegistry = wire.OCIRegistry
	m.OCINamespacePrefix = wire.OCINamespacePrefix
	m.SignedLogURL = wire.SignedLogURL
	m.ProtocolConfigs = configs
	return nil
}

// MarshalJSON implements json.Marshaler, re-flattening ProtocolConfigs back
// into the top-level object.
func (m RegistryMetadata) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range m.ProtocolConfigs {
		out[k] = v
	}
	wire := registryMetadataWire{
		PreferredProtocol:  m.PreferredProtocol,
		OCIRegistry:        m.OCIRegistry,
		OCINamespacePrefix: m.OCINamespacePrefix,
		SignedLogURL:       m.SignedLogURL,
	}
	wireData, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	var wireMap map[string]json.RawMessage
	if err := json.Unmarshal(wireData, &wireMap); err != nil {
		return nil, err
	}
	for k, v := range wireMap {
		out[k] = v
	}
	return json.Marshal(out)
}

// legacyImpliedProtocols reports which protocols the deprecated bare
// fields imply are configured, even with no protocolConfigs entry.
func (m RegistryMetadata) legacyImpliedProtocols() []string {
	var protos []string
	if m.OCIRegistry != "" || m.OCINamespacePrefix != "" {
		protos = append(protos, ProtocolOCI)
	}
	if m.SignedLogURL != "" {
		protos = append(protos, ProtocolSignedLog)
	}
	return protos
}

// ConfiguredProtocols returns every protocol name this registry has
// configuration for, from either protocolConfigs or a legacy alias.
func (m RegistryMetadata) ConfiguredProtocols() []string {
	seen := map[string]bool{}
	var out []string
	for proto := range m.ProtocolConfigs {
		if !seen[proto] {
			seen[proto] = true
			out = append(out, proto)
		}
	}
	for _, proto := range m.legacyImpliedProtocols() {
		if !seen[proto] {
			seen[proto] = true
			out = append(out, proto)
		}
	}
	return out
}

// ResolvePreferredProtocol determines which protocol a client without an
// explicit override should speak to this registry: the explicit
// preferredProtocol field if set, else the sole configured protocol if
// there is exactly one, else "" (none configured, or several with no
// preference; the protocol-resolution chain then falls through to its
// next link).
func (m RegistryMetadata) ResolvePreferredProtocol() string {
	if m.PreferredProtocol != "" {
		return m.PreferredProtocol
	}
	protos := m.ConfiguredProtocols()
	if len(protos) == 1 {
		return protos[0]
	}
	return ""
}

// ProtocolConfig decodes the configuration object for the named protocol
// into a caller-supplied type, returning ok=false if no such protocol has
// been configured.
func ProtocolConfig[T any](m RegistryMetadata, protocol string) (cfg T, ok bool, err error) {
	raw, present := m.ProtocolConfigs[protocol]
	if !present {
		return cfg, false, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, true, err
	}
	return cfg, true, nil
}
