package registrymeta

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metadataSchemaSource is a permissive JSON Schema for the well-known
// registry metadata document (spec.md §4.3): it only pins down the
// shape of the known legacy alias fields, since the document's whole
// point is to carry an open-ended, per-protocol configuration object
// alongside them (entities.RegistryMetadata.ProtocolConfigs). A
// document that isn't even a JSON object, or that sends a non-string
// value for one of the known fields, is rejected before decoding
// rather than silently producing a zero-value legacy field.
const metadataSchemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"preferredProtocol": {"type": "string"},
		"ociRegistry": {"type": "string"},
		"ociNamespacePrefix": {"type": "string"},
		"wargUrl": {"type": "string"}
	}
}`

var metadataSchema = mustCompileMetadataSchema()

func mustCompileMetadataSchema() *jsonschema.Schema {
	schema, err := jsonschema.CompileString("registry-metadata.schema.json", metadataSchemaSource)
	if err != nil {
		panic(fmt.Sprintf("registrymeta: invalid embedded schema: %v", err))
	}
	return schema
}

// validateMetadataDocument checks raw against metadataSchema before it
// is handed to entities.RegistryMetadata's custom decoder, so a
// malformed document is diagnosed against the shape it violates rather
// than whatever field json.Unmarshal happened to choke on first.
func validateMetadataDocument(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding metadata document as JSON: %w", err)
	}
	return metadataSchema.Validate(doc)
}
