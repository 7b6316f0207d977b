package index

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "format", "embedding_model", "dimensions", "chunk_count"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "build_id": {"type": "string"},
    "format": {"type": "string", "enum": ["jsonl", "sqlite"]},
    "embedding_model": {"type": "string", "minLength": 1},
    "dimensions": {"type": "integer", "minimum": 0},
    "chunk_count": {"type": "integer", "minimum": 0},
    "chunk_size": {"type": "integer", "minimum": 0},
    "chunk_overlap": {"type": "integer", "minimum": 0},
    "created_at": {"type": "string"}
  }
}`

var manifestSchemaLoader = gojsonschema.NewStringLoader(manifestSchema)

// ValidateManifest checks raw manifest JSON against the manifest schema.
func ValidateManifest(raw []byte) error {
	result, err := gojsonschema.Validate(manifestSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("manifest schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("invalid manifest: %s", strings.Join(errs, "; "))
}
