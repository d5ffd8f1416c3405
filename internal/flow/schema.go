package flow

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id stamped on the generated document schema.
const SchemaID = "flowdoc://schema/flow"

// Schema returns the JSON Schema of a flow document, reflected from the Go
// types. Node data is described as a plain object since its shape depends
// on the node type.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&Flow{})
	s.ID = SchemaID
	s.Title = "Flow document"
	s.Description = fmt.Sprintf("A documented code path, format version %s.", FormatVersion)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return data, nil
}
