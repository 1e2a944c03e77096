package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validate reports whether data is a well-formed JSON Schema document. It
// compiles the document against its meta-schema without resolving remote
// references.
func Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}
	return compile(doc)
}

// ValidateYAML is Validate for an already decoded document node.
func ValidateYAML(n *yaml.Node) error {
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}
	// Round-trip through JSON so the compiler sees JSON-native value types.
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return Validate(data)
}

func compile(doc any) error {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	if _, err := c.Compile("schema.json"); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}
