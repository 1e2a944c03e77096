package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// maxParseDepth bounds the nesting accepted when decoding a schema
	// document. Deeper fragments are decoded as *Unknown.
	maxParseDepth = 256
	// maxParseNodes bounds the number of schema nodes decoded from one
	// document. Aliases are expanded at each reference so a short document
	// can describe an exponentially large tree.
	maxParseNodes = 10000
)

// decoder counts the schema nodes decoded from one document.
type decoder struct {
	nodes int
}

// Parse decodes a JSON (or YAML) schema document. Property order is
// preserved. An empty document yields a nil Node. Parse only fails when data
// is not a valid JSON or YAML document; unrecognized schema shapes decode to
// *Unknown.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return FromYAML(&doc), nil
}

// FromYAML converts an already decoded document node into a Node. A nil or
// empty node yields nil.
func FromYAML(n *yaml.Node) Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null") {
		return nil
	}
	return (&decoder{}).decode(n, 0)
}

func (dec *decoder) decode(n *yaml.Node, depth int) Node {
	if depth > maxParseDepth {
		return &Unknown{Reason: "nesting too deep"}
	}
	if dec.nodes >= maxParseNodes {
		return &Unknown{Reason: "schema too large"}
	}
	dec.nodes++
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if n.ShortTag() == "!!bool" {
			return &Unknown{Reason: "boolean schema"}
		}
		return &Unknown{Reason: "scalar schema"}
	default:
		return &Unknown{Reason: "schema is not an object"}
	}
	m := mapping(n)

	if enum, ok := m["enum"]; ok {
		return decodeEnum(enum)
	}
	if c, ok := m["const"]; ok {
		if lit := literal(c); lit != nil {
			return lit
		}
		return &Unknown{Reason: "non-scalar const"}
	}
	if branches, ok := m["anyOf"]; ok {
		return &Union{Branches: dec.decodeList(branches, depth)}
	}
	if branches, ok := m["oneOf"]; ok {
		return &Union{Branches: dec.decodeList(branches, depth)}
	}
	if branches, ok := m["allOf"]; ok {
		return &Intersection{Branches: dec.decodeList(branches, depth)}
	}
	if t, ok := m["type"]; ok {
		t = resolve(t)
		switch t.Kind {
		case yaml.ScalarNode:
			return dec.typed(t.Value, m, depth)
		case yaml.SequenceNode:
			var branches []Node
			for _, item := range t.Content {
				item = resolve(item)
				if item.Kind != yaml.ScalarNode {
					branches = append(branches, &Unknown{Reason: "non-string type entry"})
					continue
				}
				branches = append(branches, dec.typed(item.Value, m, depth))
			}
			if len(branches) == 1 {
				return branches[0]
			}
			return &Union{Branches: branches}
		}
		return &Unknown{Reason: "invalid type keyword"}
	}
	if _, ok := m["properties"]; ok {
		return dec.decodeObject(m, depth)
	}
	if _, ok := m["additionalProperties"]; ok {
		return dec.decodeObject(m, depth)
	}
	if _, ok := m["items"]; ok {
		return dec.decodeArray(m, depth)
	}
	return &Unknown{Reason: "no recognized keyword"}
}

// typed decodes the schema held by m for one value of the "type" keyword.
func (dec *decoder) typed(kind string, m map[string]*yaml.Node, depth int) Node {
	switch kind {
	case "object":
		return dec.decodeObject(m, depth)
	case "array":
		return dec.decodeArray(m, depth)
	}
	if IsPrimitiveKind(kind) {
		return &Primitive{Kind: PrimitiveKind(kind)}
	}
	return &Unknown{Reason: fmt.Sprintf("unsupported type %q", kind)}
}

func (dec *decoder) decodeObject(m map[string]*yaml.Node, depth int) Node {
	obj := &Object{}
	if props, ok := m["properties"]; ok {
		props = resolve(props)
		if props.Kind == yaml.MappingNode {
			obj.HasProperties = true
			for i := 0; i+1 < len(props.Content); i += 2 {
				name := props.Content[i].Value
				if obj.Property(name) != nil {
					continue
				}
				val := props.Content[i+1]
				obj.Properties = append(obj.Properties, &Property{
					Name:        name,
					Schema:      dec.decode(val, depth+1),
					Description: description(val),
				})
			}
		}
	}
	if req, ok := m["required"]; ok {
		req = resolve(req)
		if req.Kind == yaml.SequenceNode {
			for _, r := range req.Content {
				name := resolve(r).Value
				if obj.Property(name) == nil || obj.IsRequired(name) {
					continue
				}
				obj.Required = append(obj.Required, name)
			}
		}
	}
	if ap, ok := m["additionalProperties"]; ok {
		ap = resolve(ap)
		switch {
		case ap.Kind == yaml.ScalarNode && ap.ShortTag() == "!!bool":
			obj.Additional = &AdditionalProperties{Allowed: ap.Value == "true"}
		case ap.Kind == yaml.MappingNode:
			obj.Additional = &AdditionalProperties{Allowed: true, Schema: dec.decode(ap, depth+1)}
		}
	}
	return obj
}

func (dec *decoder) decodeArray(m map[string]*yaml.Node, depth int) Node {
	items, ok := m["items"]
	if !ok {
		return &Array{}
	}
	items = resolve(items)
	switch items.Kind {
	case yaml.MappingNode:
		return &Array{Item: dec.decode(items, depth+1)}
	case yaml.SequenceNode:
		// Tuple form: every position is accepted, so the element type is the
		// union of the positional schemas.
		branches := dec.decodeList(items, depth)
		if len(branches) == 1 {
			return &Array{Item: branches[0]}
		}
		return &Array{Item: &Union{Branches: branches}}
	}
	return &Array{}
}

func decodeEnum(n *yaml.Node) Node {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return &Unknown{Reason: "empty enum"}
	}
	allStrings := true
	for _, v := range n.Content {
		v = resolve(v)
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			allStrings = false
			break
		}
	}
	if allStrings {
		values := make([]string, 0, len(n.Content))
		for _, v := range n.Content {
			values = append(values, resolve(v).Value)
		}
		return &StringEnum{Values: values}
	}
	branches := make([]Node, 0, len(n.Content))
	for _, v := range n.Content {
		lit := literal(v)
		if lit == nil {
			return &Unknown{Reason: "non-scalar enum member"}
		}
		branches = append(branches, lit)
	}
	if len(branches) == 1 {
		return branches[0]
	}
	return &Union{Branches: branches}
}

func (dec *decoder) decodeList(n *yaml.Node, depth int) []Node {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil
	}
	branches := make([]Node, 0, len(n.Content))
	for _, c := range n.Content {
		branches = append(branches, dec.decode(c, depth+1))
	}
	return branches
}

// literal returns the Literal for a scalar node or nil.
func literal(n *yaml.Node) *Literal {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return nil
	}
	switch n.ShortTag() {
	case "!!str":
		return &Literal{Kind: KindString, Text: n.Value}
	case "!!int":
		return &Literal{Kind: KindInteger, Text: n.Value}
	case "!!float":
		return &Literal{Kind: KindNumber, Text: n.Value}
	case "!!bool":
		return &Literal{Kind: KindBoolean, Text: n.Value}
	case "!!null":
		return &Literal{Kind: KindNull, Text: "null"}
	}
	return nil
}

func description(n *yaml.Node) string {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return ""
	}
	d, ok := mapping(n)["description"]
	if !ok {
		return ""
	}
	d = resolve(d)
	if d.Kind != yaml.ScalarNode {
		return ""
	}
	return d.Value
}

// mapping indexes the values of a mapping node by key. The first occurrence
// of a duplicated key wins.
func mapping(n *yaml.Node) map[string]*yaml.Node {
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if _, ok := m[k]; ok {
			continue
		}
		m[k] = n.Content[i+1]
	}
	return m
}

// resolve follows YAML aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for i := 0; n.Kind == yaml.AliasNode && n.Alias != nil && i < maxParseDepth; i++ {
		n = n.Alias
	}
	return n
}
