package typescript

import (
	"goa.design/mcpgen/codegen/naming"
	"goa.design/mcpgen/codegen/schema"
)

// ValueMember is the name of the single member wrapping inputs that are not
// objects with properties.
const ValueMember = "value"

type (
	// Declaration is a named interface describing the input of one
	// operation.
	Declaration struct {
		// Name is the interface identifier, e.g. "CreatePageInput".
		Name string
		// Operation is the exact name of the operation it describes.
		Operation string
		// Doc is the operation description, empty when comments are off.
		Doc string
		// Members lists the interface members in schema order.
		Members []*Member
	}

	// Member is one interface member.
	Member struct {
		// Name is the property name as declared by the schema.
		Name string
		// Type is the synthesized type expression.
		Type string
		// Optional is set for properties missing from "required".
		Optional bool
		// Doc is the property description, empty when comments are off.
		Doc string
		// Index marks the string index signature member.
		Index bool
	}
)

// BuildDeclaration builds the input declaration of an operation. It returns
// nil when the operation takes no argument: no input schema, or an object
// schema with an empty properties map that accepts nothing else.
//
// Objects with properties yield one member per property so that each keeps
// its own documentation and optionality. Any other input yields a single
// "value" member typed by the whole schema.
func BuildDeclaration(operation, description string, input schema.Node, opts *Options) (*Declaration, error) {
	if input == nil {
		return nil, nil
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	d := &Declaration{
		Name:      naming.TypeName(operation),
		Operation: operation,
		Doc:       docIf(opts, description),
	}
	obj, ok := input.(*schema.Object)
	if !ok || !obj.HasProperties {
		t, err := SynthesizeStrict(input)
		if err != nil {
			return nil, err
		}
		d.Members = []*Member{{Name: ValueMember, Type: t}}
		return d, nil
	}
	for _, p := range obj.Properties {
		t, err := SynthesizeStrict(p.Schema)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, &Member{
			Name:     p.Name,
			Type:     t,
			Optional: !obj.IsRequired(p.Name),
			Doc:      docIf(opts, p.Description),
		})
	}
	if additional, allowed := obj.AllowsAdditional(); allowed {
		t := AnyType
		if additional != nil {
			var err error
			if t, err = SynthesizeStrict(additional); err != nil {
				return nil, err
			}
		}
		types := make([]string, len(d.Members))
		for i, m := range d.Members {
			types[i] = m.Type
		}
		d.Members = append(d.Members, &Member{Type: indexType(t, types), Index: true})
	}
	if len(d.Members) == 0 {
		return nil, nil
	}
	return d, nil
}

func docIf(opts *Options, doc string) string {
	if !opts.IncludeComments {
		return ""
	}
	return doc
}
