// Package schema models the subset of JSON Schema understood by the client
// generator.
//
// Input schemas published by MCP servers are decoded into a closed set of
// Node variants. Anything outside the recognized subset becomes an *Unknown
// node so later stages can degrade to an untyped expression explicitly
// rather than by accident.
package schema

import "slices"

type (
	// Node is one JSON-Schema fragment. A nil Node means no schema was
	// provided at all.
	Node interface {
		// Variant returns a short, stable description of the node kind.
		Variant() string
	}

	// PrimitiveKind enumerates the JSON primitive types.
	PrimitiveKind string

	// Primitive is a scalar type such as "string" or "integer".
	Primitive struct {
		Kind PrimitiveKind
	}

	// StringEnum is an enum whose members are all strings. Values keep the
	// source order.
	StringEnum struct {
		Values []string
	}

	// Literal is a single constant value coming from "const" or from a
	// non-string "enum" member. Text holds the unquoted string for string
	// literals and the source token otherwise.
	Literal struct {
		Kind PrimitiveKind
		Text string
	}

	// Array is a homogeneous list. Item is nil when "items" is absent.
	Array struct {
		Item Node
	}

	// Object is a keyed structure. Properties keep the source order.
	Object struct {
		// Properties lists the declared properties.
		Properties []*Property
		// HasProperties is true when the schema carries a "properties"
		// keyword, even an empty one.
		HasProperties bool
		// Required lists the required property names. It only contains
		// names present in Properties.
		Required []string
		// Additional describes "additionalProperties", nil when absent.
		Additional *AdditionalProperties
	}

	// Property is a named object member.
	Property struct {
		Name        string
		Schema      Node
		Description string
	}

	// AdditionalProperties captures the "additionalProperties" keyword.
	// Allowed is false for `false`. Schema is nil for `true`.
	AdditionalProperties struct {
		Allowed bool
		Schema  Node
	}

	// Union is produced by "anyOf", "oneOf" and multi-valued "type".
	Union struct {
		Branches []Node
	}

	// Intersection is produced by "allOf".
	Intersection struct {
		Branches []Node
	}

	// Unknown is any schema shape outside the recognized subset.
	Unknown struct {
		Reason string
	}
)

const (
	KindString  PrimitiveKind = "string"
	KindNumber  PrimitiveKind = "number"
	KindInteger PrimitiveKind = "integer"
	KindBoolean PrimitiveKind = "boolean"
	KindNull    PrimitiveKind = "null"
)

// Variant implements Node.
func (*Primitive) Variant() string { return "primitive" }

// Variant implements Node.
func (*StringEnum) Variant() string { return "enum" }

// Variant implements Node.
func (*Literal) Variant() string { return "literal" }

// Variant implements Node.
func (*Array) Variant() string { return "array" }

// Variant implements Node.
func (*Object) Variant() string { return "object" }

// Variant implements Node.
func (*Union) Variant() string { return "union" }

// Variant implements Node.
func (*Intersection) Variant() string { return "intersection" }

// Variant implements Node.
func (*Unknown) Variant() string { return "unknown" }

// IsRequired reports whether name is listed as required.
func (o *Object) IsRequired(name string) bool {
	return slices.Contains(o.Required, name)
}

// Property returns the property with the given name or nil.
func (o *Object) Property(name string) *Property {
	for _, p := range o.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// AllowsAdditional reports whether properties beyond the declared ones are
// accepted and returns their schema (nil meaning untyped).
func (o *Object) AllowsAdditional() (Node, bool) {
	if o.Additional == nil || !o.Additional.Allowed {
		return nil, false
	}
	return o.Additional.Schema, true
}

// IsPrimitiveKind reports whether s names one of the JSON primitive types.
func IsPrimitiveKind(s string) bool {
	switch PrimitiveKind(s) {
	case KindString, KindNumber, KindInteger, KindBoolean, KindNull:
		return true
	}
	return false
}
