package typescript

import (
	"errors"
	"fmt"
	"strings"

	"goa.design/mcpgen/codegen/naming"
	"goa.design/mcpgen/codegen/schema"
)

const (
	// AnyType is the universal fallback type.
	AnyType = "any"
	// OpenObjectType is used for objects without a properties map.
	OpenObjectType = "Record<string, any>"
	// ClosedObjectType is used for objects with an empty properties map
	// that do not allow additional properties.
	ClosedObjectType = "Record<string, never>"
	// MaxDepth is the deepest schema nesting SynthesizeStrict accepts.
	MaxDepth = 64
)

// ErrSchemaTooDeep is returned by SynthesizeStrict for schemas nested deeper
// than MaxDepth, which includes self-referencing node graphs.
var ErrSchemaTooDeep = errors.New("schema nesting exceeds maximum depth")

// precedence of a rendered type expression, used to decide when operands
// must be parenthesized.
type precedence int

const (
	precUnion precedence = iota
	precIntersection
	precPrimary
)

type synthesizer struct {
	strict bool
}

// Synthesize maps a schema node to a TypeScript type expression. It never
// fails: unrecognized shapes, and subtrees nested deeper than MaxDepth,
// render as "any".
func Synthesize(n schema.Node) string {
	s, _, _ := synthesizer{}.expr(n, 0)
	return s
}

// SynthesizeStrict is Synthesize but reports ErrSchemaTooDeep instead of
// degrading subtrees nested deeper than MaxDepth.
func SynthesizeStrict(n schema.Node) (string, error) {
	s, _, err := synthesizer{strict: true}.expr(n, 0)
	if err != nil {
		return "", err
	}
	return s, nil
}

func (sy synthesizer) expr(n schema.Node, depth int) (string, precedence, error) {
	if depth > MaxDepth {
		if sy.strict {
			return "", 0, fmt.Errorf("%w (%d levels)", ErrSchemaTooDeep, MaxDepth)
		}
		return AnyType, precPrimary, nil
	}
	switch n := n.(type) {
	case nil:
		return AnyType, precPrimary, nil
	case *schema.Primitive:
		return primitive(n.Kind), precPrimary, nil
	case *schema.Literal:
		return literal(n), precPrimary, nil
	case *schema.StringEnum:
		if len(n.Values) == 0 {
			return AnyType, precPrimary, nil
		}
		lits := make([]string, len(n.Values))
		for i, v := range n.Values {
			lits[i] = quote(v)
		}
		if len(lits) == 1 {
			return lits[0], precPrimary, nil
		}
		return strings.Join(lits, " | "), precUnion, nil
	case *schema.Array:
		item, prec, err := sy.expr(n.Item, depth+1)
		if err != nil {
			return "", 0, err
		}
		if prec < precPrimary {
			item = "(" + item + ")"
		}
		return item + "[]", precPrimary, nil
	case *schema.Object:
		s, err := sy.object(n, depth)
		return s, precPrimary, err
	case *schema.Union:
		return sy.join(n.Branches, depth, " | ", precUnion)
	case *schema.Intersection:
		return sy.join(n.Branches, depth, " & ", precIntersection)
	}
	return AnyType, precPrimary, nil
}

// join renders composition branches. Duplicate branch expressions are
// emitted once, in first-occurrence order.
func (sy synthesizer) join(branches []schema.Node, depth int, sep string, prec precedence) (string, precedence, error) {
	var (
		parts []string
		precs []precedence
		seen  = make(map[string]struct{}, len(branches))
	)
	for _, b := range branches {
		s, p, err := sy.expr(b, depth+1)
		if err != nil {
			return "", 0, err
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		parts = append(parts, s)
		precs = append(precs, p)
	}
	switch len(parts) {
	case 0:
		return AnyType, precPrimary, nil
	case 1:
		return parts[0], precs[0], nil
	}
	for i, p := range precs {
		if p < prec {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep), prec, nil
}

func (sy synthesizer) object(o *schema.Object, depth int) (string, error) {
	additional, allowed := o.AllowsAdditional()
	if !o.HasProperties {
		if !allowed || additional == nil {
			return OpenObjectType, nil
		}
		t, _, err := sy.expr(additional, depth+1)
		if err != nil {
			return "", err
		}
		return "Record<string, " + t + ">", nil
	}
	if len(o.Properties) == 0 && !allowed {
		return ClosedObjectType, nil
	}
	members := make([]string, 0, len(o.Properties)+1)
	types := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		t, _, err := sy.expr(p.Schema, depth+1)
		if err != nil {
			return "", err
		}
		members = append(members, propertySignature(p.Name, !o.IsRequired(p.Name), t))
		types = append(types, t)
	}
	if allowed {
		t := AnyType
		if additional != nil {
			var err error
			if t, _, err = sy.expr(additional, depth+1); err != nil {
				return "", err
			}
		}
		members = append(members, indexSignature(indexType(t, types)))
	}
	return "{ " + strings.Join(members, "; ") + " }", nil
}

func primitive(k schema.PrimitiveKind) string {
	switch k {
	case schema.KindString:
		return "string"
	case schema.KindNumber, schema.KindInteger:
		return "number"
	case schema.KindBoolean:
		return "boolean"
	case schema.KindNull:
		return "null"
	}
	return AnyType
}

func literal(l *schema.Literal) string {
	switch l.Kind {
	case schema.KindString:
		return quote(l.Text)
	case schema.KindNull:
		return "null"
	}
	return l.Text
}

// propertySignature renders `name: type` with the optional marker and key
// quoting applied.
func propertySignature(name string, optional bool, typ string) string {
	var b strings.Builder
	b.WriteString(propertyKey(name))
	if optional {
		b.WriteByte('?')
	}
	b.WriteString(": ")
	b.WriteString(typ)
	return b.String()
}

// indexType widens the additional properties type with the declared property
// types: TypeScript requires every property of an object type to conform to
// its string index signature.
func indexType(additional string, properties []string) string {
	if additional == AnyType {
		return AnyType
	}
	parts := []string{additional}
	seen := map[string]struct{}{additional: {}}
	for _, p := range properties {
		if p == AnyType {
			return AnyType
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		parts = append(parts, p)
	}
	return strings.Join(parts, " | ")
}

func indexSignature(typ string) string {
	return "[key: string]: " + typ
}

// propertyKey returns name unchanged when it is a valid identifier and as a
// quoted string otherwise.
func propertyKey(name string) string {
	if naming.IsIdentifier(name) {
		return name
	}
	return quote(name)
}
