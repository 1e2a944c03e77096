package typescript

import (
	"fmt"

	"goa.design/mcpgen/capability"
	"goa.design/mcpgen/codegen/naming"
	"goa.design/mcpgen/codegen/schema"
)

// MethodKind identifies what a generated method does.
type MethodKind string

const (
	// MethodOperation invokes a tool.
	MethodOperation MethodKind = "operation"
	// MethodReadResource is the generic read-by-URI accessor.
	MethodReadResource MethodKind = "read-resource"
	// MethodResource reads one named resource.
	MethodResource MethodKind = "resource"
	// MethodPrompt retrieves a prompt.
	MethodPrompt MethodKind = "prompt"
)

// ReadResourceMethod is the name of the generic resource accessor.
const ReadResourceMethod = "readResource"

const (
	operationReturns = `CallToolResult["content"][number]`
	resourceReturns  = `ReadResourceResult["contents"][number]`
	promptReturns    = `GetPromptResult["messages"]`
)

// reservedMembers cannot be used as method names as is.
var reservedMembers = map[string]bool{
	"constructor":      true,
	"connection":       true,
	ReadResourceMethod: true,
}

type (
	// Class is the client class generated for one server.
	Class struct {
		// Name is the class identifier, e.g. "GithubClient".
		Name string
		// Server is the server name.
		Server string
		// Doc is the class documentation, empty when comments are off.
		Doc string
		// Methods lists the methods in emission order: operations, resource
		// accessors then prompts.
		Methods []*Method
		// Collisions lists the method names claimed more than once.
		Collisions []*Collision
	}

	// Method is one async client method.
	Method struct {
		Kind MethodKind
		// Name is the method identifier.
		Name string
		// Source is the name of the capability the method exposes: the
		// operation, resource or prompt name.
		Source string
		Doc    string
		// Params is the rendered parameter list.
		Params string
		// Returns is the type wrapped by the returned promise.
		Returns string
		// Body lists the statements of the method body.
		Body []string
	}
)

// BuildClass builds the client class of a server. decls holds the input
// declarations of the server operations; an operation without a matching
// declaration takes no argument. Servers whose introspection failed have
// no class.
func BuildClass(server *capability.ServerModule, decls []*Declaration, opts *Options) (*Class, error) {
	if server.Failed() {
		return nil, fmt.Errorf("server %q: %s", server.Name, server.Error)
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	byOp := make(map[string]*Declaration, len(decls))
	for _, d := range decls {
		byOp[d.Operation] = d
	}
	c := &Class{
		Name:   naming.ClassName(server.Name),
		Server: server.Name,
		Doc:    docIf(opts, fmt.Sprintf("%s is the typed client of the %s MCP server (%q).", naming.ClassName(server.Name), naming.HumanizeTitle(server.Name), server.Name)),
	}
	b := &classBuilder{class: c, policy: opts.Collisions, index: make(map[string]int)}
	for _, op := range server.Operations {
		b.add(operationMethod(op, byOp[op.Name], opts))
	}
	if len(server.Resources) > 0 {
		b.add(&Method{
			Kind:    MethodReadResource,
			Name:    ReadResourceMethod,
			Doc:     docIf(opts, "Reads the resource at uri and returns its first content entry."),
			Params:  "uri: string",
			Returns: resourceReturns,
			Body: []string{
				"const result = await this.connection.readResource({ uri });",
				"return unwrapResourceResult(uri, result);",
			},
		})
		for _, r := range server.NamedResources() {
			b.add(resourceMethod(r, opts))
		}
	}
	for _, p := range server.Prompts {
		b.add(promptMethod(p, opts))
	}
	return c, nil
}

func operationMethod(op *capability.Operation, d *Declaration, opts *Options) *Method {
	m := &Method{
		Kind:    MethodOperation,
		Name:    naming.MethodName(op.Name),
		Source:  op.Name,
		Doc:     docIf(opts, op.Description),
		Returns: operationReturns,
	}
	args := "{}"
	if d != nil {
		m.Params = "input: " + d.Name
		args = "{ ...input }"
	}
	m.Body = []string{
		fmt.Sprintf("const result = await this.connection.callTool({ name: %s, arguments: %s });", quote(op.Name), args),
		fmt.Sprintf("return unwrapOperationResult(%s, result);", quote(op.Name)),
	}
	return m
}

func resourceMethod(r *capability.Resource, opts *Options) *Method {
	doc := r.Description
	if doc == "" {
		doc = "Reads " + r.URI + "."
	}
	return &Method{
		Kind:    MethodResource,
		Name:    naming.ResourceMethodName(r.Name),
		Source:  r.Name,
		Doc:     docIf(opts, doc),
		Returns: resourceReturns,
		Body:    []string{fmt.Sprintf("return this.%s(%s);", ReadResourceMethod, quote(r.URI))},
	}
}

func promptMethod(p *capability.Prompt, opts *Options) *Method {
	m := &Method{
		Kind:    MethodPrompt,
		Name:    naming.PromptMethodName(p.Name),
		Source:  p.Name,
		Doc:     docIf(opts, p.Description),
		Returns: promptReturns,
	}
	args := "{}"
	if t := PromptArgsType(p); t != "" {
		m.Params = "args: " + t
		args = "args"
	}
	m.Body = []string{
		fmt.Sprintf("const result = await this.connection.getPrompt({ name: %s, arguments: %s });", quote(p.Name), args),
		"return result.messages;",
	}
	return m
}

// PromptArgsType returns the inline object type of the prompt arguments,
// the empty string if the prompt declares none. All arguments are strings,
// optional unless required.
func PromptArgsType(p *capability.Prompt) string {
	obj := &schema.Object{HasProperties: true}
	for _, a := range p.Arguments {
		if obj.Property(a.Name) != nil {
			continue
		}
		obj.Properties = append(obj.Properties, &schema.Property{
			Name:   a.Name,
			Schema: &schema.Primitive{Kind: schema.KindString},
		})
		if a.Required {
			obj.Required = append(obj.Required, a.Name)
		}
	}
	if len(obj.Properties) == 0 {
		return ""
	}
	return Synthesize(obj)
}

// classBuilder adds methods to a class applying the collision policy.
type classBuilder struct {
	class  *Class
	policy CollisionPolicy
	index  map[string]int
}

func (b *classBuilder) add(m *Method) {
	if m.Kind != MethodReadResource && reservedMembers[m.Name] {
		m.Name += "_"
	}
	i, taken := b.index[m.Name]
	if !taken {
		b.append(m)
		return
	}
	prev := b.class.Methods[i]
	col := &Collision{
		Kind:       CollisionMethod,
		Identifier: m.Name,
		Server:     b.class.Server,
		Previous:   prev.Source,
		Current:    m.Source,
	}
	if b.policy == CollisionSuffix {
		n := 2
		for b.taken(naming.Suffixed(m.Name, n, "")) {
			n++
		}
		m.Name = naming.Suffixed(m.Name, n, "")
		col.Resolved = m.Name
		b.class.Collisions = append(b.class.Collisions, col)
		b.append(m)
		return
	}
	col.Resolved = m.Name
	b.class.Collisions = append(b.class.Collisions, col)
	b.remove(i)
	b.append(m)
}

func (b *classBuilder) taken(name string) bool {
	_, ok := b.index[name]
	return ok || reservedMembers[name]
}

func (b *classBuilder) append(m *Method) {
	b.index[m.Name] = len(b.class.Methods)
	b.class.Methods = append(b.class.Methods, m)
}

func (b *classBuilder) remove(i int) {
	b.class.Methods = append(b.class.Methods[:i], b.class.Methods[i+1:]...)
	for name, j := range b.index {
		if j > i {
			b.index[name] = j - 1
		}
	}
}
