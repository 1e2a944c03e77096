package typescript

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"goa.design/goa/v3/codegen"

	"goa.design/mcpgen/capability"
	"goa.design/mcpgen/codegen/naming"
)

// DefaultOutputPath is the file path used when Options.OutputPath is empty.
const DefaultOutputPath = "mcp-clients.ts"

const (
	headerT      = "header"
	importsT     = "imports"
	helpersT     = "helpers"
	declarationT = "declaration"
	classT       = "class"
	accessorT    = "accessor"
	skippedT     = "skipped"
)

type (
	// Module is a generated client module together with what the generator
	// observed while building it.
	Module struct {
		// File holds the module sections in emission order.
		File *codegen.File
		// Servers summarizes the outcome for each input server, in input
		// order.
		Servers []*ServerSummary
		// Collisions lists every contested identifier in the order found.
		Collisions []*Collision
	}

	// ServerSummary describes what was generated for one server.
	ServerSummary struct {
		Name string
		// Slug is a file-safe token derived from Name.
		Slug string
		// ClassName is the generated class, empty for skipped servers. The
		// class may still be dropped by a later class collision, see
		// Module.Collisions.
		ClassName string
		// Accessor is the shared instance accessor, empty when singletons
		// are disabled or the server was skipped.
		Accessor string
		// Declarations lists the input declarations emitted for the server.
		Declarations []string
		// Methods is the number of class methods.
		Methods int
		// Skipped is set when the server produced a comment only.
		Skipped bool
		// Error is the reason the server was skipped.
		Error string
	}

	headerData struct {
		GeneratedAt string
		OutputPath  string
	}

	accessorData struct {
		Name      string
		Slot      string
		ClassName string
		Doc       string
	}

	skippedData struct {
		Server string
		Error  string
	}

	// unit is a section candidate. Units are dropped rather than removed so
	// that emission order stays the input order.
	unit struct {
		template string
		data     any
		dropped  bool
	}

	// owner records the unit that claimed a module level identifier.
	owner struct {
		units  []*unit
		server string
		source string
	}

	generator struct {
		opts       *Options
		units      []*unit
		decls      map[string]*owner
		classes    map[string]*owner
		collisions []*Collision
	}
)

// Assemble generates the client module for servers and renders it.
func Assemble(ctx context.Context, servers []*capability.ServerModule, opts *Options) (string, error) {
	m, err := Generate(ctx, servers, opts)
	if err != nil {
		return "", err
	}
	out, err := m.Render()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Generate builds the client module for servers. Sections are emitted in a
// fixed order: header, imports and shared helpers, then for each server in
// input order its input declarations, its class and, when
// Options.TreeShakable is set, its shared instance accessor.
//
// Servers whose introspection failed, or whose schemas nest deeper than
// MaxDepth, are reduced to a single comment line. Generate does no I/O.
func Generate(ctx context.Context, servers []*capability.ServerModule, opts *Options) (*Module, error) {
	opts = opts.withDefaults()
	g := &generator{
		opts:    opts,
		decls:   make(map[string]*owner),
		classes: make(map[string]*owner),
	}
	outPath := opts.OutputPath
	if outPath == "" {
		outPath = DefaultOutputPath
	}
	g.emit(headerT, &headerData{
		GeneratedAt: opts.Now().UTC().Format(time.RFC3339),
		OutputPath:  opts.OutputPath,
	})
	g.emit(importsT, nil)
	g.emit(helpersT, nil)

	m := &Module{}
	for i, s := range servers {
		if s == nil {
			return nil, fmt.Errorf("server #%d is nil", i+1)
		}
		m.Servers = append(m.Servers, g.server(ctx, s))
	}
	m.Collisions = g.collisions

	sections := make([]*codegen.SectionTemplate, 0, len(g.units))
	for _, u := range g.units {
		if u.dropped {
			continue
		}
		sections = append(sections, tsTemplates.section(u.template, u.data))
	}
	m.File = &codegen.File{Path: outPath, SectionTemplates: sections}
	return m, nil
}

// Render renders the module sections, separated by blank lines.
func (m *Module) Render() ([]byte, error) {
	parts := make([]string, 0, len(m.File.SectionTemplates))
	for _, s := range m.File.SectionTemplates {
		tmpl, err := template.New(s.Name).Funcs(s.FuncMap).Parse(s.Source)
		if err != nil {
			return nil, fmt.Errorf("parse section %s: %w", s.Name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, s.Data); err != nil {
			return nil, fmt.Errorf("render section %s: %w", s.Name, err)
		}
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	return []byte(strings.Join(parts, "\n\n") + "\n"), nil
}

// Skipped returns the summaries of the servers that produced no class.
func (m *Module) Skipped() []*ServerSummary {
	var skipped []*ServerSummary
	for _, s := range m.Servers {
		if s.Skipped {
			skipped = append(skipped, s)
		}
	}
	return skipped
}

func (g *generator) server(ctx context.Context, s *capability.ServerModule) *ServerSummary {
	sum := &ServerSummary{Name: s.Name, Slug: naming.SanitizeToken(s.Name, "server")}
	if s.Failed() {
		g.skip(ctx, sum, s.Error)
		return sum
	}
	var decls []*Declaration
	for _, op := range s.Operations {
		d, err := BuildDeclaration(op.Name, op.Description, op.Input, g.opts)
		if err != nil {
			g.skip(ctx, sum, fmt.Sprintf("operation %q: %v", op.Name, err))
			return sum
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	// Declarations are claimed first: suffixing may rename them and the
	// class methods reference the final names.
	declUnits := make([]*unit, 0, len(decls))
	for _, d := range decls {
		own := g.claimDeclaration(ctx, s.Name, d)
		u := g.emit(declarationT, d)
		own.units = append(own.units, u)
		declUnits = append(declUnits, u)
		sum.Declarations = append(sum.Declarations, d.Name)
	}
	cls, err := BuildClass(s, decls, g.opts)
	if err != nil {
		g.skip(ctx, sum, err.Error())
		return sum
	}
	for _, c := range cls.Collisions {
		g.collide(ctx, c)
	}
	own := g.claimClass(ctx, cls)
	own.units = append(own.units, declUnits...)
	own.units = append(own.units, g.emit(classT, cls))
	sum.ClassName = cls.Name
	sum.Methods = len(cls.Methods)
	if g.opts.TreeShakable {
		acc := &accessorData{
			Name:      naming.AccessorName(cls.Name),
			Slot:      naming.InstanceSlot(cls.Name),
			ClassName: cls.Name,
			Doc:       docIf(g.opts, fmt.Sprintf("Returns the shared %s, creating it with connection on first use.", cls.Name)),
		}
		own.units = append(own.units, g.emit(accessorT, acc))
		sum.Accessor = acc.Name
	}
	g.opts.Logger.Debug(ctx, "generated client",
		"server", s.Name,
		"class", cls.Name,
		"declarations", len(decls),
		"methods", len(cls.Methods))
	return sum
}

func (g *generator) emit(name string, data any) *unit {
	u := &unit{template: name, data: data}
	g.units = append(g.units, u)
	return u
}

func (g *generator) skip(ctx context.Context, sum *ServerSummary, reason string) {
	sum.Skipped = true
	sum.Error = reason
	g.emit(skippedT, &skippedData{Server: sum.Name, Error: reason})
	g.opts.Logger.Warn(ctx, "server skipped", "server", sum.Name, "error", reason)
}

// claimDeclaration registers the declaration name. A name already used by
// another server is qualified with the server name since each class must
// keep its own input types. Within a server, d is renamed or the earlier
// declaration dropped according to the collision policy.
func (g *generator) claimDeclaration(ctx context.Context, server string, d *Declaration) *owner {
	prev, ok := g.decls[d.Name]
	if ok {
		c := &Collision{
			Kind:       CollisionDeclaration,
			Identifier: d.Name,
			Server:     server,
			Previous:   prev.server + "/" + prev.source,
			Current:    server + "/" + d.Operation,
		}
		if prev.server != server {
			d.Name = naming.ScopedTypeName(server, d.Operation)
			prev, ok = g.decls[d.Name]
			if ok && prev.server != server {
				d.Name = g.freeName(g.decls, d.Name, "Input")
				ok = false
			}
		}
		if ok {
			if g.opts.Collisions == CollisionSuffix {
				d.Name = g.freeName(g.decls, d.Name, "Input")
			} else {
				prev.drop()
			}
		}
		c.Resolved = d.Name
		g.collide(ctx, c)
	}
	own := &owner{server: server, source: d.Operation}
	g.decls[d.Name] = own
	return own
}

// claimClass registers the class name, renaming cls or dropping the earlier
// class and its accessor according to the collision policy.
func (g *generator) claimClass(ctx context.Context, cls *Class) *owner {
	if prev, ok := g.classes[cls.Name]; ok {
		c := &Collision{
			Kind:       CollisionClass,
			Identifier: cls.Name,
			Server:     cls.Server,
			Previous:   prev.server,
			Current:    cls.Server,
			Resolved:   cls.Name,
		}
		if g.opts.Collisions == CollisionSuffix {
			cls.Name = g.freeName(g.classes, cls.Name, "Client")
			c.Resolved = cls.Name
		} else {
			prev.drop()
		}
		g.collide(ctx, c)
	}
	own := &owner{server: cls.Server, source: cls.Server}
	g.classes[cls.Name] = own
	return own
}

func (g *generator) freeName(taken map[string]*owner, name, suffix string) string {
	n := 2
	for {
		candidate := naming.Suffixed(name, n, suffix)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		n++
	}
}

func (g *generator) collide(ctx context.Context, c *Collision) {
	g.collisions = append(g.collisions, c)
	g.opts.Logger.Warn(ctx, "identifier collision",
		"kind", string(c.Kind),
		"identifier", c.Identifier,
		"previous", c.Previous,
		"current", c.Current,
		"resolved", c.Resolved,
		"policy", string(g.opts.Collisions))
}

func (o *owner) drop() {
	for _, u := range o.units {
		u.dropped = true
	}
}
