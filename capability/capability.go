// Package capability defines the introspected capabilities of MCP servers
// consumed by the client generator: operations (tools), readable resources
// and prompt templates.
//
// Values are built once per generation run, typically by LoadManifest from
// an introspection snapshot, and are treated as immutable afterwards.
package capability

import "goa.design/mcpgen/codegen/schema"

type (
	// ServerModule describes everything one server exposes.
	ServerModule struct {
		// Name identifies the server. It drives the generated class name.
		Name string
		// Operations lists the invocable tools in listing order.
		Operations []*Operation
		// Resources lists the readable resources in listing order.
		Resources []*Resource
		// Prompts lists the prompt templates in listing order.
		Prompts []*Prompt
		// Error is set when introspecting the server failed. A failed server
		// contributes a comment to the generated module and nothing else.
		Error string
	}

	// Operation is a remotely invocable tool.
	Operation struct {
		// Name is the exact tool name, unique per server.
		Name string
		// Description is the optional human readable description.
		Description string
		// Input is the input schema, nil for zero-argument operations.
		Input schema.Node
	}

	// Resource is a readable item addressed by URI.
	Resource struct {
		URI         string
		Name        string
		Description string
	}

	// Prompt is a parameterized prompt template.
	Prompt struct {
		Name        string
		Description string
		Arguments   []*PromptArgument
	}

	// PromptArgument is one prompt parameter. Prompt arguments are always
	// strings.
	PromptArgument struct {
		Name        string
		Description string
		Required    bool
	}
)

// Failed reports whether introspection of the server failed.
func (s *ServerModule) Failed() bool {
	return s.Error != ""
}

// NamedResources returns the resources that carry a display name.
func (s *ServerModule) NamedResources() []*Resource {
	var named []*Resource
	for _, r := range s.Resources {
		if r.Name != "" {
			named = append(named, r)
		}
	}
	return named
}
