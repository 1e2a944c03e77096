package capability

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"goa.design/mcpgen/codegen/schema"
)

// ErrInvalidManifest is returned when an introspection snapshot is
// structurally invalid.
var ErrInvalidManifest = errors.New("invalid manifest")

type (
	// Manifest is a decoded introspection snapshot.
	Manifest struct {
		// Servers lists the servers in document order.
		Servers []*ServerModule
		// Warnings lists the non fatal issues found while loading, such as
		// input schemas rejected in strict mode.
		Warnings []string
	}

	// ManifestOption customizes LoadManifest.
	ManifestOption func(*manifestOptions)

	manifestOptions struct {
		strict bool
	}

	serverDoc struct {
		Name      string        `yaml:"name"`
		Error     string        `yaml:"error"`
		Tools     []toolDoc     `yaml:"tools"`
		Resources []resourceDoc `yaml:"resources"`
		Prompts   []promptDoc   `yaml:"prompts"`
	}

	toolDoc struct {
		Name        string    `yaml:"name"`
		Description string    `yaml:"description"`
		InputSchema yaml.Node `yaml:"inputSchema"`
	}

	resourceDoc struct {
		URI         string `yaml:"uri"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}

	promptDoc struct {
		Name        string        `yaml:"name"`
		Description string        `yaml:"description"`
		Arguments   []argumentDoc `yaml:"arguments"`
	}

	argumentDoc struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Required    bool   `yaml:"required"`
	}
)

// WithStrictSchemas validates every input schema against the JSON Schema
// meta-schema. Invalid schemas are replaced with an unknown node and
// reported as warnings.
func WithStrictSchemas() ManifestOption {
	return func(o *manifestOptions) { o.strict = true }
}

// LoadManifest decodes an introspection snapshot. The document is JSON or
// YAML with a top-level "servers" key holding either a list of servers or a
// mapping from server name to server. Server order follows the document.
func LoadManifest(data []byte, opts ...ManifestOption) (*Manifest, error) {
	var o manifestOptions
	for _, opt := range opts {
		opt(&o)
	}
	var doc struct {
		Servers yaml.Node `yaml:"servers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	docs, err := serverDocs(&doc.Servers)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Servers: make([]*ServerModule, 0, len(docs))}
	seen := make(map[string]struct{}, len(docs))
	for _, sd := range docs {
		if sd.Name == "" {
			return nil, fmt.Errorf("%w: server without a name", ErrInvalidManifest)
		}
		if _, ok := seen[sd.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate server %q", ErrInvalidManifest, sd.Name)
		}
		seen[sd.Name] = struct{}{}
		s, err := m.server(sd, o)
		if err != nil {
			return nil, err
		}
		m.Servers = append(m.Servers, s)
	}
	return m, nil
}

// serverDocs decodes the "servers" node in document order.
func serverDocs(n *yaml.Node) ([]*serverDoc, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		docs := make([]*serverDoc, 0, len(n.Content))
		for _, item := range n.Content {
			var sd serverDoc
			if err := item.Decode(&sd); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidManifest, item.Line, err)
			}
			docs = append(docs, &sd)
		}
		return docs, nil
	case yaml.MappingNode:
		docs := make([]*serverDoc, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			var sd serverDoc
			if err := val.Decode(&sd); err != nil {
				return nil, fmt.Errorf("%w: server %q: %w", ErrInvalidManifest, key.Value, err)
			}
			if sd.Name == "" {
				sd.Name = key.Value
			}
			docs = append(docs, &sd)
		}
		return docs, nil
	}
	return nil, fmt.Errorf("%w: line %d: servers must be a list or a mapping", ErrInvalidManifest, n.Line)
}

func (m *Manifest) server(sd *serverDoc, o manifestOptions) (*ServerModule, error) {
	s := &ServerModule{Name: sd.Name, Error: sd.Error}
	names := make(map[string]struct{}, len(sd.Tools))
	for i := range sd.Tools {
		td := &sd.Tools[i]
		if td.Name == "" {
			return nil, fmt.Errorf("%w: server %q: tool #%d has no name", ErrInvalidManifest, sd.Name, i+1)
		}
		if _, ok := names[td.Name]; ok {
			return nil, fmt.Errorf("%w: server %q: duplicate tool %q", ErrInvalidManifest, sd.Name, td.Name)
		}
		names[td.Name] = struct{}{}
		input := schema.FromYAML(&td.InputSchema)
		if o.strict && input != nil {
			if err := schema.ValidateYAML(&td.InputSchema); err != nil {
				m.Warnings = append(m.Warnings, fmt.Sprintf("server %q: tool %q: %v", sd.Name, td.Name, err))
				input = &schema.Unknown{Reason: "invalid schema"}
			}
		}
		s.Operations = append(s.Operations, &Operation{
			Name:        td.Name,
			Description: td.Description,
			Input:       input,
		})
	}
	for i, rd := range sd.Resources {
		if rd.URI == "" {
			return nil, fmt.Errorf("%w: server %q: resource #%d has no uri", ErrInvalidManifest, sd.Name, i+1)
		}
		s.Resources = append(s.Resources, &Resource{URI: rd.URI, Name: rd.Name, Description: rd.Description})
	}
	for i, pd := range sd.Prompts {
		if pd.Name == "" {
			return nil, fmt.Errorf("%w: server %q: prompt #%d has no name", ErrInvalidManifest, sd.Name, i+1)
		}
		p := &Prompt{Name: pd.Name, Description: pd.Description}
		for _, ad := range pd.Arguments {
			p.Arguments = append(p.Arguments, &PromptArgument{
				Name:        ad.Name,
				Description: ad.Description,
				Required:    ad.Required,
			})
		}
		s.Prompts = append(s.Prompts, p)
	}
	return s, nil
}
