package typescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/mcpgen/codegen/schema"
)

func parse(t *testing.T, doc string) schema.Node {
	t.Helper()
	n, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return n
}

func TestBuildDeclarationObject(t *testing.T) {
	input := parse(t, `{
    "type": "object",
    "properties": {
      "path": {"type": "string", "description": "Page path."},
      "content": {"type": "string"},
      "tags": {"type": "array", "items": {"type": "string"}}
    },
    "required": ["path"]
  }`)

	d, err := BuildDeclaration("create-page", "Creates a page.", input, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "CreatePageInput", d.Name)
	assert.Equal(t, "create-page", d.Operation)
	assert.Equal(t, "Creates a page.", d.Doc)
	assert.Equal(t, []*Member{
		{Name: "path", Type: "string", Doc: "Page path."},
		{Name: "content", Type: "string", Optional: true},
		{Name: "tags", Type: "string[]", Optional: true},
	}, d.Members)
}

func TestBuildDeclarationWithoutComments(t *testing.T) {
	input := parse(t, `{"type":"object","properties":{"path":{"type":"string","description":"Page path."}}}`)
	opts := DefaultOptions()
	opts.IncludeComments = false

	d, err := BuildDeclaration("create_page", "Creates a page.", input, opts)
	require.NoError(t, err)
	assert.Empty(t, d.Doc)
	require.Len(t, d.Members, 1)
	assert.Empty(t, d.Members[0].Doc)
}

func TestBuildDeclarationSeparatorsShareName(t *testing.T) {
	input := parse(t, `{"type":"object","properties":{"q":{"type":"string"}}}`)
	var names []string
	for _, op := range []string{"create-page", "create_page", "create page"} {
		d, err := BuildDeclaration(op, "", input, nil)
		require.NoError(t, err)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"CreatePageInput", "CreatePageInput", "CreatePageInput"}, names)
}

func TestBuildDeclarationValueWrapper(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"string", `{"type":"string"}`, "string"},
		{"array", `{"type":"array","items":{"type":"number"}}`, "number[]"},
		{"open object", `{"type":"object"}`, "Record<string, any>"},
		{"union", `{"anyOf":[{"type":"string"},{"type":"number"}]}`, "string | number"},
		{"unknown", `{"$ref":"#/defs/x"}`, "any"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, err := BuildDeclaration("search", "", parse(t, c.doc), nil)
			require.NoError(t, err)
			require.NotNil(t, d)
			assert.Equal(t, []*Member{{Name: ValueMember, Type: c.want}}, d.Members)
		})
	}
}

func TestBuildDeclarationZeroArgument(t *testing.T) {
	d, err := BuildDeclaration("ping", "Pings.", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = BuildDeclaration("ping", "", parse(t, `{"type":"object","properties":{}}`), nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = BuildDeclaration("ping", "", parse(t, `{"type":"object","properties":{},"additionalProperties":false}`), nil)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestBuildDeclarationIndexSignature(t *testing.T) {
	d, err := BuildDeclaration("tag", "", parse(t, `{
    "type": "object",
    "properties": {"id": {"type": "string"}},
    "required": ["id"],
    "additionalProperties": {"type": "string"}
  }`), nil)
	require.NoError(t, err)
	assert.Equal(t, []*Member{
		{Name: "id", Type: "string"},
		{Type: "string", Index: true},
	}, d.Members)

	d, err = BuildDeclaration("tag", "", parse(t, `{
    "type": "object",
    "properties": {"id": {"type": "string"}, "weight": {"type": "number"}},
    "additionalProperties": {"type": "boolean"}
  }`), nil)
	require.NoError(t, err)
	require.Len(t, d.Members, 3)
	assert.Equal(t, &Member{Type: "boolean | string | number", Index: true}, d.Members[2])

	d, err = BuildDeclaration("tag", "", parse(t, `{"type":"object","properties":{},"additionalProperties":true}`), nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []*Member{{Type: "any", Index: true}}, d.Members)
}

func TestBuildDeclarationTooDeep(t *testing.T) {
	input := &schema.Object{HasProperties: true}
	input.Properties = []*schema.Property{{Name: "next", Schema: input}}

	_, err := BuildDeclaration("walk", "", input, nil)
	require.ErrorIs(t, err, ErrSchemaTooDeep)
}

func TestRenderMember(t *testing.T) {
	assert.Equal(t, "path: string", renderMember(&Member{Name: "path", Type: "string"}))
	assert.Equal(t, `"content-type"?: string`, renderMember(&Member{Name: "content-type", Type: "string", Optional: true}))
	assert.Equal(t, "[key: string]: number", renderMember(&Member{Type: "number", Index: true}))
}

func TestJSDoc(t *testing.T) {
	assert.Empty(t, jsdoc("  ", ""))
	assert.Equal(t, "/** Creates a page. */\n", jsdoc("Creates a page.", ""))
	assert.Equal(t, "  /** Ends a comment *\\/ early. */\n", jsdoc("Ends a comment */ early.", "  "))
	assert.Equal(t, "/**\n * First.\n *\n * Second.\n */\n", jsdoc("First.\n\nSecond.", ""))
}
