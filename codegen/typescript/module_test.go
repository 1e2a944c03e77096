package typescript

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/mcpgen/capability"
	"goa.design/mcpgen/codegen/schema"
)

// recordingLogger keeps the messages logged at warn level.
type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Debug(context.Context, string, ...any) {}
func (l *recordingLogger) Info(context.Context, string, ...any)  {}
func (l *recordingLogger) Error(context.Context, string, ...any) {}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func fixedOptions() *Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return opts
}

func assemble(t *testing.T, opts *Options, servers ...*capability.ServerModule) string {
	t.Helper()
	out, err := Assemble(context.Background(), servers, opts)
	require.NoError(t, err)
	return out
}

func notesServer(t *testing.T) *capability.ServerModule {
	return &capability.ServerModule{
		Name: "notes",
		Operations: []*capability.Operation{{
			Name:        "add_note",
			Description: "Adds a note.",
			Input:       parse(t, `{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		}},
	}
}

func TestAssembleLayout(t *testing.T) {
	opts := fixedOptions()
	opts.OutputPath = "src/clients.ts"
	out := assemble(t, opts, notesServer(t))

	assert.True(t, strings.HasPrefix(out, "// Code generated by mcpgen. DO NOT EDIT.\n"+
		"// Generated at: 2026-01-02T03:04:05Z\n"+
		"// Output: src/clients.ts\n\n"+
		`import type { Client } from "@modelcontextprotocol/sdk/client/index.js";`+"\n"), out)
	assert.Contains(t, out, "export class OperationFailed extends Error {")
	assert.Contains(t, out, "export class EmptyResult extends Error {")
	assert.Contains(t, out, "function unwrapOperationResult(operation: string, raw: unknown)")
	assert.Contains(t, out, "function unwrapResourceResult(uri: string, result: ReadResourceResult)")

	i := strings.Index(out, "/** Adds a note. */")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, `/** Adds a note. */
export interface AddNoteInput {
  text: string;
}

/** NotesClient is the typed client of the Notes MCP server ("notes"). */
export class NotesClient {
  private readonly connection: Client;

  constructor(connection: Client) {
    this.connection = connection;
  }

  /** Adds a note. */
  async addNote(input: AddNoteInput): Promise<CallToolResult["content"][number]> {
    const result = await this.connection.callTool({ name: "add_note", arguments: { ...input } });
    return unwrapOperationResult("add_note", result);
  }
}

let notesClientInstance: NotesClient | undefined;

/** Returns the shared NotesClient, creating it with connection on first use. */
export function getNotesClient(connection: Client): NotesClient {
  if (!notesClientInstance) {
    notesClientInstance = new NotesClient(connection);
  }
  return notesClientInstance;
}
`, out[i:])
}

func TestAssembleWithoutOutputPath(t *testing.T) {
	out := assemble(t, fixedOptions())
	assert.NotContains(t, out, "// Output:")
	assert.NotContains(t, out, "export class GithubClient")

	m, err := Generate(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputPath, m.File.Path)
}

func TestAssembleSectionOrder(t *testing.T) {
	server := &capability.ServerModule{
		Name: "github",
		Operations: []*capability.Operation{
			{Name: "create-page", Input: parse(t, `{"type":"object","properties":{"path":{"type":"string"}}}`)},
		},
		Resources: []*capability.Resource{{URI: "file:///README.md", Name: "readme"}},
		Prompts:   []*capability.Prompt{{Name: "summarize"}},
	}
	out := assemble(t, fixedOptions(), server, notesServer(t))

	order := []string{
		"import type { Client }",
		"export class OperationFailed",
		"function unwrapResourceResult",
		"export interface CreatePageInput {",
		"export class GithubClient {",
		"async readReadme(): Promise<ReadResourceResult[\"contents\"][number]> {",
		"async summarizePrompt(): Promise<GetPromptResult[\"messages\"]> {",
		"let githubClientInstance: GithubClient | undefined;",
		"export function getGithubClient(connection: Client): GithubClient {",
		"export interface AddNoteInput {",
		"export class NotesClient {",
		"export function getNotesClient(connection: Client): NotesClient {",
	}
	last := -1
	for _, s := range order {
		i := strings.Index(out, s)
		require.Greater(t, i, last, "%q out of order", s)
		last = i
	}
}

func TestAssembleRoundTripDeclaration(t *testing.T) {
	server := &capability.ServerModule{
		Name: "fs",
		Operations: []*capability.Operation{{
			Name:  "write",
			Input: parse(t, `{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path"]}`),
		}},
	}
	out := assemble(t, fixedOptions(), server)
	assert.Contains(t, out, "export interface WriteInput {\n  path: string;\n  content?: string;\n}")
}

func TestAssemblePromptScenario(t *testing.T) {
	server := &capability.ServerModule{
		Name: "writer",
		Prompts: []*capability.Prompt{{
			Name: "summarize",
			Arguments: []*capability.PromptArgument{
				{Name: "text", Required: true},
				{Name: "tone"},
			},
		}},
	}
	out := assemble(t, fixedOptions(), server)
	assert.Contains(t, out, `async summarizePrompt(args: { text: string; tone?: string }): Promise<GetPromptResult["messages"]> {`)
	assert.Contains(t, out, `const result = await this.connection.getPrompt({ name: "summarize", arguments: args });`)
	assert.Contains(t, out, "return result.messages;")
}

func TestAssembleBrokenServer(t *testing.T) {
	logger := &recordingLogger{}
	opts := fixedOptions()
	opts.Logger = logger
	broken := &capability.ServerModule{Name: "broken", Error: "Connection refused"}

	m, err := Generate(context.Background(), []*capability.ServerModule{broken, notesServer(t)}, opts)
	require.NoError(t, err)
	out, err := m.Render()
	require.NoError(t, err)

	assert.Contains(t, string(out), `// Server "broken" skipped: Connection refused`)
	assert.NotContains(t, string(out), "BrokenClient")
	assert.Contains(t, string(out), "export class NotesClient {")
	assert.Equal(t, []string{"server skipped"}, logger.warnings)

	require.Len(t, m.Servers, 2)
	assert.Equal(t, &ServerSummary{Name: "broken", Slug: "broken", Skipped: true, Error: "Connection refused"}, m.Servers[0])
	assert.Equal(t, []*ServerSummary{m.Servers[0]}, m.Skipped())
	assert.Equal(t, "NotesClient", m.Servers[1].ClassName)
	assert.Equal(t, "getNotesClient", m.Servers[1].Accessor)
	assert.Equal(t, []string{"AddNoteInput"}, m.Servers[1].Declarations)
	assert.Equal(t, 1, m.Servers[1].Methods)
}

func TestAssembleMultilineError(t *testing.T) {
	out := assemble(t, fixedOptions(), &capability.ServerModule{Name: "flaky", Error: "dial tcp:\n  connection reset"})
	assert.Contains(t, out, `// Server "flaky" skipped: dial tcp: connection reset`+"\n")
}

func TestAssembleTooDeepSchema(t *testing.T) {
	input := &schema.Object{HasProperties: true}
	input.Properties = []*schema.Property{{Name: "next", Schema: input}}
	deep := &capability.ServerModule{
		Name:       "deep",
		Operations: []*capability.Operation{{Name: "walk", Input: input}},
	}

	m, err := Generate(context.Background(), []*capability.ServerModule{deep}, fixedOptions())
	require.NoError(t, err)
	out, err := m.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), `// Server "deep" skipped: operation "walk": schema nesting exceeds maximum depth`)
	assert.NotContains(t, string(out), "DeepClient")
	assert.NotContains(t, string(out), "WalkInput")
	assert.True(t, m.Servers[0].Skipped)
}

func collisionServer() *capability.ServerModule {
	page := func() schema.Node {
		return &schema.Object{
			HasProperties: true,
			Properties:    []*schema.Property{{Name: "title", Schema: &schema.Primitive{Kind: schema.KindString}}},
		}
	}
	return &capability.ServerModule{
		Name: "wiki",
		Operations: []*capability.Operation{
			{Name: "create-page", Description: "Dashed.", Input: page()},
			{Name: "create_page", Description: "Underscored.", Input: page()},
		},
	}
}

// TestAssembleSeparatorCollision captures what happens when two operations
// differ only by their word separator.
func TestAssembleSeparatorCollision(t *testing.T) {
	t.Run("last wins", func(t *testing.T) {
		logger := &recordingLogger{}
		opts := fixedOptions()
		opts.Logger = logger

		m, err := Generate(context.Background(), []*capability.ServerModule{collisionServer()}, opts)
		require.NoError(t, err)
		out, err := m.Render()
		require.NoError(t, err)
		text := string(out)

		assert.Equal(t, 1, strings.Count(text, "export interface CreatePageInput {"))
		assert.Equal(t, 1, strings.Count(text, "async createPage(input: CreatePageInput)"))
		assert.Contains(t, text, `name: "create_page"`)
		assert.NotContains(t, text, `name: "create-page"`)
		assert.NotContains(t, text, "Dashed.")

		require.Len(t, m.Collisions, 2)
		assert.Equal(t, &Collision{
			Kind:       CollisionDeclaration,
			Identifier: "CreatePageInput",
			Server:     "wiki",
			Previous:   "wiki/create-page",
			Current:    "wiki/create_page",
			Resolved:   "CreatePageInput",
		}, m.Collisions[0])
		assert.Equal(t, CollisionMethod, m.Collisions[1].Kind)
		assert.Equal(t, "createPage", m.Collisions[1].Identifier)
		assert.Equal(t, []string{"identifier collision", "identifier collision"}, logger.warnings)
	})

	t.Run("suffix", func(t *testing.T) {
		opts := fixedOptions()
		opts.Collisions = CollisionSuffix

		m, err := Generate(context.Background(), []*capability.ServerModule{collisionServer()}, opts)
		require.NoError(t, err)
		out, err := m.Render()
		require.NoError(t, err)
		text := string(out)

		assert.Contains(t, text, "export interface CreatePageInput {")
		assert.Contains(t, text, "export interface CreatePage2Input {")
		assert.Contains(t, text, "async createPage(input: CreatePageInput)")
		assert.Contains(t, text, "async createPage2(input: CreatePage2Input)")
		assert.Contains(t, text, `name: "create-page"`)
		assert.Contains(t, text, `name: "create_page"`)

		require.Len(t, m.Collisions, 2)
		assert.Equal(t, "CreatePage2Input", m.Collisions[0].Resolved)
		assert.Equal(t, "createPage2", m.Collisions[1].Resolved)
		assert.Equal(t, []string{"CreatePageInput", "CreatePage2Input"}, m.Servers[0].Declarations)
		assert.Equal(t, "declaration CreatePageInput: wiki/create_page renamed to CreatePage2Input (already used by wiki/create-page)", m.Collisions[0].String())
	})
}

func TestAssembleClassCollision(t *testing.T) {
	servers := func() []*capability.ServerModule {
		return []*capability.ServerModule{
			{Name: "my-server", Operations: []*capability.Operation{{Name: "first"}}},
			{Name: "my_server", Operations: []*capability.Operation{{Name: "second"}}},
		}
	}

	t.Run("last wins", func(t *testing.T) {
		m, err := Generate(context.Background(), servers(), fixedOptions())
		require.NoError(t, err)
		out, err := m.Render()
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(out), "export class MyServerClient {"))
		assert.Equal(t, 1, strings.Count(string(out), "export function getMyServerClient("))
		assert.NotContains(t, string(out), "async first()")
		assert.Contains(t, string(out), "async second()")
		require.Len(t, m.Collisions, 1)
		assert.Equal(t, CollisionClass, m.Collisions[0].Kind)
		assert.Equal(t, "class MyServerClient: my_server replaces my-server", m.Collisions[0].String())
	})

	t.Run("suffix", func(t *testing.T) {
		opts := fixedOptions()
		opts.Collisions = CollisionSuffix
		m, err := Generate(context.Background(), servers(), opts)
		require.NoError(t, err)
		out, err := m.Render()
		require.NoError(t, err)
		assert.Contains(t, string(out), "export class MyServerClient {")
		assert.Contains(t, string(out), "export class MyServer2Client {")
		assert.Contains(t, string(out), "export function getMyServer2Client(connection: Client): MyServer2Client {")
		assert.Equal(t, "MyServer2Client", m.Servers[1].ClassName)
	})
}

func TestAssembleSharedOperationAcrossServers(t *testing.T) {
	servers := func() []*capability.ServerModule {
		return []*capability.ServerModule{
			{Name: "github", Operations: []*capability.Operation{{
				Name:  "search",
				Input: parse(t, `{"type":"object","properties":{"repo":{"type":"string"}},"required":["repo"]}`),
			}}},
			{Name: "notion", Operations: []*capability.Operation{{
				Name:  "search",
				Input: parse(t, `{"type":"object","properties":{"page":{"type":"number"}},"required":["page"]}`),
			}}},
		}
	}

	for _, policy := range []CollisionPolicy{CollisionLastWins, CollisionSuffix} {
		t.Run(string(policy), func(t *testing.T) {
			opts := fixedOptions()
			opts.Collisions = policy
			m, err := Generate(context.Background(), servers(), opts)
			require.NoError(t, err)
			out, err := m.Render()
			require.NoError(t, err)
			text := string(out)

			assert.Contains(t, text, "export interface SearchInput {\n  repo: string;\n}")
			assert.Contains(t, text, "export interface NotionSearchInput {\n  page: number;\n}")
			github := text[strings.Index(text, "export class GithubClient {"):strings.Index(text, "export class NotionClient {")]
			assert.Contains(t, github, "async search(input: SearchInput)")
			assert.Contains(t, text, "async search(input: NotionSearchInput)")
			assert.Equal(t, []string{"SearchInput"}, m.Servers[0].Declarations)
			assert.Equal(t, []string{"NotionSearchInput"}, m.Servers[1].Declarations)

			require.Len(t, m.Collisions, 1)
			assert.Equal(t, &Collision{
				Kind:       CollisionDeclaration,
				Identifier: "SearchInput",
				Server:     "notion",
				Previous:   "github/search",
				Current:    "notion/search",
				Resolved:   "NotionSearchInput",
			}, m.Collisions[0])
		})
	}
}

func TestAssembleReplacedClassDropsDeclarations(t *testing.T) {
	input := `{"type":"object","properties":{"q":{"type":"string"}}}`
	servers := []*capability.ServerModule{
		{Name: "my-server", Operations: []*capability.Operation{{Name: "search", Input: parse(t, input)}}},
		{Name: "my_server", Operations: []*capability.Operation{{Name: "search", Input: parse(t, input)}}},
	}
	out := assemble(t, fixedOptions(), servers...)
	assert.NotContains(t, out, "export interface SearchInput {")
	assert.Contains(t, out, "export interface MyServerSearchInput {")
	assert.Equal(t, 1, strings.Count(out, "export class MyServerClient {"))
	assert.Contains(t, out, "async search(input: MyServerSearchInput)")
}

func TestAssembleWithoutSingletons(t *testing.T) {
	opts := fixedOptions()
	opts.TreeShakable = false
	m, err := Generate(context.Background(), []*capability.ServerModule{notesServer(t)}, opts)
	require.NoError(t, err)
	out, err := m.Render()
	require.NoError(t, err)

	assert.Contains(t, string(out), "export class NotesClient {")
	assert.NotContains(t, string(out), "export function")
	assert.NotContains(t, string(out), "let ")
	assert.NotContains(t, string(out), "notesClientInstance")
	assert.Empty(t, m.Servers[0].Accessor)
}

func TestAssembleWithoutComments(t *testing.T) {
	opts := fixedOptions()
	opts.IncludeComments = false
	out := assemble(t, opts, notesServer(t))

	assert.NotContains(t, out, "Adds a note.")
	assert.NotContains(t, out, "is the typed client")
	assert.NotContains(t, out, "Returns the shared")
	assert.Contains(t, out, "export interface AddNoteInput {\n  text: string;\n}")
}

func TestAssembleDeterministic(t *testing.T) {
	servers := []*capability.ServerModule{notesServer(t), collisionServer(), {Name: "broken", Error: "boom"}}
	first := fixedOptions()
	second := fixedOptions()
	second.Now = func() time.Time { return time.Date(2030, 6, 7, 8, 9, 10, 0, time.UTC) }

	a := assemble(t, first, servers...)
	b := assemble(t, second, servers...)
	require.NotEqual(t, a, b)

	strip := func(s string) []string {
		var lines []string
		for _, l := range strings.Split(s, "\n") {
			if strings.HasPrefix(l, "// Generated at: ") {
				continue
			}
			lines = append(lines, l)
		}
		return lines
	}
	assert.Equal(t, strip(a), strip(b))
	assert.Equal(t, a, assemble(t, first, servers...))
}

func TestAssembleNilServer(t *testing.T) {
	_, err := Assemble(context.Background(), []*capability.ServerModule{nil}, nil)
	require.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	def := DefaultOptions()
	assert.True(t, def.IncludeComments)
	assert.True(t, def.TreeShakable)
	assert.Equal(t, CollisionLastWins, def.Collisions)

	nilOpts := (*Options)(nil).withDefaults()
	assert.True(t, nilOpts.IncludeComments)
	assert.True(t, nilOpts.TreeShakable)
	assert.NotNil(t, nilOpts.Now)
	assert.NotNil(t, nilOpts.Logger)

	zero := (&Options{OutputPath: "x.ts"}).withDefaults()
	assert.False(t, zero.IncludeComments)
	assert.False(t, zero.TreeShakable)
	assert.Equal(t, CollisionLastWins, zero.Collisions)
}

func TestParseCollisionPolicy(t *testing.T) {
	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionLastWins, p)

	p, err = ParseCollisionPolicy("suffix")
	require.NoError(t, err)
	assert.Equal(t, CollisionSuffix, p)

	_, err = ParseCollisionPolicy("first-wins")
	require.ErrorContains(t, err, `unknown collision policy "first-wins"`)
}
