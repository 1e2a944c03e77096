// Package typescript generates a typed TypeScript client module for a set of
// introspected MCP servers.
//
// Generation runs bottom-up in four stages, each producing immutable values
// consumed by the next:
//
//   - Synthesize maps a schema node to a TypeScript type expression.
//   - BuildDeclaration turns an operation input schema into a named
//     interface with one documented member per property.
//   - BuildClass builds the client class of one server: one async method per
//     operation, resource accessors and prompt methods.
//   - Generate orders the header, shared runtime helpers, declarations,
//     classes and shared instance accessors into a goa codegen.File that
//     Module.Render turns into text.
//
// The generated module depends on the @modelcontextprotocol/sdk Client only.
// Every operation method funnels its raw result through a single unwrap
// helper that raises OperationFailed or EmptyResult, or returns the first
// content item.
package typescript
