// Package naming contains the naming helpers used by the client generator.
//
// The functions in this package centralize how operation, prompt, resource
// and server names become TypeScript identifiers so every generated
// declaration, class and accessor derives its name the same way.
package naming
