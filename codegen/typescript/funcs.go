package typescript

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

// funcs are the helpers available to every section template.
var funcs = template.FuncMap{
	"jsdoc":  jsdoc,
	"quote":  quote,
	"member": renderMember,
	"oneline": func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	},
}

// quote renders s as a double quoted TypeScript string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a string cannot fail.
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// jsdoc renders doc as a JSDoc block indented with indent and terminated by
// a newline. It returns the empty string when doc is blank.
func jsdoc(doc, indent string) string {
	doc = strings.TrimSpace(strings.ReplaceAll(doc, "\r\n", "\n"))
	if doc == "" {
		return ""
	}
	doc = strings.ReplaceAll(doc, "*/", "*\\/")
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		return indent + "/** " + lines[0] + " */\n"
	}
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			b.WriteString(indent + " *\n")
			continue
		}
		b.WriteString(indent + " * " + l + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}

func renderMember(m *Member) string {
	if m.Index {
		return indexSignature(m.Type)
	}
	return propertySignature(m.Name, m.Optional, m.Type)
}
