package naming

import (
	"strconv"
	"strings"
	"unicode"

	"goa.design/goa/v3/codegen"
)

// SanitizeToken converts an arbitrary string into a filesystem-safe token.
// It is used to derive deterministic file name fragments from server names.
//
// The returned token:
//   - is lower snake_case
//   - contains only [a-z0-9_]
//   - never starts/ends with '_' and never contains repeated "__"
//
// When the sanitized result is empty, SanitizeToken returns fallback.
func SanitizeToken(name, fallback string) string {
	s := strings.ToLower(codegen.SnakeCase(name))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	if s == "" {
		return fallback
	}
	return s
}

// HumanizeTitle converts a slug-like name (snake_case, kebab-case, dotted)
// into a conservative Title Case string.
func HumanizeTitle(s string) string {
	if s == "" {
		return s
	}
	// use last segment after '.' when present
	if i := strings.LastIndexByte(s, '.'); i >= 0 && i+1 < len(s) {
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	parts := strings.Fields(s)
	for i := range parts {
		if len(parts[i]) == 0 {
			continue
		}
		r := []rune(parts[i])
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// Words splits name into words. Any rune that is neither a letter nor a digit
// separates words, as do lower-to-upper case transitions and the last capital
// of an acronym followed by a lower case letter ("HTTPServer" yields "HTTP"
// and "Server"). Separator characters are never part of a word so names
// differing only by separators ("create-page", "create_page", "create page")
// produce the same words.
func Words(name string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// PascalCase joins the words of name with each word's first letter upper
// cased. The rest of each word is kept as is. A result starting with a digit
// is prefixed with '_'. fallback is used when name contains no word.
func PascalCase(name, fallback string) string {
	words := Words(name)
	if len(words) == 0 {
		words = Words(fallback)
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(upperFirst(w))
	}
	return safeStart(b.String())
}

// CamelCase is PascalCase with the first word lower cased. An all-caps first
// word is lower cased entirely ("HTTPGet" becomes "httpGet").
func CamelCase(name, fallback string) string {
	words := Words(name)
	if len(words) == 0 {
		words = Words(fallback)
	}
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			if strings.ToUpper(w) == w {
				b.WriteString(strings.ToLower(w))
			} else {
				b.WriteString(lowerFirst(w))
			}
			continue
		}
		b.WriteString(upperFirst(w))
	}
	return safeStart(b.String())
}

// TypeName returns the name of the input type declared for an operation.
func TypeName(operation string) string {
	return PascalCase(operation, "operation") + "Input"
}

// ScopedTypeName returns the input type name of an operation qualified by
// its server ("github", "search" yields "GithubSearchInput").
func ScopedTypeName(server, operation string) string {
	return PascalCase(server+" "+operation, "operation") + "Input"
}

// ClassName returns the name of the client class generated for a server.
func ClassName(server string) string {
	return PascalCase(server, "server") + "Client"
}

// MethodName returns the client method name for an operation.
func MethodName(operation string) string {
	return CamelCase(operation, "operation")
}

// PromptMethodName returns the client method name for a prompt.
func PromptMethodName(prompt string) string {
	return CamelCase(prompt, "prompt") + "Prompt"
}

// ResourceMethodName returns the convenience accessor name for a named
// resource.
func ResourceMethodName(resource string) string {
	return "read" + strings.TrimPrefix(PascalCase(resource, "resource"), "_")
}

// AccessorName returns the lazy singleton accessor for a client class.
func AccessorName(className string) string {
	return "get" + className
}

// InstanceSlot returns the module-level variable holding a client singleton.
func InstanceSlot(className string) string {
	return lowerFirst(className) + "Instance"
}

// IsIdentifier reports whether s can be used as a bare TypeScript property
// name. Only ASCII identifiers qualify; anything else must be quoted.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Suffixed appends n to an identifier, before the given type suffix when the
// identifier ends with it ("CreatePageInput", 2, "Input" yields
// "CreatePage2Input").
func Suffixed(ident string, n int, suffix string) string {
	num := strconv.Itoa(n)
	if suffix != "" && strings.HasSuffix(ident, suffix) {
		return strings.TrimSuffix(ident, suffix) + num + suffix
	}
	return ident + num
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func safeStart(s string) string {
	if s == "" {
		return "_"
	}
	if r := []rune(s)[0]; unicode.IsDigit(r) {
		return "_" + s
	}
	return s
}
