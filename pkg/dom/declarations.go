package dom

import "strings"

// ParseDeclarations splits an inline style attribute into declarations.
// Semicolons inside parentheses or quotes do not terminate a declaration;
// entries without a colon are dropped.
func ParseDeclarations(style string) []Declaration {
	var decls []Declaration
	for _, part := range splitTopLevel(style, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		colon := strings.IndexByte(part, ':')
		if colon <= 0 {
			continue
		}
		property := strings.ToLower(strings.TrimSpace(part[:colon]))
		if strings.HasPrefix(property, "--") {
			// custom property names are case-sensitive
			property = strings.TrimSpace(part[:colon])
		}
		value := strings.TrimSpace(part[colon+1:])
		important := false
		if i := strings.LastIndex(strings.ToLower(value), "!important"); i >= 0 && strings.TrimSpace(value[i+len("!important"):]) == "" {
			important = true
			value = strings.TrimSpace(value[:i])
		}
		if property == "" || value == "" {
			continue
		}
		decls = append(decls, Declaration{Property: property, Value: value, Important: important})
	}
	return decls
}

// splitTopLevel splits s on sep, ignoring separators nested in () or quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
