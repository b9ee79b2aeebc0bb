package css

import (
	"fmt"
	"strings"

	"azul/pkg/dom"
)

// Origin is the cascade origin of a stylesheet.
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginUser
	OriginAuthor
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginAuthor:
		return "author"
	default:
		return "user-agent"
	}
}

// Combinator joins two compound selectors.
type Combinator int

const (
	DescendantCombinator      Combinator = iota // "A B"
	ChildCombinator                             // "A > B"
	AdjacentSiblingCombinator                   // "A + B"
	GeneralSiblingCombinator                    // "A ~ B"
)

// AttributeSelector is one [name op value] test.
type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "~=", "|=", "^=", "$=", "*="
	Value    string
}

// SelectorPart is one compound selector.
type SelectorPart struct {
	Element       string // "" or "*" matches any element
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []string // structural pseudo-classes (first-child, last-child)
}

// Selector is a complex selector. Parts are ordered left to right and
// Combinators[i] joins Parts[i] and Parts[i+1].
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator
	Specificity int
	// State is the pseudo-state the selector requires (:hover, :active,
	// :focus anywhere in the selector).
	State dom.PseudoState
}

// Rule is a selector list with its declarations.
type Rule struct {
	Selectors    []Selector
	Declarations []dom.Declaration
	Media        string // enclosing @media query, "" when unconditional
}

// Stylesheet is a parsed stylesheet of one origin.
type Stylesheet struct {
	Origin Origin
	Rules  []Rule
}

// ParseStylesheet parses css into rules. Malformed rules and selectors are
// skipped and reported in the returned error list; at-rules are ignored.
func ParseStylesheet(css string, origin Origin) (*Stylesheet, []error) {
	sheet := &Stylesheet{Origin: origin}
	var errs []error
	css = stripComments(css)
	for _, ruleStr := range splitRules(css) {
		if query, body, ok := mediaBlock(ruleStr); ok {
			for _, inner := range splitRules(body) {
				rule, err := parseRule(inner)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				rule.Media = query
				sheet.Rules = append(sheet.Rules, rule)
			}
			continue
		}
		rule, err := parseRule(ruleStr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sheet.Rules = append(sheet.Rules, rule)
	}
	return sheet, errs
}

// mediaBlock splits "@media <query> { rules }".
func mediaBlock(ruleStr string) (query, body string, ok bool) {
	if !strings.HasPrefix(strings.ToLower(ruleStr), "@media") {
		return "", "", false
	}
	brace := strings.IndexByte(ruleStr, '{')
	end := strings.LastIndexByte(ruleStr, '}')
	if brace < 0 || end < brace {
		return "", "", false
	}
	return strings.TrimSpace(ruleStr[len("@media"):brace]), ruleStr[brace+1 : end], true
}

// stripComments removes /* ... */ comments outside string literals. An
// unterminated comment runs to the end of the input.
func stripComments(css string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(css); i++ {
		c := css[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(css) && css[i+1] == '*':
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// splitRules splits CSS into top-level "prelude { block }" chunks.
func splitRules(css string) []string {
	var rules []string
	depth := 0
	start := 0
	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				// stray closing brace
				depth = 0
				start = i + 1
				continue
			}
			if depth == 0 {
				if ruleStr := strings.TrimSpace(css[start : i+1]); ruleStr != "" {
					rules = append(rules, ruleStr)
				}
				start = i + 1
			}
		case ';':
			// statement at-rules such as @import end at a semicolon
			if depth == 0 && strings.HasPrefix(strings.TrimSpace(css[start:i]), "@") {
				start = i + 1
			}
		}
	}
	return rules
}

func parseRule(ruleStr string) (Rule, error) {
	brace := strings.IndexByte(ruleStr, '{')
	if brace < 0 {
		return Rule{}, fmt.Errorf("css: no opening brace in %q", ruleStr)
	}
	prelude := strings.TrimSpace(ruleStr[:brace])
	if strings.HasPrefix(prelude, "@") {
		return Rule{}, fmt.Errorf("css: unsupported at-rule %q", prelude)
	}
	body := ruleStr[brace+1:]
	body = strings.TrimSuffix(strings.TrimSpace(body), "}")

	var rule Rule
	for _, s := range splitTopLevel(prelude, ',') {
		sel, err := ParseSelector(s)
		if err != nil {
			// an invalid selector invalidates the whole rule
			return Rule{}, err
		}
		rule.Selectors = append(rule.Selectors, sel)
	}
	rule.Declarations = dom.ParseDeclarations(body)
	return rule, nil
}

// ParseSelector parses one complex selector.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("css: empty selector")
	}
	sel := Selector{Raw: s}
	s = padCombinators(s)
	pending := DescendantCombinator
	expectPart := true
	for _, tok := range strings.Fields(s) {
		switch tok {
		case ">", "+", "~":
			if expectPart && len(sel.Parts) == 0 {
				return Selector{}, fmt.Errorf("css: selector %q starts with a combinator", sel.Raw)
			}
			pending = map[string]Combinator{">": ChildCombinator, "+": AdjacentSiblingCombinator, "~": GeneralSiblingCombinator}[tok]
			expectPart = true
			continue
		}
		part, state, spec, err := parseCompound(tok)
		if err != nil {
			return Selector{}, fmt.Errorf("css: selector %q: %w", sel.Raw, err)
		}
		if len(sel.Parts) > 0 {
			sel.Combinators = append(sel.Combinators, pending)
		}
		sel.Parts = append(sel.Parts, part)
		sel.Specificity += spec
		if state != dom.PseudoNormal {
			sel.State = state
		}
		pending = DescendantCombinator
		expectPart = false
	}
	if expectPart {
		return Selector{}, fmt.Errorf("css: selector %q ends with a combinator", sel.Raw)
	}
	return sel, nil
}

// padCombinators surrounds combinators outside attribute brackets with
// spaces so they tokenize as words.
func padCombinators(s string) string {
	var b strings.Builder
	inBracket := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case !inBracket && (c == '>' || c == '+' || c == '~'):
			b.WriteByte(' ')
			b.WriteByte(c)
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Specificity weights: ids, then classes/attributes/pseudo-classes, then types.
const (
	specID      = 10000
	specClass   = 100
	specElement = 1
)

func parseCompound(tok string) (SelectorPart, dom.PseudoState, int, error) {
	var part SelectorPart
	state := dom.PseudoNormal
	spec := 0
	i := 0
	readName := func() string {
		start := i
		for i < len(tok) && (isNameByte(tok[i])) {
			i++
		}
		return tok[start:i]
	}
	if i < len(tok) && tok[i] == '*' {
		part.Element = "*"
		i++
	} else if name := readName(); name != "" {
		part.Element = strings.ToLower(name)
		spec += specElement
	}
	for i < len(tok) {
		switch tok[i] {
		case '#':
			i++
			part.ID = readName()
			if part.ID == "" {
				return part, state, 0, fmt.Errorf("empty id")
			}
			spec += specID
		case '.':
			i++
			c := readName()
			if c == "" {
				return part, state, 0, fmt.Errorf("empty class")
			}
			part.Classes = append(part.Classes, c)
			spec += specClass
		case '[':
			end := strings.IndexByte(tok[i:], ']')
			if end < 0 {
				return part, state, 0, fmt.Errorf("unterminated attribute selector")
			}
			part.Attributes = append(part.Attributes, parseAttributeSelector(tok[i+1:i+end]))
			i += end + 1
			spec += specClass
		case ':':
			i++
			name := strings.ToLower(readName())
			if st, ok := dom.ParsePseudoState(name); ok {
				state = st
			} else if name == "first-child" || name == "last-child" {
				part.PseudoClasses = append(part.PseudoClasses, name)
			} else {
				return part, state, 0, fmt.Errorf("unsupported pseudo-class %q", name)
			}
			spec += specClass
		default:
			return part, state, 0, fmt.Errorf("unexpected %q", tok[i:])
		}
	}
	return part, state, spec, nil
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func parseAttributeSelector(s string) AttributeSelector {
	for _, op := range []string{"~=", "|=", "^=", "$=", "*=", "="} {
		if i := strings.Index(s, op); i >= 0 {
			return AttributeSelector{
				Name:     strings.ToLower(strings.TrimSpace(s[:i])),
				Operator: op,
				Value:    strings.Trim(strings.TrimSpace(s[i+len(op):]), `"'`),
			}
		}
	}
	return AttributeSelector{Name: strings.ToLower(strings.TrimSpace(s))}
}
