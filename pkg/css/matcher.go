package css

import (
	"strings"

	"azul/pkg/dom"
)

// MatchesSelector reports whether node id of tree matches sel when the node
// is in the given pseudo-state. Selectors requiring :hover, :active or
// :focus only match in that state.
func MatchesSelector(tree *dom.Tree, id dom.NodeID, sel Selector, state dom.PseudoState) bool {
	n := tree.Node(id)
	if n == nil || n.Type == dom.TextNode || len(sel.Parts) == 0 {
		return false
	}
	if sel.State != dom.PseudoNormal && sel.State != state {
		return false
	}
	// start matching from the rightmost part (the subject)
	return matchesCompound(tree, id, sel, len(sel.Parts)-1)
}

// matchesCompound checks the part at partIndex against id and then the
// combinator chain to its left.
func matchesCompound(tree *dom.Tree, id dom.NodeID, sel Selector, partIndex int) bool {
	if !matchesPart(tree, id, sel.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}
	prev := partIndex - 1
	switch sel.Combinators[prev] {
	case DescendantCombinator:
		for a, ok := tree.Parent(id); ok; a, ok = tree.Parent(a) {
			if matchesCompound(tree, a, sel, prev) {
				return true
			}
		}
		return false
	case ChildCombinator:
		if p, ok := tree.Parent(id); ok {
			return matchesCompound(tree, p, sel, prev)
		}
		return false
	case AdjacentSiblingCombinator:
		if s, ok := tree.PrevSibling(id); ok {
			return matchesCompound(tree, s, sel, prev)
		}
		return false
	case GeneralSiblingCombinator:
		for s, ok := tree.PrevSibling(id); ok; s, ok = tree.PrevSibling(s) {
			if matchesCompound(tree, s, sel, prev) {
				return true
			}
		}
		return false
	}
	return false
}

func matchesPart(tree *dom.Tree, id dom.NodeID, part SelectorPart) bool {
	n := tree.Node(id)
	if n == nil || n.Type == dom.TextNode {
		return false
	}
	if part.Element != "" && part.Element != "*" && n.Tag != part.Element {
		return false
	}
	if part.ID != "" && n.ID != part.ID {
		return false
	}
	for _, c := range part.Classes {
		if !n.HasClass(c) {
			return false
		}
	}
	for _, a := range part.Attributes {
		if !matchesAttributeSelector(n, a) {
			return false
		}
	}
	for _, pc := range part.PseudoClasses {
		switch pc {
		case "first-child":
			if _, ok := tree.PrevSibling(id); ok {
				return false
			}
		case "last-child":
			if !isLastElementChild(tree, id) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isLastElementChild(tree *dom.Tree, id dom.NodeID) bool {
	p, ok := tree.Parent(id)
	if !ok {
		return true
	}
	children := tree.Children(p)
	for i := len(children) - 1; i >= 0; i-- {
		if c := tree.Node(children[i]); c != nil && c.Type != dom.TextNode {
			return children[i] == id
		}
	}
	return false
}

func matchesAttributeSelector(n *dom.Node, attr AttributeSelector) bool {
	value, ok := n.Attribute(attr.Name)
	if !ok {
		return false
	}
	switch attr.Operator {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		for _, word := range strings.Fields(value) {
			if word == attr.Value {
				return true
			}
		}
		return false
	case "|=":
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}
	return false
}

// matchedDeclaration is a declaration with its cascade sort keys.
type matchedDeclaration struct {
	dom.Declaration
	origin      Origin
	specificity int
	order       int
}

// MatchingRules returns the rules of sheet that match id in state, in
// source order, with the highest matching selector specificity of each.
func MatchingRules(tree *dom.Tree, id dom.NodeID, sheet *Stylesheet, state dom.PseudoState) ([]Rule, []int) {
	var rules []Rule
	var specs []int
	for _, r := range sheet.Rules {
		best := -1
		for _, sel := range r.Selectors {
			if MatchesSelector(tree, id, sel, state) && sel.Specificity > best {
				best = sel.Specificity
			}
		}
		if best >= 0 {
			rules = append(rules, r)
			specs = append(specs, best)
		}
	}
	return rules, specs
}
