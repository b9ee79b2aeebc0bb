package css

import (
	"fmt"

	"azul/pkg/dom"
)

// Computed is the computed value of one property: either a concrete Value
// or a dependency chain evaluated at read time. font-size carries both, its
// pixel value and the chain it was derived from.
type Computed struct {
	Value Value
	Chain DependencyChain
}

// Deferred reports whether the value must be resolved through its chain.
func (c Computed) Deferred() bool { return c.Chain != nil }

type computedStyle struct {
	values   map[Property]Computed
	custom   map[string]string
	fontSize float64
}

type resolveKey struct {
	prop Property
	ctx  ResolutionContext
}

// PropertyCache maps (node, pseudo-state) to computed property maps. A
// missing pseudo-state entry means the state computes to the same values as
// the normal state.
type PropertyCache struct {
	tree            *dom.Tree
	styles          [][dom.NumPseudoStates]*computedStyle
	rootFontSize    float64
	defaultFontSize float64
	viewport        Size
	resolved        map[resolveKey]Value
}

func newPropertyCache(tree *dom.Tree, defaultFontSize float64) *PropertyCache {
	return &PropertyCache{
		tree:            tree,
		styles:          make([][dom.NumPseudoStates]*computedStyle, tree.Len()),
		defaultFontSize: defaultFontSize,
		resolved:        make(map[resolveKey]Value),
	}
}

// Len returns the number of nodes covered.
func (c *PropertyCache) Len() int { return len(c.styles) }

// Tree returns the styled tree the cache was computed for.
func (c *PropertyCache) Tree() *dom.Tree { return c.tree }

// RootFontSize returns the computed font-size of the document root.
func (c *PropertyCache) RootFontSize() float64 { return c.rootOr(c.defaultFontSize) }

// Viewport returns the viewport the cache was computed against.
func (c *PropertyCache) Viewport() Size { return c.viewport }

func (c *PropertyCache) style(id dom.NodeID, state dom.PseudoState) *computedStyle {
	if id < 0 || int(id) >= len(c.styles) || state < 0 || state >= dom.NumPseudoStates {
		return nil
	}
	if s := c.styles[id][state]; s != nil {
		return s
	}
	return c.styles[id][dom.PseudoNormal]
}

func (c *PropertyCache) fontSizeOf(id dom.NodeID, state dom.PseudoState) (float64, bool) {
	s := c.style(id, state)
	if s == nil {
		return 0, false
	}
	return s.fontSize, true
}

func (c *PropertyCache) fontSizeOr(id dom.NodeID, state dom.PseudoState) float64 {
	if fs, ok := c.fontSizeOf(id, state); ok {
		return fs
	}
	return c.defaultFontSize
}

func (c *PropertyCache) rootOr(def float64) float64 {
	if c.rootFontSize > 0 {
		return c.rootFontSize
	}
	return def
}

// HasState reports whether the node has a distinct style for state.
func (c *PropertyCache) HasState(id dom.NodeID, state dom.PseudoState) bool {
	return id >= 0 && int(id) < len(c.styles) && c.styles[id][state] != nil
}

// Computed returns the computed value of p on (id, state).
func (c *PropertyCache) Computed(id dom.NodeID, state dom.PseudoState, p Property) (Computed, bool) {
	s := c.style(id, state)
	if s == nil {
		return Computed{}, false
	}
	v, ok := s.values[p]
	return v, ok
}

// FontSize returns the computed font-size in pixels.
func (c *PropertyCache) FontSize(id dom.NodeID, state dom.PseudoState) float64 {
	return c.fontSizeOr(id, state)
}

// Custom returns the value of a custom property visible at (id, state).
func (c *PropertyCache) Custom(id dom.NodeID, state dom.PseudoState, name string) (string, bool) {
	s := c.style(id, state)
	if s == nil {
		return "", false
	}
	v, ok := s.custom[name]
	return v, ok
}

// Context returns a resolution context for id with its font sizes filled
// in from the cache.
func (c *PropertyCache) Context(id dom.NodeID, state dom.PseudoState, cb Size) ResolutionContext {
	ctx := ResolutionContext{
		Node:            id,
		State:           state,
		ContainingBlock: cb,
		ElementFontSize: c.fontSizeOr(id, state),
		RootFontSize:    c.RootFontSize(),
		Viewport:        c.viewport,
	}
	if p, ok := c.tree.Parent(id); ok {
		ctx.ParentFontSize = c.fontSizeOr(p, state)
	} else {
		ctx.ParentFontSize = c.defaultFontSize
	}
	return ctx
}

// Resolve returns the concrete value of p in ctx. Chains are evaluated and
// memoized per context; a percentage against an indefinite containing
// block resolves to the keyword auto.
func (c *PropertyCache) Resolve(p Property, ctx ResolutionContext) Value {
	comp, ok := c.Computed(ctx.Node, ctx.State, p)
	if !ok {
		sp, _ := parseSpecified(p, properties[p], properties[p].initial)
		return sp.value
	}
	if comp.Chain == nil || p == PropFontSize {
		return comp.Value
	}
	key := resolveKey{p, ctx}
	if v, ok := c.resolved[key]; ok {
		return v
	}
	if ctx.ElementFontSize <= 0 {
		ctx.ElementFontSize = c.fontSizeOr(ctx.Node, ctx.State)
	}
	if ctx.RootFontSize <= 0 {
		ctx.RootFontSize = c.RootFontSize()
	}
	if ctx.ParentFontSize <= 0 {
		if parent, ok := c.tree.Parent(ctx.Node); ok {
			ctx.ParentFontSize = c.fontSizeOr(parent, ctx.State)
		}
	}
	v := Keyword("auto")
	if px, ok := comp.Chain.Evaluate(ctx, c); ok {
		if properties[p].nonNegative && px < 0 {
			px = 0
		}
		v = Px(px)
	}
	c.resolved[key] = v
	return v
}

// ResolvePx resolves p to pixels. ok is false for keywords such as auto or
// none and for percentages of an indefinite size.
func (c *PropertyCache) ResolvePx(p Property, ctx ResolutionContext) (float64, bool) {
	v := c.Resolve(p, ctx)
	if v.Kind == KindLength {
		return v.Number, true
	}
	return 0, false
}

// Keyword returns the keyword of p, or "" when the value is not a keyword.
func (c *PropertyCache) Keyword(id dom.NodeID, state dom.PseudoState, p Property) string {
	comp, ok := c.Computed(id, state, p)
	if !ok {
		return properties[p].initial
	}
	if comp.Chain != nil || comp.Value.Kind != KindKeyword {
		return ""
	}
	return comp.Value.Keyword
}

// Color returns a color property, transparent if unset.
func (c *PropertyCache) Color(id dom.NodeID, state dom.PseudoState, p Property) Color {
	comp, ok := c.Computed(id, state, p)
	if !ok || comp.Value.Kind != KindColor {
		return Transparent
	}
	return comp.Value.Color
}

// Number returns a numeric property, or def for keywords.
func (c *PropertyCache) Number(id dom.NodeID, state dom.PseudoState, p Property, def float64) float64 {
	comp, ok := c.Computed(id, state, p)
	if !ok || comp.Chain != nil || comp.Value.Kind != KindNumber {
		return def
	}
	return comp.Value.Number
}

// Value returns the concrete computed value of p; deferred values are
// reported as the keyword auto.
func (c *PropertyCache) Value(id dom.NodeID, state dom.PseudoState, p Property) Value {
	comp, ok := c.Computed(id, state, p)
	if !ok || comp.Chain != nil {
		return Keyword("auto")
	}
	return comp.Value
}

// ForEachChain calls fn for every stored dependency chain.
func (c *PropertyCache) ForEachChain(fn func(id dom.NodeID, state dom.PseudoState, p Property, chain DependencyChain)) {
	for i := range c.styles {
		for s, st := range c.styles[i] {
			if st == nil {
				continue
			}
			for _, p := range allProperties {
				if v := st.values[p]; v.Chain != nil {
					fn(dom.NodeID(i), dom.PseudoState(s), p, v.Chain)
				}
			}
		}
	}
}

// Graft appends the styles of sub after its tree has been grafted onto
// this cache's tree at offset (the value returned by dom.Tree.Graft). Every
// chain source of the appended styles is shifted by offset.
func (c *PropertyCache) Graft(sub *PropertyCache, offset int) error {
	if offset != len(c.styles) {
		return fmt.Errorf("%w: graft offset %d does not match %d cached nodes", ErrInvalidTree, offset, len(c.styles))
	}
	if c.tree.Len() != offset+len(sub.styles) {
		return fmt.Errorf("%w: tree has %d nodes, expected %d after graft", ErrInvalidTree, c.tree.Len(), offset+len(sub.styles))
	}
	for _, states := range sub.styles {
		var shifted [dom.NumPseudoStates]*computedStyle
		for s, st := range states {
			if st == nil {
				continue
			}
			cp := &computedStyle{values: make(map[Property]Computed, len(st.values)), custom: st.custom, fontSize: st.fontSize}
			for p, v := range st.values {
				v.Chain = v.Chain.shift(offset)
				cp.values[p] = v
			}
			shifted[s] = cp
		}
		c.styles = append(c.styles, shifted)
	}
	clear(c.resolved)
	return nil
}
