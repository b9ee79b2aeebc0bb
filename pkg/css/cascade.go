package css

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"azul/pkg/config"
	"azul/pkg/diag"
	"azul/pkg/dom"
)

// ErrInvalidTree is returned when the styled tree fails validation.
var ErrInvalidTree = errors.New("css: invalid tree")

// inline declarations beat every selector
const inlineSpecificity = 1 << 30

// Resolver runs the cascade over styled trees.
type Resolver struct {
	Sheets          []*Stylesheet
	DefaultFontSize float64
	Viewport        Size
	Theme           config.Theme
	Sink            *diag.Sink
}

// NewResolver returns a resolver seeded with the user-agent stylesheet
// derived from the system style.
func NewResolver(sys config.SystemStyle, viewport Size, sink *diag.Sink) *Resolver {
	r := &Resolver{DefaultFontSize: sys.DefaultFontSize, Viewport: viewport, Theme: sys.Theme, Sink: sink}
	if r.DefaultFontSize <= 0 {
		r.DefaultFontSize = 16
	}
	r.AddStylesheet(sys.UserAgentStylesheet(), OriginUserAgent)
	return r
}

// AddStylesheet parses and appends a stylesheet. Parse errors are reported
// to the sink and the offending rules skipped.
func (r *Resolver) AddStylesheet(text string, origin Origin) {
	sheet, errs := ParseStylesheet(text, origin)
	for _, err := range errs {
		r.Sink.Debugf("css", "%s stylesheet: %v", origin, err)
	}
	r.Sheets = append(r.Sheets, sheet)
}

// Resolve cascades every node and pseudo-state of tree into a PropertyCache.
func (r *Resolver) Resolve(tree *dom.Tree) (*PropertyCache, error) {
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTree, err)
	}
	c := newPropertyCache(tree, r.DefaultFontSize)
	c.viewport = r.Viewport
	first := true
	tree.Walk(func(id dom.NodeID) bool {
		parent, hasParent := tree.Parent(id)
		for s := dom.PseudoState(0); s < dom.NumPseudoStates; s++ {
			var ps *computedStyle
			if hasParent {
				ps = c.style(parent, s)
			}
			decls, stateSpecific := r.collect(tree, id, s)
			if s != dom.PseudoNormal && !stateSpecific && (!hasParent || c.styles[parent][s] == nil) {
				continue
			}
			c.styles[id][s] = r.cascade(c, tree, id, s, parent, ps, decls)
		}
		if first {
			c.rootFontSize = c.styles[id][dom.PseudoNormal].fontSize
			first = false
		}
		return true
	})
	return c, nil
}

// collect gathers the declarations applying to id in state, sorted from
// lowest to highest precedence.
func (r *Resolver) collect(tree *dom.Tree, id dom.NodeID, state dom.PseudoState) ([]matchedDeclaration, bool) {
	n := tree.Node(id)
	var out []matchedDeclaration
	stateSpecific := false
	order := 0
	env := MediaEnv{Viewport: r.Viewport, Theme: r.Theme}
	if n.Type != dom.TextNode {
		for _, sheet := range r.Sheets {
			for _, rule := range sheet.Rules {
				if rule.Media != "" && !EvaluateMediaQuery(rule.Media, env) {
					order += len(rule.Declarations)
					continue
				}
				best := -1
				for _, sel := range rule.Selectors {
					if MatchesSelector(tree, id, sel, state) && sel.Specificity > best {
						best = sel.Specificity
						if state != dom.PseudoNormal && sel.State == state {
							stateSpecific = true
						}
					}
				}
				for _, d := range rule.Declarations {
					order++
					if best >= 0 {
						out = append(out, matchedDeclaration{d, sheet.Origin, best, order})
					}
				}
			}
		}
	}
	for _, d := range n.Style[dom.PseudoNormal] {
		order++
		out = append(out, matchedDeclaration{d, OriginAuthor, inlineSpecificity, order})
	}
	if state != dom.PseudoNormal {
		for _, d := range n.Style[state] {
			order++
			stateSpecific = true
			out = append(out, matchedDeclaration{d, OriginAuthor, inlineSpecificity + 1, order})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if la, lb := cascadeLayer(a.origin, a.Important), cascadeLayer(b.origin, b.Important); la != lb {
			return la < lb
		}
		if a.specificity != b.specificity {
			return a.specificity < b.specificity
		}
		return a.order < b.order
	})
	return out, stateSpecific
}

// cascadeLayer orders origins; important declarations invert the order.
func cascadeLayer(origin Origin, important bool) int {
	if important {
		switch origin {
		case OriginAuthor:
			return 3
		case OriginUser:
			return 4
		default:
			return 5
		}
	}
	switch origin {
	case OriginUser:
		return 1
	case OriginAuthor:
		return 2
	default:
		return 0
	}
}

// cascade computes one (node, state) style.
func (r *Resolver) cascade(c *PropertyCache, tree *dom.Tree, id dom.NodeID, state dom.PseudoState, parent dom.NodeID, ps *computedStyle, decls []matchedDeclaration) *computedStyle {
	cs := &computedStyle{values: make(map[Property]Computed, len(properties))}
	cs.custom = make(map[string]string)
	if ps != nil {
		for k, v := range ps.custom {
			cs.custom[k] = v
		}
	}
	for _, d := range decls {
		if strings.HasPrefix(d.Property, "--") {
			cs.custom[d.Property] = d.Value
		}
	}

	winners := make(map[Property]specified)
	for _, d := range decls {
		if strings.HasPrefix(d.Property, "--") {
			continue
		}
		value := d.Value
		if strings.Contains(value, "var(") {
			v, ok := substituteVars(value, cs.custom, 0)
			if !ok {
				r.Sink.Debugf("css", "node %d: %s: unresolved var() in %q", id, d.Property, d.Value)
				continue
			}
			value = v
		}
		longhands, isShorthand := expandShorthand(d.Property, value)
		if !isShorthand {
			p := Property(d.Property)
			if !Known(p) {
				r.Sink.Debugf("css", "node %d: dropped unknown property %q", id, d.Property)
				continue
			}
			longhands = []longhand{{p, value}}
		} else if len(longhands) == 0 {
			r.Sink.Debugf("css", "node %d: dropped invalid %s: %q", id, d.Property, value)
			continue
		}
		for _, lh := range longhands {
			sp, ok := parseSpecified(lh.prop, properties[lh.prop], lh.value)
			if !ok {
				r.Sink.Debugf("css", "node %d: dropped invalid %s: %q", id, lh.prop, lh.value)
				continue
			}
			winners[lh.prop] = sp
		}
	}

	emParent := dom.NoNode
	if ps != nil {
		emParent = parent
	}
	parentFont := r.DefaultFontSize
	if ps != nil {
		parentFont = ps.fontSize
	}

	// font-size first: everything else may read it
	fs := r.computeFontSize(c, id, state, emParent, ps, parentFont, winners)
	cs.values[PropFontSize] = fs
	cs.fontSize = fs.Value.Number

	// color next: currentcolor reads it
	cs.values[PropColor] = r.computeColor(ps, winners)

	for _, p := range allProperties {
		if p == PropFontSize || p == PropColor {
			continue
		}
		cs.values[p] = r.computeProperty(c, p, id, state, emParent, ps, cs, winners)
	}

	for i, style := range [4]Property{PropBorderTopStyle, PropBorderRightStyle, PropBorderBottomStyle, PropBorderLeftStyle} {
		if k := cs.values[style].Value.Keyword; k == "none" || k == "hidden" {
			cs.values[[4]Property{PropBorderTopWidth, PropBorderRightWidth, PropBorderBottomWidth, PropBorderLeftWidth}[i]] = Computed{Value: Px(0)}
		}
	}
	if k := cs.values[PropOutlineStyle].Value.Keyword; k == "none" || k == "hidden" {
		cs.values[PropOutlineWidth] = Computed{Value: Px(0)}
	}
	return cs
}

// winner returns the specified value to compute for p, applying the
// inherit/initial/unset keywords and default inheritance. inherit reports
// that the parent's computed value must be copied.
func winner(p Property, winners map[Property]specified, hasParent bool) (sp specified, inherit bool) {
	info := properties[p]
	sp, set := winners[p]
	switch {
	case !set || sp.global == "unset":
		inherit = info.inherited
	case sp.global == "inherit":
		inherit = true
	case sp.global == "initial":
		set = false
	}
	if inherit && hasParent {
		return specified{}, true
	}
	if !set || sp.global != "" {
		sp, _ = parseSpecified(p, info, info.initial)
	}
	return sp, false
}

func (r *Resolver) computeFontSize(c *PropertyCache, id dom.NodeID, state dom.PseudoState, emParent dom.NodeID, ps *computedStyle, parentFont float64, winners map[Property]specified) Computed {
	sp, inherit := winner(PropFontSize, winners, ps != nil)
	if inherit {
		// computed pixels inherit, never the parent's chain
		return Computed{Value: Px(ps.fontSize)}
	}
	var chain DependencyChain
	switch {
	case sp.fontKeyword > 0:
		return Computed{Value: Px(r.DefaultFontSize * sp.fontKeyword)}
	case sp.relative > 0:
		chain = DependencyChain{Em(emParent, 1), Multiply(sp.relative)}
	case sp.expr != nil:
		e := *sp.expr
		// percentages of font-size are of the parent font-size
		e.terms.c[UnitEm] += e.terms.c[UnitPercent] / 100
		e.terms.c[UnitPercent] = 0
		chain = e.compile(emParent, dom.NoNode, AxisNone)
	default:
		return Computed{Value: sp.value}
	}
	root := c.rootFontSize
	if root <= 0 {
		root = r.DefaultFontSize
	}
	ctx := ResolutionContext{
		Node:            id,
		State:           state,
		ElementFontSize: parentFont,
		ParentFontSize:  parentFont,
		RootFontSize:    root,
		Viewport:        r.Viewport,
	}
	if emParent == dom.NoNode {
		// the root's em and rem both read the default size
		ctx.RootFontSize = parentFont
	}
	px, _ := chain.Evaluate(ctx, c)
	if px < 0 {
		px = 0
	}
	return Computed{Value: Px(px), Chain: chain}
}

func (r *Resolver) computeColor(ps *computedStyle, winners map[Property]specified) Computed {
	sp, inherit := winner(PropColor, winners, ps != nil)
	if inherit || (sp.currentColor && ps != nil) {
		return ps.values[PropColor]
	}
	if sp.currentColor {
		return Computed{Value: ColorValue(Black)}
	}
	return Computed{Value: sp.value}
}

func (r *Resolver) computeProperty(c *PropertyCache, p Property, id dom.NodeID, state dom.PseudoState, emParent dom.NodeID, ps, cs *computedStyle, winners map[Property]specified) Computed {
	sp, inherit := winner(p, winners, ps != nil)
	if inherit {
		return inheritComputed(c, ps.values[p], emParent, state)
	}
	info := properties[p]
	switch {
	case sp.currentColor:
		return cs.values[PropColor]
	case sp.expr != nil && p == PropLineHeight:
		// line-height lengths compute to pixels against the element's own font
		e := *sp.expr
		e.terms.c[UnitEm] += e.terms.c[UnitPercent] / 100
		e.terms.c[UnitPercent] = 0
		px, _ := e.compile(id, dom.NoNode, AxisNone).Evaluate(ResolutionContext{
			Node: id, State: state, ElementFontSize: cs.fontSize, RootFontSize: c.rootOr(cs.fontSize), Viewport: r.Viewport,
		}, nil)
		return Computed{Value: Px(px)}
	case sp.expr != nil:
		return Computed{Chain: sp.expr.compile(id, emParent, info.axis)}
	}
	return Computed{Value: sp.value}
}

// inheritComputed copies a parent's computed value. Chains that only read
// font sizes are flattened to pixels first so that an em never re-resolves
// against the child's font-size.
func inheritComputed(c *PropertyCache, v Computed, parent dom.NodeID, state dom.PseudoState) Computed {
	if v.Chain == nil || v.Chain.DependsOnLayout() || parent == dom.NoNode {
		return v
	}
	px, _ := v.Chain.Evaluate(ResolutionContext{
		Node:            parent,
		State:           state,
		ElementFontSize: c.fontSizeOr(parent, state),
		RootFontSize:    c.rootOr(c.fontSizeOr(parent, state)),
		Viewport:        c.viewport,
	}, c)
	return Computed{Value: Px(px)}
}

// substituteVars replaces var(--name[, fallback]) references.
func substituteVars(value string, custom map[string]string, depth int) (string, bool) {
	if depth > 16 {
		return "", false
	}
	var b strings.Builder
	for {
		i := strings.Index(value, "var(")
		if i < 0 {
			b.WriteString(value)
			break
		}
		b.WriteString(value[:i])
		depthParen := 0
		end := -1
		for j := i + 3; j < len(value); j++ {
			if value[j] == '(' {
				depthParen++
			} else if value[j] == ')' {
				depthParen--
				if depthParen == 0 {
					end = j
					break
				}
			}
		}
		if end < 0 {
			return "", false
		}
		args := value[i+4 : end]
		name, fallback, hasFallback := strings.Cut(args, ",")
		name = strings.TrimSpace(name)
		repl, ok := custom[name]
		if !ok {
			if !hasFallback {
				return "", false
			}
			repl = strings.TrimSpace(fallback)
		}
		repl, ok = substituteVars(repl, custom, depth+1)
		if !ok {
			return "", false
		}
		b.WriteString(strings.TrimSpace(repl))
		value = value[end+1:]
	}
	return b.String(), true
}
