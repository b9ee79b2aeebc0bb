package css

import (
	"errors"
	"math"
	"strings"

	"azul/pkg/dom"
)

var errCalc = errors.New("css: invalid calc expression")

// linear is a sum of per-unit coefficients. Absolute units are folded into
// the px slot while parsing.
type linear struct {
	c         [UnitVmax + 1]float64
	dimension bool // some non-number unit took part
}

func (l linear) add(o linear, sign float64) linear {
	for i := range l.c {
		l.c[i] += sign * o.c[i]
	}
	l.dimension = l.dimension || o.dimension
	return l
}

func (l linear) scale(f float64) linear {
	for i := range l.c {
		l.c[i] *= f
	}
	return l
}

// absolute reports whether only px (and bare zero) terms remain.
func (l linear) absolute() bool {
	for u, v := range l.c {
		if v != 0 && Unit(u) != UnitPx && Unit(u) != UnitNone {
			return false
		}
	}
	return true
}

func lengthTerm(l Length) linear {
	var out linear
	u := l.Unit
	v := l.Value
	if l.IsAbsolute() {
		u, v = UnitPx, l.Px()
	}
	out.c[u] = v
	out.dimension = u != UnitNone
	return out
}

// lengthExpr is a parsed <length-percentage> before node ids are known.
type lengthExpr struct {
	terms linear
	post  []Step // Multiply / ClampMin / ClampMax applied after the terms
}

func (e lengthExpr) absolute() bool { return e.terms.absolute() }

// px evaluates an absolute expression.
func (e lengthExpr) px() float64 {
	v, _ := e.compile(dom.NoNode, dom.NoNode, AxisNone).Evaluate(ResolutionContext{}, nil)
	return v
}

// negative reports whether an absolute expression is below zero.
func (e lengthExpr) negative() bool { return e.absolute() && e.px() < 0 }

// compile turns the expression into a dependency chain. emSource is the node
// whose font-size em terms read; pctSource is recorded on percentage steps.
func (e lengthExpr) compile(emSource, pctSource dom.NodeID, axis Axis) DependencyChain {
	var chain DependencyChain
	if px := e.terms.c[UnitPx] + e.terms.c[UnitNone]; px != 0 {
		chain = append(chain, Step{Kind: StepPx, Value: px})
	}
	if f := e.terms.c[UnitEm]; f != 0 {
		chain = append(chain, Em(emSource, f))
	}
	if f := e.terms.c[UnitRem]; f != 0 {
		chain = append(chain, Rem(f))
	}
	if f := e.terms.c[UnitPercent]; f != 0 {
		chain = append(chain, Percent(pctSource, axis, f/100))
	}
	for _, vp := range []struct {
		u Unit
		a ViewportAxis
	}{{UnitVw, ViewportWidth}, {UnitVh, ViewportHeight}, {UnitVmin, ViewportMin}, {UnitVmax, ViewportMax}} {
		if f := e.terms.c[vp.u]; f != 0 {
			chain = append(chain, Step{Kind: StepViewport, Viewport: vp.a, Factor: f / 100})
		}
	}
	if len(chain) == 0 {
		chain = append(chain, Step{Kind: StepPx})
	}
	return append(chain, e.post...)
}

// parseLengthExpr parses a plain length, calc(), min(), max() or clamp().
// A bare non-zero number is rejected unless allowNumber is set.
func parseLengthExpr(s string, allowNumber bool) (lengthExpr, bool) {
	s = strings.TrimSpace(s)
	if l, ok := ParseLength(s); ok {
		if l.Unit == UnitNone && l.Value != 0 && !allowNumber {
			return lengthExpr{}, false
		}
		return lengthExpr{terms: lengthTerm(l)}, true
	}
	name, args, ok := splitFunction(strings.ToLower(s))
	if !ok {
		return lengthExpr{}, false
	}
	switch name {
	case "calc":
		l, err := parseCalc(args)
		if err != nil {
			return lengthExpr{}, false
		}
		return lengthExpr{terms: l}, true
	case "min", "max", "clamp":
		return parseComparison(name, args)
	}
	return lengthExpr{}, false
}

// parseComparison handles min()/max()/clamp(). At most one argument may be
// relative; it becomes the base and the absolute arguments become clamps.
func parseComparison(name, args string) (lengthExpr, bool) {
	parts := splitTopLevel(args, ',')
	if (name == "clamp" && len(parts) != 3) || len(parts) == 0 {
		return lengthExpr{}, false
	}
	exprs := make([]linear, len(parts))
	for i, p := range parts {
		l, err := parseCalc(p)
		if err != nil {
			return lengthExpr{}, false
		}
		exprs[i] = l
	}
	if name == "clamp" {
		lo, val, hi := exprs[0], exprs[1], exprs[2]
		if !lo.absolute() || !hi.absolute() {
			return lengthExpr{}, false
		}
		return lengthExpr{terms: val, post: []Step{ClampMin(pxOf(lo)), ClampMax(pxOf(hi))}}, true
	}
	base := -1
	bound := math.Inf(1)
	if name == "max" {
		bound = math.Inf(-1)
	}
	for i, e := range exprs {
		if !e.absolute() {
			if base >= 0 {
				return lengthExpr{}, false
			}
			base = i
			continue
		}
		if name == "min" {
			bound = math.Min(bound, pxOf(e))
		} else {
			bound = math.Max(bound, pxOf(e))
		}
	}
	if base < 0 {
		var l linear
		l.c[UnitPx] = bound
		l.dimension = true
		return lengthExpr{terms: l}, true
	}
	if len(exprs) == 1 {
		return lengthExpr{terms: exprs[base]}, true
	}
	step := ClampMax(bound)
	if name == "max" {
		step = ClampMin(bound)
	}
	return lengthExpr{terms: exprs[base], post: []Step{step}}, true
}

func pxOf(l linear) float64 { return l.c[UnitPx] + l.c[UnitNone] }

type calcParser struct {
	s   string
	pos int
}

// parseCalc evaluates a calc() body into per-unit coefficients.
func parseCalc(s string) (linear, error) {
	p := &calcParser{s: s}
	l, err := p.expr()
	if err != nil {
		return linear{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return linear{}, errCalc
	}
	return l, nil
}

func (p *calcParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *calcParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *calcParser) expr() (linear, error) {
	left, err := p.term()
	if err != nil {
		return linear{}, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return linear{}, err
		}
		sign := 1.0
		if op == '-' {
			sign = -1
		}
		if left.dimension != right.dimension && !(isZero(left) || isZero(right)) {
			return linear{}, errCalc
		}
		left = left.add(right, sign)
	}
}

func isZero(l linear) bool {
	for _, v := range l.c {
		if v != 0 {
			return false
		}
	}
	return true
}

func (p *calcParser) term() (linear, error) {
	left, err := p.factor()
	if err != nil {
		return linear{}, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.factor()
		if err != nil {
			return linear{}, err
		}
		switch {
		case op == '*' && !right.dimension:
			left = left.scale(pxOf(right))
		case op == '*' && !left.dimension:
			left = right.scale(pxOf(left))
		case op == '/' && !right.dimension && pxOf(right) != 0:
			left = left.scale(1 / pxOf(right))
		default:
			return linear{}, errCalc
		}
	}
}

func (p *calcParser) factor() (linear, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		l, err := p.expr()
		if err != nil {
			return linear{}, err
		}
		if p.peek() != ')' {
			return linear{}, errCalc
		}
		p.pos++
		return l, nil
	case c == '-' && p.pos+1 < len(p.s) && p.s[p.pos+1] == '(':
		p.pos++
		l, err := p.factor()
		return l.scale(-1), err
	case strings.HasPrefix(p.s[p.pos:], "calc("):
		p.pos += len("calc")
		return p.factor()
	}
	start := p.pos
	if p.pos < len(p.s) && (p.s[p.pos] == '-' || p.s[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.s) && (p.s[p.pos] == '.' || (p.s[p.pos] >= '0' && p.s[p.pos] <= '9')) {
		p.pos++
	}
	for p.pos < len(p.s) && (p.s[p.pos] == '%' || (p.s[p.pos] >= 'a' && p.s[p.pos] <= 'z')) {
		p.pos++
	}
	tok := p.s[start:p.pos]
	if tok == "" {
		return linear{}, errCalc
	}
	l, ok := ParseLength(tok)
	if !ok {
		return linear{}, errCalc
	}
	return lengthTerm(l), nil
}
