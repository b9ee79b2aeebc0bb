package css

import (
	"fmt"
	"math"
	"strings"

	"azul/pkg/dom"
)

// StepKind discriminates Step.
type StepKind uint8

const (
	// StepPx adds a constant number of pixels.
	StepPx StepKind = iota
	// StepEm adds Factor times the font-size of Source.
	StepEm
	// StepRem adds Factor times the root font-size.
	StepRem
	// StepPercent adds Factor times the containing block along Axis.
	// Factor is a fraction: 50% is stored as 0.5.
	StepPercent
	// StepViewport adds Factor times a viewport dimension (vw, vh, vmin, vmax).
	StepViewport
	// StepMultiply scales the accumulated value.
	StepMultiply
	// StepClampMin raises the accumulated value to at least Value.
	StepClampMin
	// StepClampMax lowers the accumulated value to at most Value.
	StepClampMax
)

// ViewportAxis selects the viewport dimension of a StepViewport.
type ViewportAxis uint8

const (
	ViewportWidth ViewportAxis = iota
	ViewportHeight
	ViewportMin
	ViewportMax
)

// Step is one instruction of a dependency chain.
type Step struct {
	Kind     StepKind
	Source   dom.NodeID // StepEm and StepPercent; NoNode reads the context element
	Axis     Axis       // StepPercent
	Viewport ViewportAxis
	Factor   float64
	Value    float64 // StepPx, StepClampMin, StepClampMax
}

// Em builds an em step reading the font-size of source.
func Em(source dom.NodeID, factor float64) Step {
	return Step{Kind: StepEm, Source: source, Factor: factor}
}

// Rem builds a root-em step.
func Rem(factor float64) Step { return Step{Kind: StepRem, Factor: factor} }

// Percent builds a percentage step; factor is a fraction.
func Percent(source dom.NodeID, axis Axis, factor float64) Step {
	return Step{Kind: StepPercent, Source: source, Axis: axis, Factor: factor}
}

// Multiply builds a scaling step.
func Multiply(factor float64) Step { return Step{Kind: StepMultiply, Factor: factor} }

// ClampMin builds a lower clamp.
func ClampMin(v float64) Step { return Step{Kind: StepClampMin, Value: v} }

// ClampMax builds an upper clamp.
func ClampMax(v float64) Step { return Step{Kind: StepClampMax, Value: v} }

func (s Step) String() string {
	switch s.Kind {
	case StepPx:
		return fmt.Sprintf("Px(%g)", s.Value)
	case StepEm:
		return fmt.Sprintf("Em(%d, %g)", s.Source, s.Factor)
	case StepRem:
		return fmt.Sprintf("Rem(%g)", s.Factor)
	case StepPercent:
		return fmt.Sprintf("Percent(%d, %d, %g)", s.Source, s.Axis, s.Factor)
	case StepViewport:
		return fmt.Sprintf("Viewport(%d, %g)", s.Viewport, s.Factor)
	case StepMultiply:
		return fmt.Sprintf("Multiply(%g)", s.Factor)
	case StepClampMin:
		return fmt.Sprintf("ClampMin(%g)", s.Value)
	case StepClampMax:
		return fmt.Sprintf("ClampMax(%g)", s.Value)
	}
	return "?"
}

// DependencyChain is a deferred resolution program. Load steps (Px, Em,
// Rem, Percent, Viewport) add into an accumulator; Multiply and the clamps
// transform it.
type DependencyChain []Step

func (c DependencyChain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DependsOnLayout reports whether the chain reads the containing block or
// the viewport, i.e. whether it can only be evaluated during layout.
func (c DependencyChain) DependsOnLayout() bool {
	for _, s := range c {
		if s.Kind == StepPercent || s.Kind == StepViewport {
			return true
		}
	}
	return false
}

// shift moves every node reference by offset.
func (c DependencyChain) shift(offset int) DependencyChain {
	if len(c) == 0 {
		return c
	}
	out := make(DependencyChain, len(c))
	copy(out, c)
	for i := range out {
		if out[i].Source != dom.NoNode {
			out[i].Source += dom.NodeID(offset)
		}
	}
	return out
}

// Size is a width/height pair in pixels. A negative dimension is
// indefinite.
type Size struct {
	Width, Height float64
}

// Indefinite is a size whose dimensions are both unknown.
var Indefinite = Size{-1, -1}

// ResolutionContext carries everything a dependency chain may read.
type ResolutionContext struct {
	Node            dom.NodeID
	State           dom.PseudoState
	Axis            Axis // used by properties whose percentages follow the context axis
	ContainingBlock Size
	ElementFontSize float64
	ParentFontSize  float64
	RootFontSize    float64
	Viewport        Size
}

// fontSizer answers the computed font-size of a node.
type fontSizer interface {
	fontSizeOf(id dom.NodeID, state dom.PseudoState) (float64, bool)
}

// Evaluate runs the chain. ok is false when a percentage step meets an
// indefinite containing block.
func (c DependencyChain) Evaluate(ctx ResolutionContext, fonts fontSizer) (px float64, ok bool) {
	acc := 0.0
	for _, s := range c {
		switch s.Kind {
		case StepPx:
			acc += s.Value
		case StepEm:
			acc += s.Factor * emBase(s.Source, ctx, fonts)
		case StepRem:
			acc += s.Factor * ctx.RootFontSize
		case StepPercent:
			basis := percentBasis(s.Axis, ctx)
			if basis < 0 {
				return 0, false
			}
			acc += s.Factor * basis
		case StepViewport:
			acc += s.Factor * viewportBasis(s.Viewport, ctx.Viewport)
		case StepMultiply:
			acc *= s.Factor
		case StepClampMin:
			acc = math.Max(acc, s.Value)
		case StepClampMax:
			acc = math.Min(acc, s.Value)
		}
	}
	if math.IsNaN(acc) || math.IsInf(acc, 0) {
		return 0, true
	}
	return acc, true
}

func emBase(source dom.NodeID, ctx ResolutionContext, fonts fontSizer) float64 {
	if source == dom.NoNode || source == ctx.Node {
		if ctx.ElementFontSize > 0 {
			return ctx.ElementFontSize
		}
	}
	if fonts != nil && source != dom.NoNode {
		if fs, ok := fonts.fontSizeOf(source, ctx.State); ok {
			return fs
		}
	}
	if ctx.ParentFontSize > 0 && source != ctx.Node {
		return ctx.ParentFontSize
	}
	return ctx.ElementFontSize
}

func percentBasis(axis Axis, ctx ResolutionContext) float64 {
	if axis == AxisContext {
		axis = ctx.Axis
	}
	switch axis {
	case AxisVertical:
		return ctx.ContainingBlock.Height
	case AxisHorizontal:
		return ctx.ContainingBlock.Width
	}
	return -1
}

func viewportBasis(axis ViewportAxis, vp Size) float64 {
	w, h := math.Max(vp.Width, 0), math.Max(vp.Height, 0)
	switch axis {
	case ViewportHeight:
		return h
	case ViewportMin:
		return math.Min(w, h)
	case ViewportMax:
		return math.Max(w, h)
	}
	return w
}
