package css

import (
	"errors"
	"testing"

	"azul/pkg/config"
	"azul/pkg/dom"
)

func TestEvaluateChain(t *testing.T) {
	ctx := ResolutionContext{
		Node:            3,
		ContainingBlock: Size{400, -1},
		ElementFontSize: 20,
		ParentFontSize:  10,
		RootFontSize:    16,
		Viewport:        Size{1000, 500},
	}
	tests := []struct {
		name  string
		chain DependencyChain
		want  float64
		ok    bool
	}{
		{"px", DependencyChain{{Kind: StepPx, Value: 5}}, 5, true},
		{"own em", DependencyChain{Em(3, 1.5)}, 30, true},
		{"em without source", DependencyChain{Em(dom.NoNode, 1)}, 20, true},
		{"rem", DependencyChain{Rem(2)}, 32, true},
		{"percent width", DependencyChain{Percent(2, AxisHorizontal, 0.25)}, 100, true},
		{"percent indefinite", DependencyChain{Percent(2, AxisVertical, 0.25)}, 0, false},
		{"vmin", DependencyChain{{Kind: StepViewport, Viewport: ViewportMin, Factor: 0.1}}, 50, true},
		{"sum then multiply", DependencyChain{{Kind: StepPx, Value: 10}, Rem(1), Multiply(2)}, 52, true},
		{"clamp max", DependencyChain{Percent(2, AxisHorizontal, 1), ClampMax(300)}, 300, true},
		{"clamp min", DependencyChain{Rem(1), ClampMin(20)}, 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.chain.Evaluate(ctx, nil)
			if ok != tt.ok || (ok && !approx(got, tt.want)) {
				t.Errorf("Evaluate(%v) = %v, %v; want %v, %v", tt.chain, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseLengthExpr(t *testing.T) {
	ctx := ResolutionContext{ContainingBlock: Size{400, 200}, ElementFontSize: 10, RootFontSize: 16, Viewport: Size{800, 600}}
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12px", 12, true},
		{"0", 0, true},
		{"12", 0, false},
		{"1in", 96, true},
		{"calc(50% - 10px)", 190, true},
		{"calc(2 * (1em + 5px))", 30, true},
		{"calc(100px / 4)", 25, true},
		{"calc(10px * 2px)", 0, false},
		{"calc(10px + )", 0, false},
		{"min(50%, 300px)", 200, true},
		{"max(50%, 300px)", 300, true},
		{"min(10px, 20px, 5px)", 5, true},
		{"clamp(100px, 10vw, 200px)", 100, true},
		{"clamp(10px, 50%, 20%)", 0, false},
		{"min(1em, 50%)", 0, false},
		{"wat(3px)", 0, false},
	}
	for _, tt := range tests {
		e, ok := parseLengthExpr(tt.in, false)
		if ok != tt.ok {
			t.Errorf("parseLengthExpr(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		got, _ := e.compile(dom.NoNode, dom.NoNode, AxisHorizontal).Evaluate(ctx, nil)
		if !approx(got, tt.want) {
			t.Errorf("%q = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPercentAgainstContainingBlock(t *testing.T) {
	tree := dom.NewTree()
	div := tree.AddElement(dom.NoNode, "div", "width: 50%; height: 50%; padding-top: 10%")
	c, _ := resolveTree(t, tree)

	ctx := c.Context(div, dom.PseudoNormal, Size{400, -1})
	if w, ok := c.ResolvePx(PropWidth, ctx); !ok || w != 200 {
		t.Errorf("width = %v, %v", w, ok)
	}
	if v := c.Resolve(PropHeight, ctx); !v.IsAuto() {
		t.Errorf("height against an indefinite block = %v, want auto", v)
	}
	// vertical padding percentages refer to the width
	if p, ok := c.ResolvePx(PropPaddingTop, ctx); !ok || p != 40 {
		t.Errorf("padding-top = %v, %v", p, ok)
	}
	// memoized per context: a different block re-evaluates
	if w, _ := c.ResolvePx(PropWidth, c.Context(div, dom.PseudoNormal, Size{100, 100})); w != 50 {
		t.Errorf("width in 100px block = %v", w)
	}
}

func TestGraftShiftsChains(t *testing.T) {
	host := dom.NewTree()
	body := host.AddElement(dom.NoNode, "body", "font-size: 20px")
	frame := host.AddElement(body, "div", "")

	sub := dom.NewTree()
	subRoot := sub.AddElement(dom.NoNode, "div", "font-size: 10px; padding-left: 2em")
	p := sub.AddElement(subRoot, "p", "font-size: 2em; width: 50%")
	sub.AddText(p, "inner")

	r := NewResolver(config.Default(), Size{800, 600}, nil)
	hc, err := r.Resolve(host)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := r.Resolve(sub)
	if err != nil {
		t.Fatal(err)
	}

	type key struct {
		id    dom.NodeID
		state dom.PseudoState
		prop  Property
	}
	before := make(map[key]DependencyChain)
	sc.ForEachChain(func(id dom.NodeID, s dom.PseudoState, p Property, chain DependencyChain) {
		before[key{id, s, p}] = chain
	})
	if len(before) == 0 {
		t.Fatal("sub-document produced no chains")
	}

	offset, err := host.Graft(sub, frame)
	if err != nil {
		t.Fatal(err)
	}
	if err := hc.Graft(sc, offset+1); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("misaligned graft error = %v", err)
	}
	if err := hc.Graft(sc, offset); err != nil {
		t.Fatal(err)
	}

	for k, chain := range before {
		got, ok := hc.Computed(k.id+dom.NodeID(offset), k.state, k.prop)
		if !ok || len(got.Chain) != len(chain) {
			t.Fatalf("node %d %s: chain %v after graft, want shifted %v", k.id, k.prop, got.Chain, chain)
		}
		for i, step := range chain {
			want := step.Source
			if want != dom.NoNode {
				want += dom.NodeID(offset)
			}
			if got.Chain[i].Source != want {
				t.Errorf("node %d %s step %d source = %d, want %d", k.id, k.prop, i, got.Chain[i].Source, want)
			}
		}
	}

	shiftedP := p + dom.NodeID(offset)
	if fs := hc.FontSize(shiftedP, dom.PseudoNormal); fs != 20 {
		t.Errorf("grafted font-size = %v, want 20", fs)
	}
	fsChain, _ := hc.Computed(shiftedP, dom.PseudoNormal, PropFontSize)
	if fsChain.Chain[0].Source != subRoot+dom.NodeID(offset) {
		t.Errorf("grafted font-size chain = %v", fsChain.Chain)
	}
	pad, _ := hc.ResolvePx(PropPaddingLeft, hc.Context(subRoot+dom.NodeID(offset), dom.PseudoNormal, Size{300, 300}))
	if pad != 20 {
		t.Errorf("grafted padding-left = %v, want 20", pad)
	}
	if parent, _ := host.Parent(subRoot + dom.NodeID(offset)); parent != frame {
		t.Errorf("grafted root parent = %d, want %d", parent, frame)
	}
}
