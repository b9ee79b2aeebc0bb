package layout

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"azul/pkg/config"
	"azul/pkg/css"
	"azul/pkg/diag"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/text"
	"azul/pkg/text/texttest"
)

type fakeImages map[string]geom.Size

func (f fakeImages) Lookup(ref string) (images.Info, bool) {
	sz, ok := f[ref]
	return images.Info{Size: sz}, ok
}

func resolve(t *testing.T, markup string) (*css.PropertyCache, *dom.Tree) {
	t.Helper()
	doc, err := dom.ParseHTMLString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := css.NewResolver(config.Default(), css.Size{Width: 800, Height: 600}, nil)
	for _, s := range doc.Stylesheets {
		r.AddStylesheet(s, css.OriginAuthor)
	}
	styles, err := r.Resolve(doc.Tree)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return styles, doc.Tree
}

func layoutHTML(t *testing.T, markup string, opts Options) (*Positioned, *dom.Tree) {
	t.Helper()
	styles, tree := resolve(t, markup)
	if opts.Text == nil {
		opts.Text = text.NewEngine(texttest.FontSet(), nil, nil)
	}
	p, err := NewEngine(geom.Size{Width: 800, Height: 600}, opts).Layout(styles)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return p, tree
}

// byID returns the node carrying the given id attribute.
func byID(t *testing.T, tree *dom.Tree, id string) dom.NodeID {
	t.Helper()
	found := dom.NoNode
	tree.Walk(func(n dom.NodeID) bool {
		if tree.Node(n).ID == id {
			found = n
		}
		return found == dom.NoNode
	})
	if found == dom.NoNode {
		t.Fatalf("no node with id %q", id)
	}
	return found
}

func boxByID(t *testing.T, p *Positioned, tree *dom.Tree, id string) BoxID {
	t.Helper()
	b, ok := p.Tree.BoxOf(byID(t, tree, id))
	if !ok {
		t.Fatalf("node %q generated no box", id)
	}
	return b
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func nearRect(a, b geom.Rect) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}

func TestNestedFontSizeMargins(t *testing.T) {
	p, tree := layoutHTML(t, `<body style="font-size:16px"><h1 id="h" style="font-size:2em; margin:0.67em">X</h1></body>`, Options{})
	h := boxByID(t, p, tree, "h")
	box := p.Tree.Box(h)
	for name, got := range map[string]float64{
		"top": box.Props.Margin.Top, "right": box.Props.Margin.Right,
		"bottom": box.Props.Margin.Bottom, "left": box.Props.Margin.Left,
	} {
		if !near(got, 21.44) {
			t.Errorf("margin-%s = %v, want 21.44", name, got)
		}
	}
	// the h1 margin collapses through body to the top of the document
	want := geom.R(21.44, 21.44, 800-2*21.44, 32)
	if got := p.BorderBox(h); !nearRect(got, want) {
		t.Errorf("h1 border box = %v, want %v", got, want)
	}
	html, _ := p.Tree.BoxOf(tree.Roots()[0])
	if got := p.Tree.Box(html).Used.Height; !near(got, 21.44+32+21.44) {
		t.Errorf("html height = %v, want %v", got, 21.44+32+21.44)
	}
}

func TestAbsoluteUnderPositionedParent(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div style="height:40px"></div>
<div id="p" style="position:relative; width:400px; height:400px; padding:10px; border:5px solid">
<div id="c" style="position:absolute; top:20px; left:30px; width:50px; height:50px"></div></div></body>`, Options{})
	parent := p.BorderBox(boxByID(t, p, tree, "p"))
	child := p.BorderBox(boxByID(t, p, tree, "c"))
	want := geom.R(parent.X+35, parent.Y+25, 50, 50)
	if !nearRect(child, want) {
		t.Fatalf("child = %v, want %v (parent %v)", child, want, parent)
	}
	if parent.Y != 40 || parent.Width != 430 {
		t.Errorf("parent = %v, want y 40 and width 430", parent)
	}
}

func TestAbsolutePlacement(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		style string
		want  geom.Rect
	}{
		{"top left percent", "", "top:10%; left:5%; width:20px; height:20px", geom.R(40, 60, 20, 20)},
		{"bottom right", "", "right:10px; bottom:20px; width:30px; height:40px", geom.R(760, 540, 30, 40)},
		{"static position", "", "width:20px; height:20px", geom.R(0, 100, 20, 20)},
		{"stretched between insets", "", "left:100px; right:100px; top:0; height:10px", geom.R(100, 0, 600, 10)},
		{"top beats bottom", "", "top:5px; bottom:5px; left:0; width:10px; height:10px", geom.R(0, 5, 10, 10)},
		{"margin", "", "top:10px; left:10px; margin:5px; width:10px; height:10px", geom.R(15, 15, 10, 10)},
		{"left beats right", "", "top:0; left:10px; right:20px; width:50px; height:10px", geom.R(10, 0, 50, 10)},
		{"right beats left in rtl", "direction:rtl", "top:0; left:10px; right:20px; width:50px; height:10px", geom.R(730, 0, 50, 10)},
		{"rtl auto margins centre", "direction:rtl", "top:0; left:0; right:0; margin:0 auto; width:100px; height:10px", geom.R(350, 0, 100, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, tree := layoutHTML(t, `<body style="`+tt.body+`"><div style="height:100px"></div><div id="a" style="position:absolute; `+tt.style+`"></div></body>`, Options{})
			if got := p.BorderBox(boxByID(t, p, tree, "a")); !nearRect(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAbsoluteRTLContainingBlock(t *testing.T) {
	p, tree := layoutHTML(t, `<body style="direction:rtl"><div id="cb" style="position:relative; width:400px; height:100px">
<div id="a" style="position:absolute; top:0; left:10px; right:20px; width:50px; height:10px"></div></div></body>`, Options{})
	cb := p.PaddingBox(boxByID(t, p, tree, "cb"))
	got := p.BorderBox(boxByID(t, p, tree, "a"))
	if want := geom.R(cb.Right()-20-50, cb.Y, 50, 10); !nearRect(got, want) {
		t.Errorf("containing block %v: got %v, want %v", cb, got, want)
	}
}

func TestFixedUsesViewport(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div style="position:relative; margin-top:50px; height:100px">
<div id="f" style="position:fixed; bottom:0; left:0; width:10px; height:10px"></div></div></body>`, Options{})
	if got, want := p.BorderBox(boxByID(t, p, tree, "f")), geom.R(0, 590, 10, 10); !nearRect(got, want) {
		t.Errorf("fixed = %v, want %v", got, want)
	}
}

func TestBlockIntrinsicWidth(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="p" style="float:left">
<div style="width:80px; height:10px"></div><div style="width:120px; height:20px"></div><div style="width:60px; height:30px"></div>
</div></body>`, Options{})
	b := p.Tree.Box(boxByID(t, p, tree, "p"))
	if b.Intrinsic.PrefWidth != 120 || b.Intrinsic.MinWidth != 120 {
		t.Errorf("intrinsic widths = %v/%v, want 120/120", b.Intrinsic.MinWidth, b.Intrinsic.PrefWidth)
	}
	if b.Intrinsic.PrefHeight != 60 {
		t.Errorf("pref height = %v, want 60", b.Intrinsic.PrefHeight)
	}
	if b.Used.Width != 120 || b.Used.Height != 60 {
		t.Errorf("float used size = %v, want 120x60", b.Used)
	}
}

func TestInlineBlockShrinkToFit(t *testing.T) {
	// "aaa bbb" is 30px min-content and 70px max-content
	tests := []struct {
		container float64
		want      float64
	}{
		{10, 30},
		{50, 50},
		{200, 70},
	}
	for _, tt := range tests {
		p, tree := layoutHTML(t, `<body><div style="width:`+strconv.FormatFloat(tt.container, 'f', -1, 64)+`px"><div id="ib" style="display:inline-block">aaa bbb</div></div></body>`, Options{})
		b := p.Tree.Box(boxByID(t, p, tree, "ib"))
		if b.Used.Width != tt.want {
			t.Errorf("container %v: used width = %v, want %v", tt.container, b.Used.Width, tt.want)
		}
		lo, hi := b.Intrinsic.MinWidth, max(b.Intrinsic.MinWidth, min(b.Intrinsic.PrefWidth, tt.container))
		if b.Used.Width < lo || b.Used.Width > hi {
			t.Errorf("container %v: used width %v outside [%v, %v]", tt.container, b.Used.Width, lo, hi)
		}
	}
}

func TestMarginCollapsing(t *testing.T) {
	tests := []struct {
		name        string
		first, next string
		gap         float64
	}{
		{"positive", "margin-bottom:30px", "margin-top:20px", 30},
		{"negative", "margin-bottom:30px", "margin-top:-10px", 20},
		{"both negative", "margin-bottom:-5px", "margin-top:-10px", -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, tree := layoutHTML(t, `<body><div id="a" style="height:10px; `+tt.first+`"></div><div id="b" style="height:10px; `+tt.next+`"></div></body>`, Options{})
			a := p.BorderBox(boxByID(t, p, tree, "a"))
			b := p.BorderBox(boxByID(t, p, tree, "b"))
			if got := b.Y - a.Bottom(); !near(got, tt.gap) {
				t.Errorf("gap = %v, want %v", got, tt.gap)
			}
		})
	}
}

func TestParentChildMarginCollapsing(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="o" style="margin-top:10px"><div id="i" style="margin-top:25px; height:5px"></div></div></body>`, Options{})
	if o, i := p.BorderBox(boxByID(t, p, tree, "o")), p.BorderBox(boxByID(t, p, tree, "i")); o.Y != 25 || i.Y != 25 {
		t.Errorf("collapsed: outer y = %v, inner y = %v, want 25 and 25", o.Y, i.Y)
	}

	p, tree = layoutHTML(t, `<body><div id="o" style="margin-top:10px; padding-top:1px"><div id="i" style="margin-top:25px; height:5px"></div></div></body>`, Options{})
	if o, i := p.BorderBox(boxByID(t, p, tree, "o")), p.BorderBox(boxByID(t, p, tree, "i")); o.Y != 10 || i.Y != 36 {
		t.Errorf("separated by padding: outer y = %v, inner y = %v, want 10 and 36", o.Y, i.Y)
	}

	p, tree = layoutHTML(t, `<body><div id="a" style="height:10px"></div><div style="margin-top:15px; margin-bottom:5px"></div><div id="b" style="height:10px; margin-top:8px"></div></body>`, Options{})
	if a, b := p.BorderBox(boxByID(t, p, tree, "a")), p.BorderBox(boxByID(t, p, tree, "b")); b.Y-a.Bottom() != 15 {
		t.Errorf("collapse through empty block: gap = %v, want 15", b.Y-a.Bottom())
	}
}

func TestAutoMarginsCenter(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="c" style="width:200px; margin:0 auto; height:1px"></div></body>`, Options{})
	if got := p.BorderBox(boxByID(t, p, tree, "c")); got.X != 300 {
		t.Errorf("x = %v, want 300", got.X)
	}
}

func TestMinMaxClamp(t *testing.T) {
	tests := []struct {
		style string
		want  float64
	}{
		{"width:100px; min-width:150px", 150},
		{"width:300px; max-width:200px", 200},
		{"min-width:500px; max-width:400px", 400},
		{"width:100px; padding:10px; box-sizing:border-box", 100},
		{"width:100px; padding:10px", 120},
	}
	for _, tt := range tests {
		p, tree := layoutHTML(t, `<body><div id="d" style="height:1px; `+tt.style+`"></div></body>`, Options{})
		if got := p.Tree.Box(boxByID(t, p, tree, "d")).Used.Width; got != tt.want {
			t.Errorf("%s: width = %v, want %v", tt.style, got, tt.want)
		}
	}
}

func TestFloats(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="c" style="width:300px">
<div id="l" style="float:left; width:100px; height:50px"></div>
<div id="r" style="float:right; width:100px; height:50px"></div>
<div id="l2" style="float:left; width:150px; height:20px"></div>
<div id="clr" style="clear:both; height:10px"></div>
</div></body>`, Options{})
	origin := p.BorderBox(boxByID(t, p, tree, "c")).Origin()
	rel := func(id string) geom.Rect {
		r := p.BorderBox(boxByID(t, p, tree, id))
		return r.Translate(-origin.X, -origin.Y)
	}
	tests := []struct {
		id   string
		want geom.Rect
	}{
		{"l", geom.R(0, 0, 100, 50)},
		{"r", geom.R(200, 0, 100, 50)},
		{"l2", geom.R(0, 50, 150, 20)},
		{"clr", geom.R(0, 70, 300, 10)},
	}
	for _, tt := range tests {
		if got := rel(tt.id); !nearRect(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.id, got, tt.want)
		}
	}
	if got := p.Tree.Box(boxByID(t, p, tree, "c")).Used.Height; got != 80 {
		t.Errorf("container height = %v, want 80", got)
	}
}

func TestTextFlowsAroundFloat(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div style="width:300px"><div style="float:left; width:100px; height:50px"></div><p id="t" style="margin:0">hello</p></div></body>`, Options{})
	para := byID(t, tree, "t")
	textBox, ok := p.Tree.BoxOf(tree.Children(para)[0])
	if !ok {
		t.Fatal("text node generated no box")
	}
	if got := p.Tree.Box(textBox).Offset; got.X != 100 || got.Y != 0 {
		t.Errorf("text offset = %v, want (100, 0)", got)
	}
}

func TestInlineTextGeometry(t *testing.T) {
	p, tree := layoutHTML(t, `<body><p id="t" style="margin:0; padding:4px">hello world</p></body>`, Options{})
	para := byID(t, tree, "t")
	pb, _ := p.Tree.BoxOf(para)
	tb, _ := p.Tree.BoxOf(tree.Children(para)[0])
	b := p.Tree.Box(tb)
	if b.Used.Width != 110 || b.Used.Height != 16 {
		t.Errorf("text size = %v, want 110x16", b.Used)
	}
	if b.Offset != (geom.Point{X: 4, Y: 4}) {
		t.Errorf("text offset = %v, want (4, 4)", b.Offset)
	}
	if got := p.Tree.Box(pb).Used.Height; got != 24 {
		t.Errorf("paragraph height = %v, want 24", got)
	}
	l := p.Inline[pb]
	if l == nil || len(l.Lines) != 1 {
		t.Fatalf("paragraph layout = %+v, want one line", l)
	}
	if got := p.Owner(pb, l.Items[0].Item.Source); got != tb {
		t.Errorf("Owner = %d, want text box %d", got, tb)
	}
}

func TestRelativeOffsets(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		style  string
		want   geom.Point
	}{
		{"top left", "", "top:10px; left:20px", geom.Point{X: 20, Y: 10}},
		{"bottom right", "", "bottom:5px; right:7px", geom.Point{X: -7, Y: -5}},
		{"top beats bottom", "", "top:10px; bottom:5px", geom.Point{Y: 10}},
		{"left beats right in ltr", "", "left:3px; right:7px", geom.Point{X: 3}},
		// the over-constrained rtl box keeps its right margin at zero
		{"right beats left in rtl", "direction:rtl", "left:3px; right:7px", geom.Point{X: 790 - 7}},
		{"percent of parent content box", "width:400px; height:200px", "top:10%; left:25%", geom.Point{X: 100, Y: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, tree := layoutHTML(t, `<body><div style="`+tt.parent+`"><div id="r" style="position:relative; width:10px; height:10px; `+tt.style+`"></div></div></body>`, Options{})
			r := boxByID(t, p, tree, "r")
			parent := p.Tree.Box(r).Parent
			got := p.Tree.Box(r).Offset
			if got != tt.want {
				t.Errorf("offset = %v, want %v (parent %v)", got, tt.want, p.BorderBox(parent))
			}
		})
	}
}

func TestFlexRow(t *testing.T) {
	tests := []struct {
		name      string
		container string
		items     []string
		want      []geom.Rect
		height    float64
	}{
		{
			name:      "grow",
			container: "width:300px",
			items:     []string{"width:50px; height:20px", "flex-grow:1; height:30px"},
			want:      []geom.Rect{geom.R(0, 0, 50, 20), geom.R(50, 0, 250, 30)},
			height:    30,
		},
		{
			name:      "shrink",
			container: "width:200px",
			items:     []string{"width:150px; height:10px", "width:150px; height:10px"},
			want:      []geom.Rect{geom.R(0, 0, 100, 10), geom.R(100, 0, 100, 10)},
			height:    10,
		},
		{
			name:      "center",
			container: "width:300px; justify-content:center",
			items:     []string{"width:50px; height:10px", "width:50px; height:10px"},
			want:      []geom.Rect{geom.R(100, 0, 50, 10), geom.R(150, 0, 50, 10)},
			height:    10,
		},
		{
			name:      "space between",
			container: "width:300px; justify-content:space-between",
			items:     []string{"width:50px; height:10px", "width:50px; height:10px", "width:50px; height:10px"},
			want:      []geom.Rect{geom.R(0, 0, 50, 10), geom.R(125, 0, 50, 10), geom.R(250, 0, 50, 10)},
			height:    10,
		},
		{
			name:      "gap",
			container: "width:300px; column-gap:10px",
			items:     []string{"width:50px; height:10px", "width:50px; height:10px"},
			want:      []geom.Rect{geom.R(0, 0, 50, 10), geom.R(60, 0, 50, 10)},
			height:    10,
		},
		{
			name:      "order",
			container: "width:300px",
			items:     []string{"order:2; width:50px; height:10px", "width:30px; height:10px"},
			want:      []geom.Rect{geom.R(30, 0, 50, 10), geom.R(0, 0, 30, 10)},
			height:    10,
		},
		{
			name:      "stretch and center",
			container: "width:300px; height:100px",
			items:     []string{"width:50px", "width:50px; height:20px; align-self:center"},
			want:      []geom.Rect{geom.R(0, 0, 50, 100), geom.R(50, 40, 50, 20)},
			height:    100,
		},
		{
			name:      "row reverse",
			container: "width:300px; flex-direction:row-reverse",
			items:     []string{"width:50px; height:10px", "width:30px; height:10px"},
			want:      []geom.Rect{geom.R(250, 0, 50, 10), geom.R(220, 0, 30, 10)},
			height:    10,
		},
		{
			name:      "wrap",
			container: "width:100px; flex-wrap:wrap",
			items:     []string{"width:60px; height:10px", "width:60px; height:20px"},
			want:      []geom.Rect{geom.R(0, 0, 60, 10), geom.R(0, 10, 60, 20)},
			height:    30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			b.WriteString(`<body><div id="f" style="display:flex; ` + tt.container + `">`)
			for i, s := range tt.items {
				b.WriteString(`<div id="i` + string(rune('0'+i)) + `" style="` + s + `"></div>`)
			}
			b.WriteString(`</div></body>`)
			p, tree := layoutHTML(t, b.String(), Options{})
			f := boxByID(t, p, tree, "f")
			origin := p.BorderBox(f).Origin()
			for i, want := range tt.want {
				got := p.BorderBox(boxByID(t, p, tree, "i"+string(rune('0'+i)))).Translate(-origin.X, -origin.Y)
				if !nearRect(got, want) {
					t.Errorf("item %d = %v, want %v", i, got, want)
				}
			}
			if got := p.Tree.Box(f).Used.Height; got != tt.height {
				t.Errorf("container height = %v, want %v", got, tt.height)
			}
		})
	}
}

func TestFlexColumn(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="f" style="display:flex; flex-direction:column; width:300px">
<div id="a" style="height:20px"></div><div id="b" style="height:30px; width:40px"></div></div></body>`, Options{})
	f := boxByID(t, p, tree, "f")
	origin := p.BorderBox(f).Origin()
	a := p.BorderBox(boxByID(t, p, tree, "a")).Translate(-origin.X, -origin.Y)
	b := p.BorderBox(boxByID(t, p, tree, "b")).Translate(-origin.X, -origin.Y)
	if !nearRect(a, geom.R(0, 0, 300, 20)) {
		t.Errorf("a = %v, want stretched to 300x20", a)
	}
	if !nearRect(b, geom.R(0, 20, 40, 30)) {
		t.Errorf("b = %v, want (0, 20, 40, 30)", b)
	}
	if got := p.Tree.Box(f).Used.Height; got != 50 {
		t.Errorf("column height = %v, want 50", got)
	}
}

func TestReplacedElements(t *testing.T) {
	imgs := fakeImages{"k1": {Width: 200, Height: 100}}
	tests := []struct {
		markup string
		want   geom.Size
	}{
		{`<img id="x" src="k1">`, geom.Size{Width: 200, Height: 100}},
		{`<img id="x" src="k1" style="width:100px">`, geom.Size{Width: 100, Height: 50}},
		{`<img id="x" src="k1" style="height:25px">`, geom.Size{Width: 50, Height: 25}},
		{`<iframe id="x"></iframe>`, geom.Size{Width: 300, Height: 150}},
	}
	for _, tt := range tests {
		p, tree := layoutHTML(t, `<body>`+tt.markup+`</body>`, Options{Images: imgs})
		if got := p.Tree.Box(boxByID(t, p, tree, "x")).Used; got != tt.want {
			t.Errorf("%s: size = %v, want %v", tt.markup, got, tt.want)
		}
	}
}

func TestMissingImageWarns(t *testing.T) {
	sink := &diag.Sink{}
	p, tree := layoutHTML(t, `<body><img id="x" src="nope"></body>`, Options{Sink: sink})
	if got := p.Tree.Box(boxByID(t, p, tree, "x")).Used; got != (geom.Size{}) {
		t.Errorf("missing image size = %v, want empty", got)
	}
	found := false
	for _, m := range sink.Messages {
		if m.Level == diag.LevelWarning && strings.Contains(m.Text, `"nope"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("no missing-image warning in %v", sink.Messages)
	}
}

func TestAnonymousBlocks(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="d">before<p style="margin:0">para</p>after</div></body>`, Options{})
	d := p.Tree.Box(boxByID(t, p, tree, "d"))
	if len(d.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(d.Children))
	}
	ys := []float64{0, 16, 32}
	for i, c := range d.Children {
		b := p.Tree.Box(c)
		if b.Offset.Y != ys[i] || b.Used.Height != 16 {
			t.Errorf("child %d at y %v height %v, want y %v height 16", i, b.Offset.Y, b.Used.Height, ys[i])
		}
	}
	if !p.Tree.Box(d.Children[0]).Anonymous || p.Tree.Box(d.Children[1]).Anonymous {
		t.Error("inline runs should be wrapped in anonymous blocks")
	}
}

func TestDisplayNoneGeneratesNoBox(t *testing.T) {
	p, tree := layoutHTML(t, `<body><div id="n" style="display:none"><p id="inner">x</p></div><div id="v" style="height:5px"></div></body>`, Options{})
	for _, id := range []string{"n", "inner"} {
		if _, ok := p.Tree.BoxOf(byID(t, tree, id)); ok {
			t.Errorf("%s generated a box", id)
		}
	}
	if got := p.BorderBox(boxByID(t, p, tree, "v")).Y; got != 0 {
		t.Errorf("visible sibling at y %v, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	styles, tree := resolve(t, `<body>
<div id="block">t</div><span id="inline">s</span>
<div id="ib" style="display:inline-block"></div>
<div id="fl" style="float:right"></div>
<div id="abs" style="position:absolute"></div>
<div id="fixed" style="position:fixed; float:left"></div>
<div id="sticky" style="position:sticky"></div>
<div id="flex" style="display:flex"></div>
<div id="clip" style="overflow:hidden"></div>
<div id="rel" style="position:relative"></div>
<div id="none" style="display:none"><p id="hidden">x</p></div>
</body>`)
	all := ClassifyAll(styles)
	tests := []struct {
		id   string
		want FormattingContext
	}{
		{"block", FormattingContext{Kind: ContextBlock}},
		{"inline", FormattingContext{Kind: ContextInline}},
		{"ib", FormattingContext{Kind: ContextInlineBlock, NewBFC: true}},
		{"fl", FormattingContext{Kind: ContextFloat, Float: FloatRight, NewBFC: true}},
		{"abs", FormattingContext{Kind: ContextOutOfFlow, Position: PositionAbsolute}},
		{"fixed", FormattingContext{Kind: ContextOutOfFlow, Position: PositionFixed}},
		{"sticky", FormattingContext{Kind: ContextOutOfFlow, Position: PositionSticky}},
		{"flex", FormattingContext{Kind: ContextFlex, NewBFC: true}},
		{"clip", FormattingContext{Kind: ContextBlock, NewBFC: true}},
		{"rel", FormattingContext{Kind: ContextBlock, NewBFC: true}},
		{"none", FormattingContext{}},
		{"hidden", FormattingContext{}},
	}
	for _, tt := range tests {
		if got := all[byID(t, tree, tt.id)]; got != tt.want {
			t.Errorf("%s: %+v, want %+v", tt.id, got, tt.want)
		}
	}
	text := tree.Children(byID(t, tree, "block"))[0]
	if got := Classify(styles, text); got.Kind != ContextInline {
		t.Errorf("text node: %v, want inline", got.Kind)
	}
}

func TestLayoutRejectsInvalidTree(t *testing.T) {
	e := NewEngine(geom.Size{Width: 800, Height: 600}, Options{})
	if _, err := e.Layout(nil); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("nil styles: err = %v, want ErrInvalidTree", err)
	}

	styles, tree := resolve(t, `<body><p>x</p></body>`)
	tree.AddElement(dom.NoNode, "div", "")
	_, err := e.Layout(styles)
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("stale styles: err = %v, want ErrInvalidTree", err)
	}
	var le *Error
	if !errors.As(err, &le) || le.Kind != KindInvalidTree {
		t.Errorf("err = %#v, want *Error of kind InvalidTree", err)
	}
}

func TestSizingFailedIsDistinct(t *testing.T) {
	err := &Error{Kind: KindSizingFailed, Node: 3, Err: errors.New("boom")}
	if !errors.Is(err, ErrSizingFailed) || errors.Is(err, ErrInvalidTree) {
		t.Errorf("errors.Is mismatch for %v", err)
	}
	if !strings.Contains(err.Error(), "node 3") {
		t.Errorf("Error() = %q, want the node", err.Error())
	}
}

func TestCollapseMargins(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{10, 20, 20},
		{-10, -20, -20},
		{30, -10, 20},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := collapseMargins(tt.a, tt.b); got != tt.want {
			t.Errorf("collapseMargins(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFloatContextPlacement(t *testing.T) {
	var fc floatContext
	a := fc.place(FloatLeft, geom.Size{Width: 60, Height: 20}, 0, 0, 100)
	b := fc.place(FloatRight, geom.Size{Width: 30, Height: 40}, 0, 0, 100)
	c := fc.place(FloatLeft, geom.Size{Width: 20, Height: 10}, 0, 0, 100)
	if a != (geom.Point{}) || b != (geom.Point{X: 70}) || c != (geom.Point{Y: 20}) {
		t.Errorf("placed at %v %v %v", a, b, c)
	}
	if off, w := fc.band(5, 1, 0, 100); off != 60 || w != 10 {
		t.Errorf("band = %v, %v, want 60, 10", off, w)
	}
	if got := fc.clearance(FloatRight); got != 40 {
		t.Errorf("clearance(right) = %v, want 40", got)
	}
	if got := fc.bottom(); got != 40 {
		t.Errorf("bottom = %v, want 40", got)
	}
}
