package displaylist

import (
	"azul/pkg/css"
	"azul/pkg/diag"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/layout"
)

// ImageSource maps image references to display-list keys. *images.Cache
// satisfies it.
type ImageSource interface {
	Lookup(ref string) (images.Info, bool)
}

// FrameSource returns the display list of the document hosted by an
// iframe, laid out at the given content size, or nil.
type FrameSource func(node dom.NodeID, size geom.Size) *DisplayList

// Options configure Build.
type Options struct {
	Images ImageSource
	Frames FrameSource
	Sink   *diag.Sink
}

type builder struct {
	p      *layout.Positioned
	styles *css.PropertyCache
	opts   Options
	list   *DisplayList
	ctxOf  map[layout.BoxID]*StackingContext

	clips    []activeClip
	outlines []layout.BoxID
	// canvas is the element whose background was propagated to the canvas
	canvas dom.NodeID
}

type activeClip struct {
	clipRect
	emitted bool
}

// Build walks a positioned tree and returns its display list in paint
// order.
func Build(p *layout.Positioned, styles *css.PropertyCache, opts Options) *DisplayList {
	b := &builder{
		p:      p,
		styles: styles,
		opts:   opts,
		list:   &DisplayList{Viewport: p.Viewport},
		canvas: dom.NoNode,
	}
	if p.Tree.Root == layout.NoBox {
		return b.list
	}
	root, ctxOf := buildContexts(p, styles)
	b.ctxOf = ctxOf
	b.list.Root = root
	b.paintCanvas()
	b.paintContext(root)
	return b.list
}

// emit appends an item, first materializing any clip pushed since the last
// item so empty clip pairs never reach the list.
func (b *builder) emit(it Item) {
	for i := range b.clips {
		if !b.clips[i].emitted {
			b.list.Items = append(b.list.Items, PushClip{Rect: b.clips[i].rect, Radii: b.clips[i].radii})
			b.clips[i].emitted = true
		}
	}
	b.list.Items = append(b.list.Items, it)
}

func (b *builder) pushClip(r geom.Rect, radii geom.Radii) {
	b.clips = append(b.clips, activeClip{clipRect: clipRect{rect: r, radii: radii}})
}

func (b *builder) popClip() {
	n := len(b.clips) - 1
	if b.clips[n].emitted {
		b.list.Items = append(b.list.Items, PopClip{})
	}
	b.clips = b.clips[:n]
}

func (b *builder) box(id layout.BoxID) *layout.Box { return b.p.Tree.Box(id) }

func (b *builder) node(id layout.BoxID) dom.NodeID { return b.p.Tree.Boxes[id].Node }

func (b *builder) keyword(n dom.NodeID, p css.Property) string {
	return b.styles.Keyword(n, dom.PseudoNormal, p)
}

func (b *builder) visible(id layout.BoxID) bool {
	n := b.node(id)
	return n == dom.NoNode || b.keyword(n, css.PropVisibility) == "visible"
}

// clips reports whether a box clips its descendants to its padding box.
func (b *builder) clipsOverflow(id layout.BoxID) bool {
	n := b.node(id)
	if n == dom.NoNode || b.box(id).IsInlineElement() {
		return false
	}
	for _, p := range []css.Property{css.PropOverflowX, css.PropOverflowY} {
		if k := b.keyword(n, p); k != "" && k != "visible" {
			return true
		}
	}
	return false
}

func (b *builder) isFloat(id layout.BoxID) bool {
	return b.box(id).Context.Kind == layout.ContextFloat
}

// isAtom reports whether a box paints atomically in the inline layer:
// inline-blocks and inline replaced elements.
func (b *builder) isAtom(id layout.BoxID) bool {
	bx := b.box(id)
	switch bx.Context.Kind {
	case layout.ContextInlineBlock:
		return true
	case layout.ContextInline:
		return bx.IsReplaced()
	}
	return false
}

// paintContext emits one stacking context in CSS 2.1 Appendix E order.
func (b *builder) paintContext(sc *StackingContext) {
	saved := b.outlines
	b.outlines = nil

	root := sc.Root
	b.paintBox(root)
	clipped := b.clipsOverflow(root)
	if clipped {
		b.pushContentClip(root)
	}
	for _, c := range sc.Negative {
		b.paintChild(sc, c)
	}
	b.paintBlocks(root)
	b.paintFloats(root)
	b.paintInlines(root)
	for _, c := range sc.Zero {
		b.paintChild(sc, c)
	}
	for _, c := range sc.Positive {
		b.paintChild(sc, c)
	}
	if clipped {
		b.popClip()
	}
	for _, id := range b.outlines {
		b.paintOutline(id)
	}
	b.outlines = saved
}

// paintChild paints a child context inside the overflow clips that apply
// to it between its root and the parent context. An absolutely positioned
// root escapes clips below its containing block; a fixed one escapes all.
func (b *builder) paintChild(parent, sc *StackingContext) {
	bx := b.box(sc.Root)
	eligible := true
	cb := layout.NoBox
	if bx.Context.Kind == layout.ContextOutOfFlow {
		switch bx.Context.Position {
		case layout.PositionAbsolute:
			eligible = false
			for a := bx.Parent; a != layout.NoBox; a = b.box(a).Parent {
				if n := b.node(a); n != dom.NoNode && b.keyword(n, css.PropPosition) != "static" {
					cb = a
					break
				}
			}
		case layout.PositionFixed:
			eligible = false
		}
	}
	var chain []layout.BoxID
	for a := bx.Parent; a != layout.NoBox && a != parent.Root; a = b.box(a).Parent {
		if a == cb {
			eligible = true
		}
		if eligible && b.clipsOverflow(a) {
			chain = append(chain, a)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		b.pushContentClip(chain[i])
	}
	b.paintContext(sc)
	for range chain {
		b.popClip()
	}
}

// descend visits the children of id that belong to the current context,
// wrapping them in id's overflow clip. visit reports whether to recurse.
func (b *builder) descend(id layout.BoxID, visit func(c layout.BoxID) bool) {
	for _, c := range b.box(id).Children {
		if _, ok := b.ctxOf[c]; ok {
			continue
		}
		if !visit(c) {
			continue
		}
		clipped := b.clipsOverflow(c)
		if clipped {
			b.pushContentClip(c)
		}
		b.descend(c, visit)
		if clipped {
			b.popClip()
		}
	}
}

// paintBlocks is layer 3: backgrounds and borders of in-flow block-level
// descendants in tree order.
func (b *builder) paintBlocks(id layout.BoxID) {
	if b.p.Inline[id] != nil {
		return
	}
	b.descend(id, func(c layout.BoxID) bool {
		bx := b.box(c)
		switch {
		case b.isFloat(c), b.isAtom(c):
			return false
		case bx.IsText(), bx.IsInlineElement():
			return false
		}
		b.paintBox(c)
		return b.p.Inline[c] == nil
	})
}

// paintFloats is layer 4: every float paints atomically.
func (b *builder) paintFloats(id layout.BoxID) {
	b.descend(id, func(c layout.BoxID) bool {
		switch {
		case b.isFloat(c):
			b.paintAtomic(c)
			return false
		case b.isAtom(c), b.box(c).IsText():
			return false
		}
		return true
	})
}

// paintInlines is layer 5: inline content of every inline formatting
// context, atoms included.
func (b *builder) paintInlines(id layout.BoxID) {
	if b.p.Inline[id] != nil {
		b.paintLines(id)
		return
	}
	b.descend(id, func(c layout.BoxID) bool {
		switch {
		case b.isFloat(c):
			return false
		case b.isAtom(c):
			b.paintAtomic(c)
			return false
		case b.p.Inline[c] != nil:
			b.paintLines(c)
			return false
		}
		return true
	})
}

// paintAtomic paints a float or inline-block as if it started a stacking
// context, leaving real contexts inside it to the enclosing one.
func (b *builder) paintAtomic(id layout.BoxID) {
	b.paintBox(id)
	clipped := b.clipsOverflow(id)
	if clipped {
		b.pushContentClip(id)
	}
	b.paintBlocks(id)
	b.paintFloats(id)
	b.paintInlines(id)
	if clipped {
		b.popClip()
	}
}

// pushContentClip clips to the padding box of id with the inner corner
// radii.
func (b *builder) pushContentClip(id layout.BoxID) {
	bx := b.box(id)
	outer := b.radii(id)
	e := bx.Props.Border
	inner := geom.Radii{
		max(0, outer[0]-max(e.Top, e.Left)),
		max(0, outer[1]-max(e.Top, e.Right)),
		max(0, outer[2]-max(e.Bottom, e.Right)),
		max(0, outer[3]-max(e.Bottom, e.Left)),
	}
	b.pushClip(b.p.PaddingBox(id), inner)
}

// radii returns the used border radii of id, scaled down so adjacent
// corners never overlap (CSS Backgrounds 3 §5.5).
func (b *builder) radii(id layout.BoxID) geom.Radii {
	n := b.node(id)
	if n == dom.NoNode {
		return geom.Radii{}
	}
	bx := b.box(id)
	w, h := bx.Used.Width, bx.Used.Height
	ctx := b.styles.Context(n, dom.PseudoNormal, css.Size{Width: w, Height: h})
	var r geom.Radii
	for i, p := range []css.Property{
		css.PropBorderTopLeftRadius, css.PropBorderTopRightRadius,
		css.PropBorderBottomRightRadius, css.PropBorderBottomLeftRadius,
	} {
		if v, ok := b.styles.ResolvePx(p, ctx); ok {
			r[i] = max(0, v)
		}
	}
	if r.Zero() {
		return r
	}
	f := 1.0
	for _, c := range []struct{ side, sum float64 }{
		{w, r[0] + r[1]}, {h, r[1] + r[2]}, {w, r[2] + r[3]}, {h, r[3] + r[0]},
	} {
		if c.sum > 0 {
			f = min(f, c.side/c.sum)
		}
	}
	if f < 1 {
		for i := range r {
			r[i] *= f
		}
	}
	return r
}

// paintCanvas fills the viewport with the root element's background, or
// the body's when the root has none (CSS 2.1 §14.2).
func (b *builder) paintCanvas() {
	tree := b.styles.Tree()
	roots := tree.Roots()
	if len(roots) == 0 {
		return
	}
	src := roots[0]
	if !b.hasBackground(src) {
		for _, c := range tree.Children(src) {
			if tree.Node(c).Tag == "body" {
				if b.hasBackground(c) {
					src = c
				}
				break
			}
		}
	}
	if !b.hasBackground(src) {
		return
	}
	b.canvas = src
	area := geom.R(0, 0, b.p.Viewport.Width, b.p.Viewport.Height)
	if id, ok := b.p.Tree.BoxOf(roots[0]); ok {
		area = area.Union(b.p.MarginBox(id))
	}
	b.paintBackground(src, area, geom.Radii{})
}

func (b *builder) hasBackground(n dom.NodeID) bool {
	if !b.styles.Color(n, dom.PseudoNormal, css.PropBackgroundColor).IsTransparent() {
		return true
	}
	return b.styles.Value(n, dom.PseudoNormal, css.PropBackgroundImage).Kind == css.KindImages
}

// paintBox is layer 1 for one box: background, border and replaced
// content. It also records the box for hit testing and outlines.
func (b *builder) paintBox(id layout.BoxID) {
	n := b.node(id)
	bx := b.box(id)
	if n == dom.NoNode || bx.IsText() || !b.visible(id) {
		return
	}
	r := b.p.BorderBox(id)
	radii := b.radii(id)
	b.hit(n, r, radii)
	if b.outlined(n) {
		b.outlines = append(b.outlines, id)
	}
	if r.Empty() {
		return
	}
	if n != b.canvas {
		b.paintBackground(n, b.p.PaddingBox(id), radii)
	}
	b.paintBorder(id, r, radii)
	if bx.IsReplaced() {
		b.paintReplaced(id)
	}
}

// paintBackground paints the background color over area and the image
// layers, last layer first, over the padding box.
func (b *builder) paintBackground(n dom.NodeID, area geom.Rect, radii geom.Radii) {
	if c := b.styles.Color(n, dom.PseudoNormal, css.PropBackgroundColor); !c.IsTransparent() {
		b.emit(Rect{Bounds: area, Color: c, Radii: radii})
	}
	v := b.styles.Value(n, dom.PseudoNormal, css.PropBackgroundImage)
	if v.Kind != css.KindImages {
		return
	}
	lr := lengthResolver{
		em:       b.styles.FontSize(n, dom.PseudoNormal),
		rem:      b.styles.RootFontSize(),
		viewport: b.styles.Viewport(),
	}
	for i := len(v.Images) - 1; i >= 0; i-- {
		img := v.Images[i]
		switch img.Kind {
		case css.ImageGradient:
			if img.Gradient != nil && !area.Empty() {
				b.emit(gradientItem(img.Gradient, area, lr))
			}
		case css.ImageURL:
			b.paintImageLayer(img.URL, area)
		}
	}
}

// paintImageLayer draws a url() layer once at its intrinsic size from the
// top-left of area, clipped to area.
func (b *builder) paintImageLayer(ref string, area geom.Rect) {
	var info images.Info
	ok := false
	if b.opts.Images != nil {
		info, ok = b.opts.Images.Lookup(ref)
	}
	if !ok {
		b.opts.Sink.Warnf("displaylist", "background image %q not in the image cache", ref)
		return
	}
	r := geom.R(area.X, area.Y, info.Size.Width, info.Size.Height)
	over := r.Width > area.Width || r.Height > area.Height
	if over {
		b.pushClip(area, geom.Radii{})
	}
	b.emit(Image{Bounds: r, Key: info.Key})
	if over {
		b.popClip()
	}
}

func (b *builder) paintBorder(id layout.BoxID, r geom.Rect, radii geom.Radii) {
	n := b.node(id)
	e := b.box(id).Props.Border
	widths := [4]float64{e.Top, e.Right, e.Bottom, e.Left}
	if widths == [4]float64{} {
		return
	}
	bd := Border{Bounds: r, Widths: widths, Radii: radii}
	for i, p := range [4][2]css.Property{
		{css.PropBorderTopStyle, css.PropBorderTopColor},
		{css.PropBorderRightStyle, css.PropBorderRightColor},
		{css.PropBorderBottomStyle, css.PropBorderBottomColor},
		{css.PropBorderLeftStyle, css.PropBorderLeftColor},
	} {
		bd.Styles[i] = b.keyword(n, p[0])
		bd.Colors[i] = b.styles.Color(n, dom.PseudoNormal, p[1])
	}
	b.emit(bd)
}

// paintReplaced draws an image element into its content box. Missing
// images get the null key; layout has already reported them. Iframes
// splice in the hosted document clipped to the content box.
func (b *builder) paintReplaced(id layout.BoxID) {
	n := b.node(id)
	content := b.p.ContentBox(id)
	if content.Empty() {
		return
	}
	node := b.styles.Tree().Node(n)
	switch node.Type {
	case dom.ImageNode:
		key := images.NullImage
		if b.opts.Images != nil {
			if info, ok := b.opts.Images.Lookup(node.Image); ok {
				key = info.Key
			}
		}
		b.emit(Image{Bounds: content, Key: key})
	case dom.IFrameNode:
		if b.opts.Frames == nil {
			return
		}
		sub := b.opts.Frames(n, content.Size())
		if sub.Len() == 0 {
			return
		}
		b.pushClip(content, geom.Radii{})
		for _, it := range sub.Translate(content.Origin()).Items {
			b.emit(it)
		}
		b.popClip()
	}
}

func (b *builder) outlined(n dom.NodeID) bool {
	s := b.keyword(n, css.PropOutlineStyle)
	return s != "" && s != "none" && s != "hidden"
}

// paintOutline is layer 7: the outline is drawn as a border outside the
// border box.
func (b *builder) paintOutline(id layout.BoxID) {
	n := b.node(id)
	ctx := b.styles.Context(n, dom.PseudoNormal, css.Size{})
	w, ok := b.styles.ResolvePx(css.PropOutlineWidth, ctx)
	if !ok {
		// thin, medium and thick
		switch b.keyword(n, css.PropOutlineWidth) {
		case "thin":
			w = 1
		case "thick":
			w = 5
		default:
			w = 3
		}
	}
	if w <= 0 {
		return
	}
	r := b.p.BorderBox(id).Outset(geom.Edges{Top: w, Right: w, Bottom: w, Left: w})
	style := b.keyword(n, css.PropOutlineStyle)
	color := b.styles.Color(n, dom.PseudoNormal, css.PropOutlineColor)
	b.emit(Border{
		Bounds: r,
		Widths: [4]float64{w, w, w, w},
		Colors: [4]css.Color{color, color, color, color},
		Styles: [4]string{style, style, style, style},
	})
}
