package layout

import (
	"errors"
	"fmt"

	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// BoxID indexes a box in its Tree.
type BoxID int

// NoBox is the absent box.
const NoBox BoxID = -1

// Box is one node of the layout tree. Boxes without a DOM node are
// anonymous: the initial containing block and the block wrappers inserted
// around inline runs.
type Box struct {
	Node      dom.NodeID
	Parent    BoxID
	Children  []BoxID
	Context   FormattingContext
	Anonymous bool

	Props     BoxProps
	Intrinsic IntrinsicSizes
	// Used is the border-box size.
	Used geom.Size
	// Offset is the border-box origin relative to the parent's border box.
	Offset geom.Point
	// Baseline is the first baseline measured from the border-box top, or
	// zero when the box has no line boxes.
	Baseline float64

	display  string
	kind     boxKind
	sticky   bool
	flexItem bool
	static   geom.Point // static position of an out-of-flow box, relative to the parent
	relShift geom.Point // position:relative offset applied after flow layout
	// contentMin is the min-content border-box width before width and
	// min/max apply; flex items use it for their automatic minimum.
	contentMin float64
}

type boxKind uint8

const (
	kindFlow     boxKind = iota // block container
	kindFlex                    // flex container
	kindInline                  // inline element: its content is flattened into the parent IFC
	kindText                    // text leaf
	kindReplaced                // image or iframe
)

// IsText reports whether the box is a text leaf.
func (b *Box) IsText() bool { return b.kind == kindText }

// IsReplaced reports whether the box is an image or iframe.
func (b *Box) IsReplaced() bool { return b.kind == kindReplaced }

// IsInlineElement reports whether the box is an inline element whose
// content flows into its parent's lines.
func (b *Box) IsInlineElement() bool { return b.kind == kindInline }

// IsFlexContainer reports whether the box lays its children out as flex
// items.
func (b *Box) IsFlexContainer() bool { return b.kind == kindFlex }

// BoxProps are the resolved box-model properties of a box. Edges are
// physical; the writing mode and direction say how they map to the
// logical start/end/before/after sides.
type BoxProps struct {
	Margin      geom.Edges
	Border      geom.Edges
	Padding     geom.Edges
	MarginAuto  [4]bool // top, right, bottom, left
	WritingMode text.WritingMode
	Direction   text.Direction
	BorderBox   bool // box-sizing: border-box
}

// PaddingBorder returns padding plus border.
func (p BoxProps) PaddingBorder() geom.Edges { return p.Padding.Add(p.Border) }

// IntrinsicSizes are the content-based border-box sizes computed by the
// sizing pass.
type IntrinsicSizes struct {
	MinWidth   float64
	PrefWidth  float64
	MinHeight  float64
	PrefHeight float64
}

// Tree is the layout tree: an index arena parallel to the styled tree with
// anonymous boxes inserted.
type Tree struct {
	Boxes []Box
	Root  BoxID
	byDOM []BoxID
}

// Len returns the number of boxes.
func (t *Tree) Len() int { return len(t.Boxes) }

// Box returns the box with the given id, or nil.
func (t *Tree) Box(id BoxID) *Box {
	if id < 0 || int(id) >= len(t.Boxes) {
		return nil
	}
	return &t.Boxes[id]
}

// BoxOf returns the box generated by a DOM node.
func (t *Tree) BoxOf(n dom.NodeID) (BoxID, bool) {
	if n < 0 || int(n) >= len(t.byDOM) || t.byDOM[n] == NoBox {
		return NoBox, false
	}
	return t.byDOM[n], true
}

func (t *Tree) add(b Box) BoxID {
	id := BoxID(len(t.Boxes))
	t.Boxes = append(t.Boxes, b)
	if b.Parent != NoBox {
		t.Boxes[b.Parent].Children = append(t.Boxes[b.Parent].Children, id)
	}
	if b.Node >= 0 && int(b.Node) < len(t.byDOM) {
		t.byDOM[b.Node] = id
	}
	return id
}

// Walk visits boxes in pre-order. Returning false skips the subtree.
func (t *Tree) Walk(fn func(id BoxID) bool) {
	var visit func(id BoxID)
	visit = func(id BoxID) {
		if !fn(id) {
			return
		}
		for _, c := range t.Boxes[id].Children {
			visit(c)
		}
	}
	if t.Root != NoBox {
		visit(t.Root)
	}
}

// Positioned is the layout tree after positioning: absolute border-box
// origins for every box and the line layout of every box that establishes
// an inline formatting context.
type Positioned struct {
	Tree     *Tree
	Abs      []geom.Point
	Inline   map[BoxID]*text.UnifiedLayout
	Viewport geom.Size

	// owners maps the inline content of each IFC to the boxes it came from.
	owners map[BoxID][]BoxID
}

// Owner returns the box that produced item source of the inline layout of
// ifc: a text box or an atomic inline.
func (p *Positioned) Owner(ifc BoxID, source int) BoxID {
	o := p.owners[ifc]
	if source < 0 || source >= len(o) {
		return NoBox
	}
	return o[source]
}

// InlineShift returns the relative-positioning offset applied to content
// item source of ifc by its inline ancestors.
func (p *Positioned) InlineShift(ifc BoxID, source int) geom.Point {
	var d geom.Point
	for id := p.Owner(ifc, source); id != NoBox && id != ifc; id = p.Tree.Boxes[id].Parent {
		d = d.Add(p.Tree.Boxes[id].relShift)
	}
	return d
}

// BorderBox returns the absolute border box of id.
func (p *Positioned) BorderBox(id BoxID) geom.Rect {
	b := p.Tree.Box(id)
	if b == nil {
		return geom.Rect{}
	}
	o := p.Abs[id]
	return geom.R(o.X, o.Y, b.Used.Width, b.Used.Height)
}

// PaddingBox returns the absolute padding box of id.
func (p *Positioned) PaddingBox(id BoxID) geom.Rect {
	b := p.Tree.Box(id)
	if b == nil {
		return geom.Rect{}
	}
	return p.BorderBox(id).Inset(b.Props.Border)
}

// ContentBox returns the absolute content box of id.
func (p *Positioned) ContentBox(id BoxID) geom.Rect {
	b := p.Tree.Box(id)
	if b == nil {
		return geom.Rect{}
	}
	return p.BorderBox(id).Inset(b.Props.PaddingBorder())
}

// MarginBox returns the absolute margin box of id.
func (p *Positioned) MarginBox(id BoxID) geom.Rect {
	b := p.Tree.Box(id)
	if b == nil {
		return geom.Rect{}
	}
	return p.BorderBox(id).Outset(b.Props.Margin)
}

// NodeRect returns the border box of the box generated by a DOM node.
func (p *Positioned) NodeRect(n dom.NodeID) (geom.Rect, bool) {
	id, ok := p.Tree.BoxOf(n)
	if !ok {
		return geom.Rect{}, false
	}
	return p.BorderBox(id), true
}

// ErrorKind classifies a layout failure.
type ErrorKind int

const (
	KindInvalidTree ErrorKind = iota
	KindSizingFailed
)

var (
	// ErrInvalidTree reports a structural violation in the styled tree.
	ErrInvalidTree = errors.New("layout: invalid tree")
	// ErrSizingFailed reports an intrinsic-size query that produced no
	// usable answer.
	ErrSizingFailed = errors.New("layout: sizing failed")
)

// Error is a fatal layout failure. errors.Is matches it against
// ErrInvalidTree or ErrSizingFailed by kind.
type Error struct {
	Kind ErrorKind
	Node dom.NodeID
	Err  error
}

func (e *Error) Error() string {
	kind := ErrInvalidTree
	if e.Kind == KindSizingFailed {
		kind = ErrSizingFailed
	}
	if e.Node != dom.NoNode {
		return fmt.Sprintf("%v at node %d: %v", kind, e.Node, e.Err)
	}
	return fmt.Sprintf("%v: %v", kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidTree:
		return e.Kind == KindInvalidTree
	case ErrSizingFailed:
		return e.Kind == KindSizingFailed
	}
	return false
}
