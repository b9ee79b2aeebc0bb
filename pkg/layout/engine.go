package layout

import (
	"fmt"
	"math"

	"azul/pkg/config"
	"azul/pkg/css"
	"azul/pkg/diag"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/text"
)

// ImageSource reports the intrinsic size of a referenced image.
// *images.Cache satisfies it.
type ImageSource interface {
	Lookup(ref string) (images.Info, bool)
}

// Options configure an Engine.
type Options struct {
	// Text shapes and breaks inline content. A nil engine gets an empty
	// font set, so every glyph renders as .notdef.
	Text   *text.Engine
	Images ImageSource
	System config.SystemStyle
	// Hyphenator is used for hyphens:auto. Soft hyphens are honored
	// without one.
	Hyphenator text.Hyphenator
	Sink       *diag.Sink
}

// Engine lays out styled trees for a fixed viewport.
type Engine struct {
	viewport geom.Size
	opts     Options
}

// NewEngine returns an engine for the given viewport.
func NewEngine(viewport geom.Size, opts Options) *Engine {
	if opts.Text == nil {
		opts.Text = text.NewEngine(nil, nil, opts.Sink)
	}
	if opts.System.DefaultFontSize <= 0 {
		opts.System = config.Default()
	}
	return &Engine{viewport: viewport, opts: opts}
}

// Viewport returns the engine's viewport.
func (e *Engine) Viewport() geom.Size { return e.viewport }

// solver holds the state of one Layout call.
type solver struct {
	*Engine
	styles   *css.PropertyCache
	tree     *Tree
	contexts []FormattingContext
	sink     *diag.Sink
	inline   map[BoxID]*text.UnifiedLayout
	owners   map[BoxID][]BoxID
	styleOf  map[dom.NodeID]*text.Style
	err      error
}

// Layout runs the three layout passes over a resolved style cache and
// returns the positioned tree.
func (e *Engine) Layout(styles *css.PropertyCache) (*Positioned, error) {
	if styles == nil || styles.Tree() == nil {
		return nil, &Error{Kind: KindInvalidTree, Node: dom.NoNode, Err: fmt.Errorf("no styled tree")}
	}
	dt := styles.Tree()
	if err := dt.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidTree, Node: dom.NoNode, Err: err}
	}
	if styles.Len() != dt.Len() {
		return nil, &Error{Kind: KindInvalidTree, Node: dom.NoNode,
			Err: fmt.Errorf("style cache covers %d nodes, tree has %d", styles.Len(), dt.Len())}
	}

	s := &solver{
		Engine:  e,
		styles:  styles,
		sink:    e.opts.Sink,
		inline:  make(map[BoxID]*text.UnifiedLayout),
		owners:  make(map[BoxID][]BoxID),
		styleOf: make(map[dom.NodeID]*text.Style),
	}
	t := s.buildTree()

	// pass A
	s.intrinsic(t.Root)
	if s.err != nil {
		return nil, s.err
	}

	// passes B and C for the in-flow tree
	root := &t.Boxes[t.Root]
	root.Used = e.viewport
	s.layoutBox(t.Root, space{
		cb:     css.Size{Width: e.viewport.Width, Height: e.viewport.Height},
		width:  e.viewport.Width,
		height: e.viewport.Height,
		avail:  -1,
	}, nil, geom.Point{})
	if s.err != nil {
		return nil, s.err
	}

	s.applyRelativeOffsets()
	p := &Positioned{Tree: t, Abs: make([]geom.Point, len(t.Boxes)), Inline: s.inline, Viewport: e.viewport, owners: s.owners}
	s.updateAbs(p, t.Root)
	s.placeOutOfFlow(p)
	if s.err != nil {
		return nil, s.err
	}
	return p, nil
}

// updateAbs recomputes absolute origins for the subtree of id from its
// parent's origin.
func (s *solver) updateAbs(p *Positioned, id BoxID) {
	b := &s.tree.Boxes[id]
	if b.Parent == NoBox {
		p.Abs[id] = b.Offset
	} else {
		p.Abs[id] = p.Abs[b.Parent].Add(b.Offset)
	}
	for _, c := range b.Children {
		s.updateAbs(p, c)
	}
}

// fail records the first fatal error; later passes stop early.
func (s *solver) fail(kind ErrorKind, node dom.NodeID, format string, args ...any) {
	if s.err == nil {
		s.err = &Error{Kind: kind, Node: node, Err: fmt.Errorf(format, args...)}
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
