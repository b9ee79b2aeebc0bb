package layout

import (
	"strings"

	"azul/pkg/css"
	"azul/pkg/dom"
)

// buildTree generates the box tree for a styled tree. Box 0 is the anonymous
// initial containing block; every generated box keeps the index of the DOM
// node it came from.
func (s *solver) buildTree() *Tree {
	dt := s.styles.Tree()
	t := &Tree{byDOM: make([]BoxID, dt.Len())}
	for i := range t.byDOM {
		t.byDOM[i] = NoBox
	}
	s.tree = t
	s.contexts = ClassifyAll(s.styles)

	t.Root = t.add(Box{
		Node:      dom.NoNode,
		Parent:    NoBox,
		Anonymous: true,
		Context:   FormattingContext{Kind: ContextBlock, NewBFC: true},
		display:   "block",
	})
	s.buildChildren(t.Root, dt.Roots())
	// the boxes of document roots establish the initial BFC
	for _, c := range t.Boxes[t.Root].Children {
		t.Boxes[c].Context.NewBFC = true
	}
	return t
}

func (s *solver) newBox(parent BoxID, id dom.NodeID) Box {
	n := s.styles.Tree().Node(id)
	fc := s.contexts[id]
	b := Box{Node: id, Parent: parent, Context: fc}
	switch n.Type {
	case dom.TextNode:
		b.kind = kindText
		b.display = "inline"
		return b
	case dom.ImageNode, dom.IFrameNode:
		b.kind = kindReplaced
	}
	b.display = s.styles.Keyword(id, dom.PseudoNormal, css.PropDisplay)
	if b.kind == kindReplaced {
		return b
	}
	switch {
	case b.display == "flex" || b.display == "inline-flex":
		b.kind = kindFlex
	case fc.Kind == ContextInline:
		b.kind = kindInline
		if s.containsBlockLevel(id) {
			s.sink.Debugf("layout", "inline <%s> (node %d) contains block-level content, laid out as a block", n.Tag, id)
			b.kind = kindFlow
			b.Context = FormattingContext{Kind: ContextBlock}
		}
	default:
		b.kind = kindFlow
	}
	b.sticky = fc.Kind == ContextOutOfFlow && fc.Position == PositionSticky
	return b
}

// containsBlockLevel reports whether an inline element has a block-level
// descendant reachable through inline children.
func (s *solver) containsBlockLevel(id dom.NodeID) bool {
	dt := s.styles.Tree()
	for _, c := range dt.Children(id) {
		switch s.contexts[c].Kind {
		case ContextBlock, ContextFlex, ContextFloat:
			return true
		case ContextInline:
			if n := dt.Node(c); n != nil && n.Type == dom.ElementNode && s.containsBlockLevel(c) {
				return true
			}
		}
	}
	return false
}

// level is the role of a child box inside its parent's flow.
type level uint8

const (
	levelSkip level = iota
	levelInline
	levelBlock
	levelOutOfFlow
)

func (s *solver) levelOf(id dom.NodeID) level {
	fc := s.contexts[id]
	switch fc.Kind {
	case ContextNone:
		return levelSkip
	case ContextOutOfFlow:
		if fc.Position == PositionSticky {
			if k := s.styles.Keyword(id, dom.PseudoNormal, css.PropDisplay); k == "block" || k == "flex" || k == "list-item" {
				return levelBlock
			}
			return levelInline
		}
		return levelOutOfFlow
	case ContextBlock, ContextFlex, ContextFloat:
		return levelBlock
	case ContextInline:
		if n := s.styles.Tree().Node(id); n != nil && n.Type == dom.ElementNode && s.containsBlockLevel(id) {
			return levelBlock
		}
	}
	return levelInline
}

func (s *solver) buildChildren(parent BoxID, kids []dom.NodeID) {
	p := &s.tree.Boxes[parent]
	switch p.kind {
	case kindReplaced, kindText:
		return
	case kindFlex:
		s.buildFlexItems(parent, kids)
		return
	}

	hasBlock, hasInline := false, false
	for _, k := range kids {
		switch s.levelOf(k) {
		case levelBlock:
			hasBlock = true
		case levelInline:
			hasInline = true
		}
	}
	if !hasBlock || !hasInline {
		for _, k := range kids {
			s.buildNode(parent, k)
		}
		return
	}

	// mixed content: each run of inline-level siblings goes into an
	// anonymous block
	var run []dom.NodeID
	flush := func() {
		if !s.significantRun(run) {
			for _, k := range run {
				if s.levelOf(k) == levelOutOfFlow {
					s.buildNode(parent, k)
				}
			}
			run = run[:0]
			return
		}
		anon := s.tree.add(Box{
			Node:      dom.NoNode,
			Parent:    parent,
			Anonymous: true,
			Context:   FormattingContext{Kind: ContextBlock},
			display:   "block",
			kind:      kindFlow,
		})
		for _, k := range run {
			s.buildNode(anon, k)
		}
		run = run[:0]
	}
	for _, k := range kids {
		switch s.levelOf(k) {
		case levelSkip:
		case levelBlock:
			flush()
			s.buildNode(parent, k)
		default:
			run = append(run, k)
		}
	}
	flush()
}

// significantRun reports whether an inline run has content worth a line
// box: anything but collapsible white space.
func (s *solver) significantRun(run []dom.NodeID) bool {
	dt := s.styles.Tree()
	for _, k := range run {
		if s.levelOf(k) == levelOutOfFlow {
			continue
		}
		n := dt.Node(k)
		if n.Type != dom.TextNode {
			return true
		}
		if strings.TrimSpace(n.Text) != "" || preservesSpace(s.styles, k) {
			return true
		}
	}
	return false
}

func preservesSpace(styles *css.PropertyCache, id dom.NodeID) bool {
	switch styles.Keyword(id, dom.PseudoNormal, css.PropWhiteSpace) {
	case "pre", "pre-wrap":
		return true
	}
	return false
}

// buildFlexItems blockifies every in-flow child of a flex container.
// Contiguous text is wrapped in an anonymous item.
func (s *solver) buildFlexItems(parent BoxID, kids []dom.NodeID) {
	dt := s.styles.Tree()
	var run []dom.NodeID
	flush := func() {
		if s.significantRun(run) {
			anon := s.tree.add(Box{
				Node:      dom.NoNode,
				Parent:    parent,
				Anonymous: true,
				Context:   FormattingContext{Kind: ContextBlock, NewBFC: true},
				display:   "block",
				kind:      kindFlow,
				flexItem:  true,
			})
			for _, k := range run {
				s.buildNode(anon, k)
			}
		}
		run = run[:0]
	}
	for _, k := range kids {
		fc := s.contexts[k]
		switch {
		case fc.Kind == ContextNone:
			continue
		case dt.Node(k).Type == dom.TextNode:
			run = append(run, k)
			continue
		}
		flush()
		if fc.Kind == ContextOutOfFlow && fc.Position != PositionSticky {
			s.buildNode(parent, k)
			continue
		}
		if fc.Kind == ContextFloat {
			s.sink.Debugf("layout", "float on flex item <%s> (node %d) ignored", dt.Node(k).Tag, k)
		}
		id := s.buildNode(parent, k)
		b := &s.tree.Boxes[id]
		b.flexItem = true
		b.Context.NewBFC = true
		if b.kind == kindInline {
			b.kind = kindFlow
		}
	}
	flush()
}

func (s *solver) buildNode(parent BoxID, id dom.NodeID) BoxID {
	if s.contexts[id].Kind == ContextNone {
		return NoBox
	}
	bid := s.tree.add(s.newBox(parent, id))
	s.buildChildren(bid, s.styles.Tree().Children(id))
	return bid
}
