package displaylist

import (
	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/layout"
)

// HitTestItem is one node under a point. Local is the point relative to
// the node's border-box origin.
type HitTestItem struct {
	Node  dom.NodeID
	Local geom.Point
}

type clipRect struct {
	rect  geom.Rect
	radii geom.Radii
}

func (c clipRect) contains(pt geom.Point) bool {
	if c.radii.Zero() {
		return c.rect.Contains(pt)
	}
	return geom.RoundedContains(c.rect, c.radii, pt)
}

// hitRegion is a painted area recorded in paint order together with the
// clips active when it was painted.
type hitRegion struct {
	node   dom.NodeID
	rect   geom.Rect
	radii  geom.Radii
	origin geom.Point // border-box origin of node
	clips  []clipRect
}

func (b *builder) hit(n dom.NodeID, r geom.Rect, radii geom.Radii) {
	b.hitAt(n, r, radii, r.Origin())
}

func (b *builder) hitAt(n dom.NodeID, r geom.Rect, radii geom.Radii, origin geom.Point) {
	if n == dom.NoNode || r.Empty() {
		return
	}
	clips := make([]clipRect, len(b.clips))
	for i, c := range b.clips {
		clips[i] = c.clipRect
	}
	b.list.hits = append(b.list.hits, hitRegion{node: n, rect: r, radii: radii, origin: origin, clips: clips})
}

// HitTest returns the nodes painted under pt, topmost first. A node is
// reported once, at its topmost region; regions hidden by an overflow
// clip do not count.
func (l *DisplayList) HitTest(pt geom.Point) []HitTestItem {
	if l == nil {
		return nil
	}
	var out []HitTestItem
	seen := make(map[dom.NodeID]bool)
	for i := len(l.hits) - 1; i >= 0; i-- {
		h := l.hits[i]
		if seen[h.node] || !(clipRect{h.rect, h.radii}).contains(pt) {
			continue
		}
		inside := true
		for _, c := range h.clips {
			if !c.contains(pt) {
				inside = false
				break
			}
		}
		if !inside {
			continue
		}
		seen[h.node] = true
		out = append(out, HitTestItem{Node: h.node, Local: pt.Sub(h.origin)})
	}
	return out
}

// HitTest builds the paint order of a positioned tree and returns the
// nodes under pt, topmost first.
func HitTest(p *layout.Positioned, styles *css.PropertyCache, pt geom.Point) []HitTestItem {
	return Build(p, styles, Options{}).HitTest(pt)
}
