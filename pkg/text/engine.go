package text

import (
	"azul/pkg/diag"
)

// Engine shapes and lays out inline content against one font set. An
// Engine is used by a single layout call chain at a time.
type Engine struct {
	Fonts *FontSet
	Cache *Cache
	Sink  *diag.Sink
}

// NewEngine returns an engine. cache and sink may be nil.
func NewEngine(fonts *FontSet, cache *Cache, sink *diag.Sink) *Engine {
	if fonts == nil {
		fonts = NewFontSet()
	}
	return &Engine{Fonts: fonts, Cache: cache, Sink: sink}
}

// IntrinsicSizes are the width-independent measurements of a paragraph.
type IntrinsicSizes struct {
	// MinContent is the widest unbreakable segment.
	MinContent float64
	// MaxContent is the widest line when only forced breaks are taken.
	MaxContent float64
	// MaxContentHeight is the block extent at max-content width.
	MaxContentHeight float64
}

type cacheKey struct {
	content     uint64
	fonts       uint64
	constraints uint64
}

// Cache memoizes intrinsic sizes and layouts keyed by content, font set and
// constraints. It is owned by the caller and may be kept across frames;
// changes to content, style or constraints change the key.
type Cache struct {
	intrinsic map[cacheKey]IntrinsicSizes
	layouts   map[cacheKey]*UnifiedLayout
	hits      int
	misses    int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		intrinsic: make(map[cacheKey]IntrinsicSizes),
		layouts:   make(map[cacheKey]*UnifiedLayout),
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.intrinsic) + len(c.layouts)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return c.hits, c.misses
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	clear(c.intrinsic)
	clear(c.layouts)
}

func (e *Engine) key(content []InlineContent, c Constraints) (cacheKey, bool) {
	if e.Cache == nil {
		return cacheKey{}, false
	}
	ch, ok := c.hash()
	if !ok {
		return cacheKey{}, false
	}
	return cacheKey{content: ContentHash(content), fonts: e.Fonts.Hash(), constraints: ch}, true
}

// Intrinsic answers the min-content and max-content queries of the sizing
// pass. AvailableWidth is ignored.
func (e *Engine) Intrinsic(content []InlineContent, c Constraints) IntrinsicSizes {
	c.AvailableWidth, c.TextAlign, c.LineWidth = -1, AlignStart, nil
	key, cacheable := e.key(content, c)
	if cacheable {
		if v, ok := e.Cache.intrinsic[key]; ok {
			e.Cache.hits++
			return v
		}
		e.Cache.misses++
	}
	shaped := e.Shape(content, c)
	sizes := intrinsicWidths(buildNodes(shaped.Items, c.wraps()))
	l := e.layoutShaped(shaped, c)
	sizes.MaxContentHeight = l.blockExtent()
	if cacheable {
		e.Cache.intrinsic[key] = sizes
	}
	return sizes
}

func intrinsicWidths(nodes []node) IntrinsicSizes {
	var s IntrinsicSizes
	segment, line := 0.0, 0.0
	for k, n := range nodes {
		switch n.kind {
		case boxNode:
			segment += n.width
			line += n.width
		case glueNode:
			line += n.width
			switch {
			case breakable(nodes, k):
				s.MinContent = max(s.MinContent, segment)
				segment = 0
			case segment > 0:
				segment += n.width
			}
		case penaltyNode:
			if n.forced() {
				s.MinContent = max(s.MinContent, segment)
				s.MaxContent = max(s.MaxContent, line)
				segment, line = 0, 0
				continue
			}
			if n.cost < noBreak {
				s.MinContent = max(s.MinContent, segment+n.width)
				segment = 0
			}
		}
	}
	return s
}

// Layout shapes, breaks, justifies and positions inline content. The
// returned layout may be shared through the cache and must not be mutated.
func (e *Engine) Layout(content []InlineContent, c Constraints) *UnifiedLayout {
	key, cacheable := e.key(content, c)
	if cacheable {
		if l, ok := e.Cache.layouts[key]; ok {
			e.Cache.hits++
			return l
		}
		e.Cache.misses++
	}
	l := e.layoutShaped(e.Shape(content, c), c)
	if cacheable {
		e.Cache.layouts[key] = l
	}
	return l
}
