package text

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
	"strings"

	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
)

// Hyphens mirrors the CSS hyphens property.
type Hyphens int

const (
	HyphensManual Hyphens = iota
	HyphensNone
	HyphensAuto
)

// Style is the text style shared by a run of inline content.
type Style struct {
	Families      []string
	Size          float64
	Weight        int
	Italic        bool
	Color         css.Color
	LetterSpacing float64
	WordSpacing   float64
	TabSize       float64 // in space advances
	NoKerning     bool
	Hyphens       Hyphens
	// CombineUpright marks tate-chu-yoko text in vertical writing modes.
	CombineUpright bool
	Node           dom.NodeID
}

func (s *Style) size() float64 {
	if s == nil || s.Size <= 0 {
		return 16
	}
	return s.Size
}

func (s *Style) tabSize() float64 {
	if s == nil || s.TabSize <= 0 {
		return 8
	}
	return s.TabSize
}

func (s *Style) writeHash(h hash.Hash64) {
	if s == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte(strings.Join(s.Families, ",")))
	var buf [8]byte
	for _, f := range []float64{s.Size, float64(s.Weight), s.LetterSpacing, s.WordSpacing, s.TabSize, float64(s.Hyphens), s.Color.A, float64(s.Node)} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	h.Write([]byte{boolByte(s.Italic), boolByte(s.NoKerning), boolByte(s.CombineUpright), s.Color.R, s.Color.G, s.Color.B})
}

// InlineContent is one item of an inline formatting context in reading
// order: a *StyledRun, *InlineImage, *InlineShape or *InlineObject.
type InlineContent interface {
	inlineStyle() *Style
}

// StyledRun is a run of text sharing one style. LogicalStart is the byte
// offset of the run inside its source text node.
type StyledRun struct {
	Text         string
	Style        *Style
	LogicalStart int
}

// InlineImage is a replaced image with its intrinsic size.
type InlineImage struct {
	Src   string
	Size  geom.Size
	Style *Style
}

// InlineShape is a simple vector shape participating in inline flow.
type InlineShape struct {
	Size   geom.Size
	Fill   css.Color
	Stroke css.Color
	Style  *Style
}

// InlineObject is an opaque atomic inline such as an inline-block.
// Baseline is measured from the top; zero aligns the bottom edge.
type InlineObject struct {
	Size     geom.Size
	Baseline float64
	Node     dom.NodeID
	Style    *Style
}

func (r *StyledRun) inlineStyle() *Style    { return r.Style }
func (i *InlineImage) inlineStyle() *Style  { return i.Style }
func (s *InlineShape) inlineStyle() *Style  { return s.Style }
func (o *InlineObject) inlineStyle() *Style { return o.Style }

// objectSize returns the size and baseline of a non-text item.
func objectSize(c InlineContent) (geom.Size, float64) {
	switch c := c.(type) {
	case *InlineImage:
		return c.Size, c.Size.Height
	case *InlineShape:
		return c.Size, c.Size.Height
	case *InlineObject:
		if c.Baseline > 0 {
			return c.Size, c.Baseline
		}
		return c.Size, c.Size.Height
	}
	return geom.Size{}, 0
}

// ContentHash hashes inline content for the layout caches.
func ContentHash(content []InlineContent) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, c := range content {
		switch c := c.(type) {
		case *StyledRun:
			h.Write([]byte{'t'})
			h.Write([]byte(c.Text))
		default:
			sz, base := objectSize(c)
			h.Write([]byte{'o'})
			for _, f := range []float64{sz.Width, sz.Height, base} {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
				h.Write(buf[:])
			}
		}
		c.inlineStyle().writeHash(h)
	}
	return h.Sum64()
}
