package text

import (
	"errors"
	"hash/fnv"
	"math"
	"strings"

	"github.com/go-text/typesetting/language"
)

// ErrResourceMissing is reported when no font can serve a run. Layout
// continues with a fallback, so the error only reaches the diagnostics sink.
var ErrResourceMissing = errors.New("text: resource missing")

// GlyphID indexes a glyph inside one font.
type GlyphID uint16

// NotDef is the .notdef glyph every font carries at index 0.
const NotDef GlyphID = 0

// Metrics are the vertical font metrics in font units. Descender is
// negative below the baseline.
type Metrics struct {
	UnitsPerEm int32
	Ascender   int32
	Descender  int32
	LineGap    int32
	XHeight    int32
	CapHeight  int32
}

// Scale returns the factor converting font units to pixels at size.
func (m Metrics) Scale(size float64) float64 {
	if m.UnitsPerEm <= 0 {
		return 0
	}
	return size / float64(m.UnitsPerEm)
}

// ParsedFont is the font capability the shaper consumes.
type ParsedFont interface {
	// GlyphIndex maps a codepoint through the cmap; ok is false when the
	// font has no glyph for it.
	GlyphIndex(r rune) (GlyphID, bool)
	// Advance is the horizontal advance of g in font units.
	Advance(g GlyphID) int32
	Metrics() Metrics
}

// Kerner is implemented by fonts exposing pair kerning in font units.
type Kerner interface {
	Kern(left, right GlyphID) int32
}

// ShapeRequest is one run handed to a font's own shaping engine. Text is
// the whole paragraph; only [Start, End) is shaped so that context is
// available to the engine.
type ShapeRequest struct {
	Text     []rune
	Start    int
	End      int
	RTL      bool
	Vertical bool
	Script   language.Script
	Language string
	Size     float64
	Kerning  bool
}

// Glyph is one shaped glyph. Advance and offsets are in pixels; Cluster is
// the rune index in the request text the glyph belongs to.
type Glyph struct {
	ID      GlyphID
	Cluster int
	Advance float64
	XOffset float64
	YOffset float64
}

// Shaper is implemented by fonts that apply GSUB substitution and GPOS
// positioning themselves. Fonts without it are shaped by cmap lookup plus
// pair kerning.
type Shaper interface {
	Shape(req ShapeRequest) ([]Glyph, error)
}

// FontProvider loads font bytes into a ParsedFont.
type FontProvider interface {
	LoadFont(data []byte, index int) (ParsedFont, error)
}

// FontRef identifies a face inside a FontSet. It is the font handle carried
// by display-list text runs.
type FontRef int

// NoFont is the zero-candidate font reference.
const NoFont FontRef = -1

// Face is one registered font with its family and style.
type Face struct {
	Family string
	Weight int
	Italic bool
	Font   ParsedFont
}

// FontSet is the read-only collection of faces layout selects from. Build
// it once and share it between layout calls.
type FontSet struct {
	faces    []Face
	byFamily map[string][]FontRef
	hash     uint64
}

// NewFontSet returns an empty set.
func NewFontSet() *FontSet {
	return &FontSet{byFamily: make(map[string][]FontRef)}
}

// Add registers f under family and returns its reference. Families match
// case-insensitively.
func (s *FontSet) Add(family string, weight int, italic bool, f ParsedFont) FontRef {
	ref := FontRef(len(s.faces))
	family = strings.ToLower(strings.TrimSpace(family))
	if weight <= 0 {
		weight = 400
	}
	s.faces = append(s.faces, Face{Family: family, Weight: weight, Italic: italic, Font: f})
	s.byFamily[family] = append(s.byFamily[family], ref)
	s.hash = 0
	return ref
}

// Len returns the number of faces.
func (s *FontSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.faces)
}

// Face returns the face for ref.
func (s *FontSet) Face(ref FontRef) (Face, bool) {
	if s == nil || ref < 0 || int(ref) >= len(s.faces) {
		return Face{}, false
	}
	return s.faces[ref], true
}

// Hash identifies the set contents for cache keys.
func (s *FontSet) Hash() uint64 {
	if s == nil {
		return 0
	}
	if s.hash == 0 {
		h := fnv.New64a()
		for _, f := range s.faces {
			h.Write([]byte(f.Family))
			h.Write([]byte{byte(f.Weight >> 8), byte(f.Weight), boolByte(f.Italic), 0})
		}
		s.hash = h.Sum64() | 1
	}
	return s.hash
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Candidates lists the faces to try for a font-family list, best match per
// family first, followed by every other face as a last resort.
func (s *FontSet) Candidates(families []string, weight int, italic bool) []FontRef {
	if s == nil {
		return nil
	}
	seen := make(map[FontRef]bool, len(s.faces))
	var out []FontRef
	for _, fam := range families {
		refs := s.byFamily[strings.ToLower(strings.TrimSpace(fam))]
		if len(refs) == 0 {
			continue
		}
		best, bestScore := NoFont, math.Inf(1)
		for _, r := range refs {
			f := s.faces[r]
			score := math.Abs(float64(f.Weight - weight))
			if f.Italic != italic {
				score += 1000
			}
			if score < bestScore {
				best, bestScore = r, score
			}
		}
		if !seen[best] {
			seen[best] = true
			out = append(out, best)
		}
	}
	for i := range s.faces {
		if r := FontRef(i); !seen[r] {
			out = append(out, r)
		}
	}
	return out
}

// Select walks the candidates and returns the first face with a glyph for
// r. When none has one the first candidate is returned with ok false and
// the caller renders .notdef.
func (s *FontSet) Select(candidates []FontRef, r rune) (ref FontRef, ok bool) {
	for _, c := range candidates {
		if _, has := s.faces[c].Font.GlyphIndex(r); has {
			return c, true
		}
	}
	if len(candidates) == 0 {
		return NoFont, false
	}
	return candidates[0], false
}

// fontMetrics returns ascent, descent and line gap in pixels.
func (s *FontSet) fontMetrics(ref FontRef, size float64) (ascent, descent, gap float64) {
	f, ok := s.Face(ref)
	if !ok {
		return size * 0.8, size * 0.2, 0
	}
	m := f.Font.Metrics()
	scale := m.Scale(size)
	if scale == 0 {
		return size * 0.8, size * 0.2, 0
	}
	return float64(m.Ascender) * scale, -float64(m.Descender) * scale, float64(m.LineGap) * scale
}

// runeAdvance returns the pixel advance of r in ref, or ok false when the
// font has no glyph for it.
func (s *FontSet) runeAdvance(ref FontRef, r rune, size float64) (GlyphID, float64, bool) {
	f, ok := s.Face(ref)
	if !ok {
		return NotDef, 0, false
	}
	g, has := f.Font.GlyphIndex(r)
	return g, float64(f.Font.Advance(g)) * f.Font.Metrics().Scale(size), has
}
