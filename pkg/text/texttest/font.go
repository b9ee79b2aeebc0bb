// Package texttest provides deterministic fonts for layout tests.
package texttest

import "azul/pkg/text"

// Font is a monospace font. Every covered rune maps to glyph ID rune+1 and
// advances 625 units on a 1000-unit em, so at 16px each cluster is 10px
// wide. Lines are 16px tall: ascent 12.8px, descent 3.2px.
type Font struct {
	// Covers limits the cmap. Nil covers every rune.
	Covers func(r rune) bool
	// Advances overrides the advance of individual runes in font units.
	Advances map[rune]int32
	// Kerning holds pair adjustments in font units.
	Kerning map[[2]rune]int32
}

// New returns a font covering every rune.
func New() *Font { return &Font{} }

// Only returns a font covering exactly the runes of s.
func Only(s string) *Font {
	set := make(map[rune]bool)
	for _, r := range s {
		set[r] = true
	}
	return &Font{Covers: func(r rune) bool { return set[r] }}
}

const advance = 625

func (f *Font) GlyphIndex(r rune) (text.GlyphID, bool) {
	if r < 0 || r >= 0xFFFF || f.Covers != nil && !f.Covers(r) {
		return text.NotDef, false
	}
	return text.GlyphID(r + 1), true
}

func (f *Font) Advance(g text.GlyphID) int32 {
	if g == text.NotDef {
		return advance
	}
	if a, ok := f.Advances[rune(g-1)]; ok {
		return a
	}
	return advance
}

func (f *Font) Metrics() text.Metrics {
	return text.Metrics{UnitsPerEm: 1000, Ascender: 800, Descender: -200, XHeight: 500, CapHeight: 700}
}

func (f *Font) Kern(left, right text.GlyphID) int32 {
	if f.Kerning == nil || left == text.NotDef || right == text.NotDef {
		return 0
	}
	return f.Kerning[[2]rune{rune(left - 1), rune(right - 1)}]
}

// FontSet returns a set with New registered as family "test".
func FontSet() *text.FontSet {
	fs := text.NewFontSet()
	fs.Add("test", 400, false, New())
	return fs
}

// Style returns a 16px style using the "test" family.
func Style() *text.Style {
	return &text.Style{Families: []string{"test"}, Size: 16, Weight: 400}
}
