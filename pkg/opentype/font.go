// Package opentype loads OpenType and TrueType fonts for the text engine.
// Table lookups (cmap, hmtx, kern, metrics) go through x/image/font/sfnt;
// GSUB and GPOS shaping goes through the go-text HarfBuzz port.
package opentype

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"azul/pkg/text"
)

// ErrEmptyFontData is returned when LoadFont is given no bytes.
var ErrEmptyFontData = errors.New("opentype: empty font data")

// Provider implements text.FontProvider.
type Provider struct{}

// LoadFont parses font bytes. index selects a face inside a collection.
func (Provider) LoadFont(data []byte, index int) (text.ParsedFont, error) {
	return Parse(data, index)
}

// Font is a parsed font. It is safe for concurrent use: every call works
// on its own sfnt buffer and go-text face.
type Font struct {
	sfnt    *sfnt.Font
	shaped  *gotext.Font
	metrics text.Metrics
	ppem    fixed.Int26_6 // units-per-em as a pixel size, so lookups return font units
	family  string

	shapers sync.Pool
}

// Parse parses the face at index of an OpenType file or collection.
func Parse(data []byte, index int) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("opentype: parse: %w", err)
	}
	if index < 0 || index >= coll.NumFonts() {
		return nil, fmt.Errorf("opentype: face index %d out of range [0,%d)", index, coll.NumFonts())
	}
	sf, err := coll.Font(index)
	if err != nil {
		return nil, fmt.Errorf("opentype: face %d: %w", index, err)
	}

	var gf *gotext.Font
	if index == 0 {
		face, err := gotext.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opentype: shaping tables: %w", err)
		}
		gf = face.Font
	} else {
		faces, err := gotext.ParseTTC(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opentype: shaping tables: %w", err)
		}
		if index >= len(faces) {
			return nil, fmt.Errorf("opentype: face index %d out of range for shaping", index)
		}
		gf = faces[index].Font
	}

	f := &Font{sfnt: sf, shaped: gf}
	f.shapers.New = func() any { return &shaping.HarfbuzzShaper{} }
	upem := int32(sf.UnitsPerEm())
	f.ppem = fixed.Int26_6(upem << 6)
	var buf sfnt.Buffer
	m, err := sf.Metrics(&buf, f.ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("opentype: metrics: %w", err)
	}
	f.metrics = text.Metrics{
		UnitsPerEm: upem,
		Ascender:   units(m.Ascent),
		Descender:  -units(m.Descent),
		LineGap:    units(m.Height - m.Ascent - m.Descent),
		XHeight:    units(m.XHeight),
		CapHeight:  units(m.CapHeight),
	}
	if name, err := sf.Name(&buf, sfnt.NameIDFamily); err == nil {
		f.family = name
	}
	return f, nil
}

func units(v fixed.Int26_6) int32 {
	return int32(math.Round(float64(v) / 64))
}

// Family returns the font's family name from its name table.
func (f *Font) Family() string { return f.family }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.sfnt.NumGlyphs() }

func (f *Font) GlyphIndex(r rune) (text.GlyphID, bool) {
	var buf sfnt.Buffer
	g, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil || g == 0 {
		return text.NotDef, false
	}
	return text.GlyphID(g), true
}

func (f *Font) Advance(g text.GlyphID) int32 {
	var buf sfnt.Buffer
	adv, err := f.sfnt.GlyphAdvance(&buf, sfnt.GlyphIndex(g), f.ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return units(adv)
}

func (f *Font) Metrics() text.Metrics { return f.metrics }

// Outline returns the outline of g scaled to size pixels per em, with y
// increasing downwards from the pen origin.
func (f *Font) Outline(g text.GlyphID, size float64) (sfnt.Segments, error) {
	var buf sfnt.Buffer
	segs, err := f.sfnt.LoadGlyph(&buf, sfnt.GlyphIndex(g), fixed.Int26_6(math.Round(size*64)), nil)
	if err != nil {
		return nil, fmt.Errorf("opentype: glyph %d: %w", g, err)
	}
	// segs aliases buf
	return append(sfnt.Segments(nil), segs...), nil
}

// Kern returns the kern-table adjustment for a glyph pair. Fonts with only
// GPOS kerning report zero here; Shape applies those.
func (f *Font) Kern(left, right text.GlyphID) int32 {
	var buf sfnt.Buffer
	k, err := f.sfnt.Kern(&buf, sfnt.GlyphIndex(left), sfnt.GlyphIndex(right), f.ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return units(k)
}

var kernTag = ot.NewTag('k', 'e', 'r', 'n')

// Shape runs HarfBuzz over [req.Start, req.End) of req.Text. Glyph clusters
// are rune indices into req.Text.
func (f *Font) Shape(req text.ShapeRequest) (glyphs []text.Glyph, err error) {
	if req.Start < 0 || req.End > len(req.Text) || req.Start > req.End {
		return nil, fmt.Errorf("opentype: run [%d,%d) outside text of %d runes", req.Start, req.End, len(req.Text))
	}
	if req.Start == req.End {
		return nil, nil
	}
	defer func() {
		// the shaper indexes font tables directly; malformed fonts surface
		// as panics
		if r := recover(); r != nil {
			glyphs, err = nil, fmt.Errorf("opentype: shaping failed: %v", r)
		}
	}()

	dir := di.DirectionLTR
	switch {
	case req.Vertical:
		dir = di.DirectionTTB
	case req.RTL:
		dir = di.DirectionRTL
	}
	script := req.Script
	if script == 0 {
		script = language.LookupScript(req.Text[req.Start])
	}
	lang := req.Language
	if lang == "" || lang == "und" {
		lang = "en"
	}
	in := shaping.Input{
		Text:      req.Text,
		RunStart:  req.Start,
		RunEnd:    req.End,
		Direction: dir,
		Face:      gotext.NewFace(f.shaped),
		Size:      fixed.Int26_6(req.Size * 64),
		Script:    script,
		Language:  language.NewLanguage(lang),
	}
	if !req.Kerning {
		in.FontFeatures = []shaping.FontFeature{{Tag: kernTag, Value: 0}}
	}

	hb := f.shapers.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(in)
	f.shapers.Put(hb)

	glyphs = make([]text.Glyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		adv := g.Advance
		if adv < 0 {
			adv = -adv
		}
		glyphs[i] = text.Glyph{
			ID:      text.GlyphID(g.GlyphID),
			Cluster: g.TextIndex(),
			Advance: fixedToFloat(adv),
			XOffset: fixedToFloat(g.XOffset),
			YOffset: -fixedToFloat(g.YOffset),
		}
	}
	return glyphs, nil
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
