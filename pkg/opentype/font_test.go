package opentype_test

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"azul/pkg/opentype"
	"azul/pkg/text"
)

func parse(t *testing.T, data []byte) *opentype.Font {
	t.Helper()
	f, err := opentype.Parse(data, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestParseErrors(t *testing.T) {
	if _, err := opentype.Parse(nil, 0); !errors.Is(err, opentype.ErrEmptyFontData) {
		t.Errorf("empty data: err = %v", err)
	}
	if _, err := opentype.Parse([]byte("not a font"), 0); err == nil {
		t.Error("garbage data should fail")
	}
	if _, err := opentype.Parse(goregular.TTF, 3); err == nil {
		t.Error("face index past the end should fail")
	}
}

func TestFontTables(t *testing.T) {
	f := parse(t, goregular.TTF)
	if f.Family() != "Go" {
		t.Errorf("family = %q, want Go", f.Family())
	}
	m := f.Metrics()
	if m.UnitsPerEm != 2048 {
		t.Errorf("units per em = %d, want 2048", m.UnitsPerEm)
	}
	if m.Ascender <= 0 || m.Descender >= 0 {
		t.Errorf("metrics = %+v, want ascender above and descender below the baseline", m)
	}
	for _, r := range "AVa0 " {
		g, ok := f.GlyphIndex(r)
		if !ok || g == text.NotDef {
			t.Errorf("GlyphIndex(%q) = %d, %v", r, g, ok)
			continue
		}
		if f.Advance(g) <= 0 {
			t.Errorf("Advance(%q) = %d", r, f.Advance(g))
		}
	}
	if _, ok := f.GlyphIndex('\U0001F600'); ok {
		t.Error("Go Regular has no emoji")
	}
}

func TestShape(t *testing.T) {
	f := parse(t, goregular.TTF)
	runes := []rune("xAVx")
	glyphs, err := f.Shape(text.ShapeRequest{Text: runes, Start: 1, End: 3, Size: 16, Kerning: true})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(glyphs) != 2 {
		t.Fatalf("got %d glyphs, want 2", len(glyphs))
	}
	for i, g := range glyphs {
		if g.Cluster != i+1 {
			t.Errorf("glyph %d cluster = %d, want %d", i, g.Cluster, i+1)
		}
		if g.Advance <= 0 || g.Advance > 16 {
			t.Errorf("glyph %d advance = %v", i, g.Advance)
		}
	}
	if _, err := f.Shape(text.ShapeRequest{Text: runes, Start: 2, End: 9, Size: 16}); err == nil {
		t.Error("out of range run should fail")
	}
}

func TestShapeRTLClusters(t *testing.T) {
	f := parse(t, goregular.TTF)
	glyphs, err := f.Shape(text.ShapeRequest{Text: []rune("abc"), End: 3, Size: 16, RTL: true})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	seen := map[int]bool{}
	for _, g := range glyphs {
		seen[g.Cluster] = true
	}
	if len(seen) != 3 || !seen[0] || !seen[2] {
		t.Errorf("clusters = %v, want 0..2", seen)
	}
}

func TestEngineWithRealFonts(t *testing.T) {
	fs := text.NewFontSet()
	var p opentype.Provider
	for _, tt := range []struct {
		data   []byte
		weight int
	}{{goregular.TTF, 400}, {gobold.TTF, 700}} {
		pf, err := p.LoadFont(tt.data, 0)
		if err != nil {
			t.Fatalf("LoadFont: %v", err)
		}
		fs.Add("Go", tt.weight, false, pf)
	}
	e := text.NewEngine(fs, text.NewCache(), nil)
	style := &text.Style{Families: []string{"go"}, Size: 16}
	bold := &text.Style{Families: []string{"go"}, Size: 16, Weight: 700}
	content := []text.InlineContent{
		&text.StyledRun{Text: "Hello ", Style: style},
		&text.StyledRun{Text: "world", Style: bold, LogicalStart: 6},
	}
	sizes := e.Intrinsic(content, text.Constraints{})
	if sizes.MinContent <= 0 || sizes.MaxContent <= sizes.MinContent {
		t.Fatalf("intrinsic sizes = %+v", sizes)
	}
	l := e.Layout(content, text.Constraints{AvailableWidth: sizes.MinContent})
	if len(l.Lines) != 2 {
		t.Errorf("got %d lines at min-content width, want 2", len(l.Lines))
	}
	if l.Overflow.Width > sizes.MinContent+0.01 {
		t.Errorf("overflow width %v exceeds min-content %v", l.Overflow.Width, sizes.MinContent)
	}
}

func TestOutline(t *testing.T) {
	f := parse(t, goregular.TTF)
	g, ok := f.GlyphIndex('H')
	if !ok {
		t.Fatal("no glyph for H")
	}
	segs, err := f.Outline(g, 32)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("empty outline")
	}
	// H sits on the baseline and rises above it
	minY, maxY := segs[0].Args[0].Y, segs[0].Args[0].Y
	for _, s := range segs {
		minY = min(minY, s.Args[0].Y)
		maxY = max(maxY, s.Args[0].Y)
	}
	if minY >= 0 || maxY > 64 {
		t.Errorf("outline spans y %v..%v, want above the baseline", minY, maxY)
	}
	if _, err := f.Outline(text.GlyphID(f.NumGlyphs()+10), 32); err == nil {
		t.Error("out of range glyph should fail")
	}
}
