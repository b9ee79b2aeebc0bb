package text_test

import (
	"errors"
	"strings"
	"testing"

	"azul/pkg/diag"
	"azul/pkg/text"
	"azul/pkg/text/texttest"
)

func TestWhiteSpaceProcessing(t *testing.T) {
	e := newEngine()
	tests := []struct {
		ws    text.WhiteSpace
		in    string
		items int
		kinds string
	}{
		{text.WhiteSpaceNormal, "  a \n\t b  ", 3, "ccc"},
		{text.WhiteSpaceNoWrap, "a   b", 3, "ccc"},
		{text.WhiteSpacePre, " a\tb\n", 5, "cctcb"},
		{text.WhiteSpacePreWrap, "a  b", 4, "cccc"},
		{text.WhiteSpacePreLine, "a  \n  b", 3, "cbc"},
	}
	for _, tt := range tests {
		shaped := e.Shape(para(tt.in), text.Constraints{WhiteSpace: tt.ws})
		if len(shaped.Items) != tt.items {
			t.Errorf("ws %d %q: %d items, want %d", tt.ws, tt.in, len(shaped.Items), tt.items)
			continue
		}
		var kinds strings.Builder
		for _, it := range shaped.Items {
			kinds.WriteByte(it.Kind.String()[0])
		}
		if kinds.String() != tt.kinds {
			t.Errorf("ws %d %q: kinds %s, want %s", tt.ws, tt.in, kinds.String(), tt.kinds)
		}
	}
}

func TestCollapsedSpaceKeepsSourceRange(t *testing.T) {
	e := newEngine()
	shaped := e.Shape(para("a   b"), text.Constraints{})
	sp := shaped.Items[1]
	if !sp.WordSeparator || sp.Start != 1 || sp.End != 4 {
		t.Errorf("space item = %+v, want bytes [1,4)", sp)
	}
	if b := shaped.Items[2]; b.Start != 4 || !b.BreakBefore {
		t.Errorf("b item = %+v", b)
	}
}

func TestFontFallback(t *testing.T) {
	fs := text.NewFontSet()
	latin := fs.Add("Latin", 400, false, texttest.Only("abc "))
	hebrew := fs.Add("Hebrew", 400, false, texttest.Only("אב"))
	sink := &diag.Sink{}
	e := text.NewEngine(fs, nil, sink)
	style := &text.Style{Families: []string{"latin"}, Size: 16}
	shaped := e.Shape([]text.InlineContent{&text.StyledRun{Text: "a א z", Style: style}}, text.Constraints{})
	want := []text.FontRef{latin, latin, hebrew, hebrew, latin}
	if len(shaped.Items) != len(want) {
		t.Fatalf("got %d items", len(shaped.Items))
	}
	for i, it := range shaped.Items {
		if it.Font != want[i] {
			t.Errorf("item %d font %d, want %d", i, it.Font, want[i])
		}
	}
	// z has no glyph anywhere: .notdef from the first candidate
	if z := shaped.Items[4]; len(z.Glyphs) != 1 || z.Glyphs[0].ID != text.NotDef {
		t.Errorf("z glyphs = %+v, want .notdef", z.Glyphs)
	}
	if len(sink.Filter("text")) == 0 {
		t.Error("missing glyph should be reported")
	}
}

func TestFontMatchingByWeight(t *testing.T) {
	fs := text.NewFontSet()
	regular := fs.Add("Sans", 400, false, texttest.New())
	bold := fs.Add("Sans", 700, false, texttest.New())
	italic := fs.Add("Sans", 400, true, texttest.New())
	tests := []struct {
		weight int
		italic bool
		want   text.FontRef
	}{
		{400, false, regular},
		{800, false, bold},
		{400, true, italic},
		{700, true, italic},
	}
	for _, tt := range tests {
		if got := fs.Candidates([]string{"sans"}, tt.weight, tt.italic)[0]; got != tt.want {
			t.Errorf("Candidates(%d, %v)[0] = %d, want %d", tt.weight, tt.italic, got, tt.want)
		}
	}
}

func TestEmptyFontSet(t *testing.T) {
	sink := &diag.Sink{}
	e := text.NewEngine(text.NewFontSet(), nil, sink)
	l := e.Layout(para("hello"), text.Constraints{AvailableWidth: 100})
	if len(l.Items) != 5 {
		t.Fatalf("got %d items", len(l.Items))
	}
	for _, p := range l.Items {
		if p.Item.Advance != 0 {
			t.Errorf("advance %v, want 0", p.Item.Advance)
		}
	}
	found := false
	for _, m := range sink.Messages {
		if m.Level == diag.LevelWarning && strings.Contains(m.Text, text.ErrResourceMissing.Error()) {
			found = true
		}
	}
	if !found {
		t.Errorf("no resource-missing warning in %v", sink.Messages)
	}
}

func TestKerning(t *testing.T) {
	f := texttest.New()
	f.Kerning = map[[2]rune]int32{{'A', 'V'}: -100}
	fs := text.NewFontSet()
	fs.Add("test", 400, false, f)
	e := text.NewEngine(fs, nil, nil)
	width := func(style *text.Style) float64 {
		return e.Intrinsic([]text.InlineContent{&text.StyledRun{Text: "AV", Style: style}}, text.Constraints{}).MaxContent
	}
	if got := width(texttest.Style()); !near(got, 18.4) {
		t.Errorf("kerned width = %v, want 18.4", got)
	}
	noKern := texttest.Style()
	noKern.NoKerning = true
	if got := width(noKern); !near(got, 20) {
		t.Errorf("unkerned width = %v, want 20", got)
	}
}

func TestSpacing(t *testing.T) {
	e := newEngine()
	style := texttest.Style()
	style.LetterSpacing = 2
	style.WordSpacing = 5
	got := e.Intrinsic([]text.InlineContent{&text.StyledRun{Text: "ab c", Style: style}}, text.Constraints{}).MaxContent
	// 4 clusters at 12 each plus 5 word spacing
	if !near(got, 53) {
		t.Errorf("max-content = %v, want 53", got)
	}
}

func TestCombiningMarksJoinCluster(t *testing.T) {
	e := newEngine()
	shaped := e.Shape(para("e\u0301a"), text.Constraints{})
	if len(shaped.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(shaped.Items))
	}
	if c := shaped.Items[0]; len(c.Glyphs) != 2 || !near(c.Advance, 10) {
		t.Errorf("cluster = %+v, want 2 glyphs with one advance", c)
	}
}

type failingShaper struct{ *texttest.Font }

func (failingShaper) Shape(text.ShapeRequest) ([]text.Glyph, error) {
	return nil, errors.New("out of memory")
}

func TestShaperFailureDegradesRun(t *testing.T) {
	fs := text.NewFontSet()
	fs.Add("test", 400, false, failingShaper{texttest.New()})
	sink := &diag.Sink{}
	e := text.NewEngine(fs, nil, sink)
	l := e.Layout(para("abc"), text.Constraints{AvailableWidth: 100})
	if l.Bounds.Width != 100 || len(l.Items) != 3 {
		t.Fatalf("layout = %+v", l)
	}
	for _, p := range l.Items {
		if p.Item.Advance != 0 || len(p.Item.Glyphs) != 0 {
			t.Errorf("failed run should be zero width, got %+v", p.Item)
		}
	}
	if sink.Len() == 0 {
		t.Error("shaping failure not reported")
	}
}
