package text_test

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"azul/pkg/diag"
	"azul/pkg/geom"
	"azul/pkg/text"
	"azul/pkg/text/texttest"
)

func para(s string) []text.InlineContent {
	return []text.InlineContent{&text.StyledRun{Text: s, Style: texttest.Style()}}
}

func newEngine() *text.Engine {
	return text.NewEngine(texttest.FontSet(), text.NewCache(), &diag.Sink{})
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// lineContent returns the laid-out (non-hanging) items of line li.
func lineContent(l *text.UnifiedLayout, li int) []text.PositionedItem {
	var out []text.PositionedItem
	n := l.Lines[li].ContentEnd - l.Lines[li].Start
	for _, p := range l.Items {
		if p.Line == li && len(out) < n {
			out = append(out, p)
		}
	}
	return out
}

func TestJustifiedParagraph(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("The quick brown fox jumps over"), text.Constraints{AvailableWidth: 200, TextAlign: text.AlignJustify})
	if len(l.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(l.Lines))
	}
	if !near(l.Lines[0].Width, 200) {
		t.Errorf("first line width = %v, want 200", l.Lines[0].Width)
	}
	first := lineContent(l, 0)
	glue, total := 0.0, 0.0
	for _, p := range first {
		total += p.Item.Advance
		if p.Item.WordSeparator {
			glue += p.Item.Advance
		}
	}
	if !near(glue, 40) {
		t.Errorf("glue advances = %v, want 40 (30 natural + 10 surplus)", glue)
	}
	lastItem := first[len(first)-1]
	if !near(lastItem.Position.X+lastItem.Item.Advance, 200) || !near(total, 200) {
		t.Errorf("justified line ends at %v, total %v", lastItem.Position.X+lastItem.Item.Advance, total)
	}
	if !near(l.Lines[1].Width, 100) {
		t.Errorf("last line width = %v, want 100 (not justified)", l.Lines[1].Width)
	}
	for _, p := range lineContent(l, 1) {
		if p.Item.WordSeparator && !near(p.Item.Advance, 10) {
			t.Errorf("last line glue = %v, want 10", p.Item.Advance)
		}
	}
}

func TestJustifyAll(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("ab cd"), text.Constraints{AvailableWidth: 100, TextAlign: text.AlignJustifyAll})
	if len(l.Lines) != 1 || !near(l.Lines[0].Width, 100) {
		t.Fatalf("justify-all last line width = %v", l.Lines[0].Width)
	}
	l = e.Layout(para("ab cd"), text.Constraints{AvailableWidth: 100, TextAlign: text.AlignJustifyAll, Justify: text.JustifyNone})
	if !near(l.Lines[0].Width, 50) {
		t.Errorf("justify:none width = %v, want 50", l.Lines[0].Width)
	}
}

func TestInterCharacterJustification(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("abcd"), text.Constraints{AvailableWidth: 70, TextAlign: text.AlignJustifyAll, Justify: text.JustifyInterCharacter})
	xs := []float64{0, 20, 40, 60}
	for i, p := range l.Items {
		if !near(p.Position.X, xs[i]) {
			t.Errorf("item %d at %v, want %v", i, p.Position.X, xs[i])
		}
	}
}

func TestOptimalNeverWorseThanGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := newEngine()
	for trial := 0; trial < 200; trial++ {
		var words []string
		for n := 3 + rng.Intn(20); n > 0; n-- {
			words = append(words, strings.Repeat("x", 1+rng.Intn(12)))
		}
		width := float64(80 + rng.Intn(300))
		shaped := e.Shape(para(strings.Join(words, " ")), text.Constraints{AvailableWidth: width})
		opt, greedy := text.BreakerDemerits(shaped.Items, width)
		if opt > greedy+1e-9 {
			t.Fatalf("trial %d: optimal demerits %v > greedy %v (width %v, %q)", trial, opt, greedy, width, words)
		}
	}
}

func TestGreedyStrategy(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("aaa bb cc dddddd"), text.Constraints{AvailableWidth: 100, Strategy: text.BreakGreedy})
	if len(l.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(l.Lines))
	}
	if got := l.Lines[0].ContentEnd - l.Lines[0].Start; got != 9 {
		t.Errorf("first line holds %d clusters, want 9 (\"aaa bb cc\")", got)
	}
}

func TestIntrinsicSizes(t *testing.T) {
	e := newEngine()
	tests := []struct {
		name     string
		text     string
		c        text.Constraints
		min, max float64
	}{
		{"words", "The quick brown fox", text.Constraints{}, 50, 190},
		{"nowrap", "The quick brown fox", text.Constraints{WhiteSpace: text.WhiteSpaceNoWrap}, 190, 190},
		{"collapsed", "  a   bb  ", text.Constraints{}, 20, 40},
		{"pre lines", "ab\nabcd", text.Constraints{WhiteSpace: text.WhiteSpacePre}, 40, 40},
		{"soft hyphen without hyphenator", "hyphen\u00ADation", text.Constraints{}, 110, 110},
		{"soft hyphen", "hyphen\u00ADation", text.Constraints{Hyphenator: text.SoftHyphenator{}}, 70, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Intrinsic(para(tt.text), tt.c)
			if !near(got.MinContent, tt.min) || !near(got.MaxContent, tt.max) {
				t.Errorf("Intrinsic(%q) = {%v, %v}, want {%v, %v}", tt.text, got.MinContent, got.MaxContent, tt.min, tt.max)
			}
		})
	}
	if h := e.Intrinsic(para("ab\ncd"), text.Constraints{WhiteSpace: text.WhiteSpacePreLine}).MaxContentHeight; !near(h, 32) {
		t.Errorf("MaxContentHeight = %v, want 32", h)
	}
}

func TestHyphenatedLine(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("hyphen\u00ADation"), text.Constraints{AvailableWidth: 75, Hyphenator: text.SoftHyphenator{}})
	if len(l.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(l.Lines))
	}
	if !l.Lines[0].Hyphenated || !near(l.Lines[0].Width, 70) {
		t.Errorf("line 0 = %+v, want hyphenated width 70", l.Lines[0])
	}
	var hyphen *text.PositionedItem
	for i := range l.Items {
		if p := &l.Items[i]; p.Line == 0 && len(p.Item.Glyphs) == 1 && p.Item.Glyphs[0].ID == text.GlyphID('\u2010'+1) {
			hyphen = p
		}
	}
	if hyphen == nil || !near(hyphen.Position.X, 60) {
		t.Fatalf("hyphen glyph missing or misplaced: %+v", hyphen)
	}
}

func TestForcedBreaksAndLineHeight(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("ab\ncd"), text.Constraints{AvailableWidth: 500, WhiteSpace: text.WhiteSpacePreLine})
	if len(l.Lines) != 2 || !near(l.Lines[1].Top, 16) {
		t.Fatalf("lines = %+v", l.Lines)
	}
	if !near(l.FirstBaseline(), 12.8) {
		t.Errorf("FirstBaseline = %v, want 12.8", l.FirstBaseline())
	}
	l = e.Layout(para("ab"), text.Constraints{AvailableWidth: 500, LineHeight: 24})
	if !near(l.Lines[0].Height, 24) || !near(l.FirstBaseline(), 16.8) {
		t.Errorf("line-height 24: height %v baseline %v", l.Lines[0].Height, l.FirstBaseline())
	}
	l = e.Layout(para("ab\n"), text.Constraints{AvailableWidth: 500, WhiteSpace: text.WhiteSpacePre})
	if len(l.Lines) != 1 {
		t.Errorf("trailing newline produced %d lines, want 1", len(l.Lines))
	}
}

func TestAlignment(t *testing.T) {
	e := newEngine()
	tests := []struct {
		align text.TextAlign
		dir   text.Direction
		x     float64
	}{
		{text.AlignStart, text.LTR, 0},
		{text.AlignStart, text.RTL, 170},
		{text.AlignEnd, text.LTR, 170},
		{text.AlignEnd, text.RTL, 0},
		{text.AlignCenter, text.LTR, 85},
		{text.AlignLeft, text.RTL, 0},
		{text.AlignRight, text.LTR, 170},
		{text.AlignJustify, text.RTL, 170},
	}
	for _, tt := range tests {
		l := e.Layout(para("abc"), text.Constraints{AvailableWidth: 200, TextAlign: tt.align, Direction: tt.dir})
		if got := l.Lines[0].Offset; !near(got, tt.x) {
			t.Errorf("align %v dir %v: offset %v, want %v", tt.align, tt.dir, got, tt.x)
		}
		if got := l.Items[0].Position.X; !near(got, tt.x) {
			t.Errorf("align %v dir %v: first item at %v, want %v", tt.align, tt.dir, got, tt.x)
		}
	}
}

func TestBidiReordering(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("abc אבג"), text.Constraints{AvailableWidth: 500})
	x := make(map[int]float64)
	for _, p := range l.Items {
		x[p.Item.Start] = p.Position.X
	}
	// alef (byte 4) is read first and sits rightmost
	if !(x[4] > x[6] && x[6] > x[8]) {
		t.Errorf("hebrew not reversed: alef %v bet %v gimel %v", x[4], x[6], x[8])
	}
	if !(x[8] > x[2]) {
		t.Errorf("hebrew run should follow latin: gimel %v c %v", x[8], x[2])
	}
}

func TestTabStops(t *testing.T) {
	e := newEngine()
	style := texttest.Style()
	style.TabSize = 4
	l := e.Layout([]text.InlineContent{&text.StyledRun{Text: "a\tb", Style: style}}, text.Constraints{AvailableWidth: -1, WhiteSpace: text.WhiteSpacePre})
	if len(l.Items) != 3 {
		t.Fatalf("got %d items", len(l.Items))
	}
	if l.Items[1].Item.Kind != text.ItemTab || !near(l.Items[1].Item.Advance, 30) || !near(l.Items[2].Position.X, 40) {
		t.Errorf("tab = %+v, b at %v", l.Items[1].Item, l.Items[2].Position.X)
	}
}

func TestVerticalLayout(t *testing.T) {
	e := newEngine()
	l := e.Layout(para("aaaa bbbb"), text.Constraints{AvailableWidth: 50, WritingMode: text.VerticalRL})
	if len(l.Lines) != 2 {
		t.Fatalf("got %d lines", len(l.Lines))
	}
	if l.Bounds.Width != 32 || l.Bounds.Height != 50 {
		t.Errorf("bounds = %v, want 32x50", l.Bounds)
	}
	first, second := lineContent(l, 0)[0], lineContent(l, 1)[0]
	if !near(first.Position.X, 24) || !near(second.Position.X, 8) {
		t.Errorf("vertical-rl columns at %v and %v, want 24 and 8", first.Position.X, second.Position.X)
	}
	if !first.Vertical || !near(lineContent(l, 0)[1].Position.Y, 10) {
		t.Errorf("inline axis should run down: %+v", lineContent(l, 0)[1].Position)
	}
	l = e.Layout(para("aaaa bbbb"), text.Constraints{AvailableWidth: 50, WritingMode: text.VerticalLR})
	if !near(lineContent(l, 0)[0].Position.X, 8) {
		t.Errorf("vertical-lr first column at %v, want 8", lineContent(l, 0)[0].Position.X)
	}
}

func TestCombineUpright(t *testing.T) {
	e := newEngine()
	upright := texttest.Style()
	upright.CombineUpright = true
	content := []text.InlineContent{
		&text.StyledRun{Text: "あ", Style: texttest.Style()},
		&text.StyledRun{Text: "12", Style: upright},
	}
	shaped := e.Shape(content, text.Constraints{WritingMode: text.VerticalRL})
	if len(shaped.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(shaped.Items))
	}
	c := shaped.Items[1]
	if c.Kind != text.ItemCombined || !near(c.Advance, 16) || !near(c.Scale, 0.8) || len(c.Glyphs) != 2 {
		t.Errorf("combined = %+v", c)
	}
	shaped = e.Shape(content, text.Constraints{})
	if len(shaped.Items) != 3 {
		t.Errorf("horizontal text should not combine, got %d items", len(shaped.Items))
	}
}

func TestFloatAvoidance(t *testing.T) {
	e := newEngine()
	c := text.Constraints{
		AvailableWidth: 200,
		LineWidth: func(top, _ float64) (float64, float64) {
			if top < 16 {
				return 50, 100
			}
			return 0, 200
		},
	}
	l := e.Layout(para("aaaa bbbb cccc"), c)
	if len(l.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(l.Lines))
	}
	if !near(l.Items[0].Position.X, 50) || !near(lineContent(l, 1)[0].Position.X, 0) {
		t.Errorf("line offsets %v and %v, want 50 and 0", l.Items[0].Position.X, lineContent(l, 1)[0].Position.X)
	}
}

func TestInlineObjects(t *testing.T) {
	e := newEngine()
	content := []text.InlineContent{
		&text.StyledRun{Text: "ab", Style: texttest.Style()},
		&text.InlineImage{Src: "x.png", Size: geom.Size{Width: 30, Height: 40}},
		&text.StyledRun{Text: "cd", Style: texttest.Style()},
	}
	l := e.Layout(content, text.Constraints{AvailableWidth: 500})
	if len(l.Items) != 5 || l.Items[2].Item.Kind != text.ItemObject {
		t.Fatalf("items = %d", len(l.Items))
	}
	// the image sits on the baseline and makes the line 40 + 3.2 tall
	if !near(l.Lines[0].Height, 43.2) || !near(l.Items[3].Position.X, 50) {
		t.Errorf("line height %v, c at %v", l.Lines[0].Height, l.Items[3].Position.X)
	}
	if got := e.Intrinsic(content, text.Constraints{}); !near(got.MinContent, 30) {
		t.Errorf("objects are break opportunities: min-content %v, want 30", got.MinContent)
	}
}

func TestLayoutCache(t *testing.T) {
	cache := text.NewCache()
	e := text.NewEngine(texttest.FontSet(), cache, nil)
	c := text.Constraints{AvailableWidth: 100}
	a := e.Layout(para("hello world"), c)
	b := e.Layout(para("hello world"), c)
	if a != b {
		t.Error("second layout was not served from the cache")
	}
	if hits, misses := cache.Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits %d misses", hits, misses)
	}
	if e.Layout(para("hello world"), text.Constraints{AvailableWidth: 90}) == a {
		t.Error("different constraints hit the same entry")
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d", cache.Len())
	}
}
