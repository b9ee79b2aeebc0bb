package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"azul/pkg/css"
	"azul/pkg/displaylist"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/opentype"
	"azul/pkg/text"
)

var (
	red   = css.Color{R: 255, A: 1}
	blue  = css.Color{B: 255, A: 1}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func paint(t *testing.T, w, h int, items ...displaylist.Item) image.Image {
	t.Helper()
	r := NewRenderer(w, h, nil, nil)
	r.Render(&displaylist.DisplayList{Items: items})
	return r.Image()
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func near(a, b color.NRGBA, tol int) bool {
	d := func(x, y uint8) bool { return abs(int(x)-int(y)) <= tol }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type sample struct {
	x, y int
	want color.NRGBA
}

func check(t *testing.T, img image.Image, samples []sample) {
	t.Helper()
	for _, p := range samples {
		if got := pixel(img, p.x, p.y); !near(got, p.want, 3) {
			t.Errorf("pixel (%d,%d) = %v, want %v", p.x, p.y, got, p.want)
		}
	}
}

func TestEmptyListIsWhite(t *testing.T) {
	r := NewRenderer(8, 8, nil, nil)
	r.Render(nil)
	check(t, r.Image(), []sample{{0, 0, white}, {7, 7, white}})
}

func TestRects(t *testing.T) {
	img := paint(t, 60, 60,
		displaylist.Rect{Bounds: geom.R(10, 10, 20, 20), Color: red},
		displaylist.Rect{Bounds: geom.R(20, 20, 20, 20), Color: css.Color{B: 255, A: 0.5}},
		displaylist.Rect{Bounds: geom.R(0, 40, 20, 20), Color: blue, Radii: geom.Radii{10, 10, 10, 10}},
	)
	check(t, img, []sample{
		{15, 15, nrgba(red)},
		{35, 35, color.NRGBA{R: 127, G: 127, B: 255, A: 255}},
		{25, 25, color.NRGBA{R: 127, B: 128, A: 255}},
		{10, 50, nrgba(blue)},
		{1, 41, white},
		{45, 5, white},
	})
}

func TestClipStack(t *testing.T) {
	img := paint(t, 40, 40,
		displaylist.PushClip{Rect: geom.R(0, 0, 30, 30)},
		displaylist.PushClip{Rect: geom.R(10, 10, 30, 30)},
		displaylist.Rect{Bounds: geom.R(0, 0, 40, 40), Color: red},
		displaylist.PopClip{},
		displaylist.Rect{Bounds: geom.R(0, 0, 40, 5), Color: blue},
		displaylist.PopClip{},
		displaylist.Rect{Bounds: geom.R(0, 35, 40, 5), Color: blue},
	)
	check(t, img, []sample{
		{5, 20, white},
		{20, 20, nrgba(red)},
		{35, 20, white},
		{20, 2, nrgba(blue)},
		{35, 2, white},
		{35, 37, nrgba(blue)},
	})
}

func TestRoundedClip(t *testing.T) {
	img := paint(t, 40, 40,
		displaylist.PushClip{Rect: geom.R(0, 0, 40, 40), Radii: geom.Radii{20, 20, 20, 20}},
		displaylist.Rect{Bounds: geom.R(0, 0, 40, 40), Color: red},
		displaylist.PopClip{},
	)
	check(t, img, []sample{{1, 1, white}, {38, 38, white}, {20, 20, nrgba(red)}, {20, 1, nrgba(red)}})
}

func TestBorder(t *testing.T) {
	img := paint(t, 60, 60, displaylist.Border{
		Bounds: geom.R(10, 10, 40, 40),
		Widths: [4]float64{6, 6, 6, 6},
		Colors: [4]css.Color{red, red, blue, blue},
		Styles: [4]string{"solid", "solid", "solid", "none"},
	})
	check(t, img, []sample{
		{30, 12, nrgba(red)},
		{47, 30, nrgba(red)},
		{30, 47, nrgba(blue)},
		{12, 30, white},
		{30, 30, white},
	})
}

func TestDoubleBorder(t *testing.T) {
	img := paint(t, 60, 60, displaylist.Border{
		Bounds: geom.R(0, 0, 60, 60),
		Widths: [4]float64{9, 9, 9, 9},
		Colors: [4]css.Color{red, red, red, red},
		Styles: [4]string{"double", "double", "double", "double"},
	})
	check(t, img, []sample{{30, 1, nrgba(red)}, {30, 4, white}, {30, 7, nrgba(red)}, {30, 30, white}})
}

func TestGradients(t *testing.T) {
	stops := []displaylist.Stop{{Offset: 0, Color: red}, {Offset: 1, Color: blue}}
	img := paint(t, 100, 30,
		displaylist.LinearGradient{Bounds: geom.R(0, 0, 100, 10), Start: geom.Point{X: 0, Y: 5}, End: geom.Point{X: 100, Y: 5}, Stops: stops},
		displaylist.RadialGradient{Bounds: geom.R(0, 10, 100, 20), Center: geom.Point{X: 50, Y: 20}, Radius: geom.Size{Width: 40, Height: 10}, Stops: stops},
	)
	if got := pixel(img, 0, 5); !near(got, nrgba(red), 3) {
		t.Errorf("linear start = %v, want red", got)
	}
	if got := pixel(img, 99, 5); got.R > 10 || got.B < 245 {
		t.Errorf("linear end = %v, want blue", got)
	}
	if got := pixel(img, 50, 5); got.R < 100 || got.B < 100 {
		t.Errorf("linear middle = %v, want a blend", got)
	}
	if got := pixel(img, 50, 20); got.R < 230 {
		t.Errorf("radial centre = %v, want red", got)
	}
	if got := pixel(img, 95, 20); !near(got, nrgba(blue), 3) {
		t.Errorf("outside the ellipse = %v, want blue", got)
	}
}

func TestColorAt(t *testing.T) {
	stops := []displaylist.Stop{{Offset: 0.2, Color: red}, {Offset: 0.4, Color: blue}}
	tests := []struct {
		t         float64
		repeating bool
		want      color.NRGBA
	}{
		{0, false, nrgba(red)},
		{0.3, false, color.NRGBA{R: 128, B: 128, A: 255}},
		{0.9, false, nrgba(blue)},
		{0.5, true, color.NRGBA{R: 128, B: 128, A: 255}},
		{0.1, true, color.NRGBA{R: 128, B: 128, A: 255}},
		{0.65, true, color.NRGBA{R: 191, B: 64, A: 255}},
	}
	for _, tt := range tests {
		if got := colorAt(stops, tt.t, tt.repeating); !near(got, tt.want, 1) {
			t.Errorf("colorAt(%v, repeating=%v) = %v, want %v", tt.t, tt.repeating, got, tt.want)
		}
	}
	hard := []displaylist.Stop{{Offset: 0, Color: red}, {Offset: 0.5, Color: red}, {Offset: 0.5, Color: blue}, {Offset: 1, Color: blue}}
	if got := colorAt(hard, 0.5, false); got != nrgba(blue) {
		t.Errorf("hard stop = %v, want blue", got)
	}
}

func TestConicGradient(t *testing.T) {
	stops := []displaylist.Stop{{Offset: 0, Color: red}, {Offset: 0.5, Color: red}, {Offset: 0.5, Color: blue}, {Offset: 1, Color: blue}}
	img := paint(t, 40, 40, displaylist.ConicGradient{Bounds: geom.R(0, 0, 40, 40), Center: geom.Point{X: 20, Y: 20}, Stops: stops})
	// the first half turn sweeps the right side
	check(t, img, []sample{{35, 20, nrgba(red)}, {5, 20, nrgba(blue)}})
}

func pngData(t *testing.T, c color.Color) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestImages(t *testing.T) {
	cache := images.NewCache()
	info, err := cache.Add("green.png", pngData(t, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := NewRenderer(60, 30, nil, cache)
	r.Render(&displaylist.DisplayList{Items: []displaylist.Item{
		displaylist.Image{Bounds: geom.R(0, 0, 20, 20), Key: info.Key},
		displaylist.Image{Bounds: geom.R(30, 0, 20, 20), Key: images.NullImage},
	}})
	img := r.Image()
	check(t, img, []sample{
		{10, 10, color.NRGBA{G: 255, A: 255}},
		{25, 10, white},
		{40, 3, color.NRGBA{R: 230, G: 230, B: 230, A: 255}},
		{40, 10, color.NRGBA{R: 128, G: 128, B: 128, A: 255}},
	})
}

func TestText(t *testing.T) {
	f, err := opentype.Parse(goregular.TTF, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fonts := text.NewFontSet()
	ref := fonts.Add("go", 400, false, f)
	h, _ := f.GlyphIndex('H')

	r := NewRenderer(100, 100, fonts, nil)
	r.Render(&displaylist.DisplayList{Items: []displaylist.Item{
		displaylist.TextRun{Glyphs: []displaylist.Glyph{{ID: h, Origin: geom.Point{X: 10, Y: 40}}}, Font: ref, Size: 32, Color: red},
		displaylist.TextRun{Glyphs: []displaylist.Glyph{{ID: h, Origin: geom.Point{X: 60, Y: 60}}}, Font: ref, Size: 32, Color: blue, Sideways: true},
		displaylist.TextRun{Glyphs: []displaylist.Glyph{{ID: h, Origin: geom.Point{X: 10, Y: 90}}}, Font: ref + 1, Size: 32, Color: red},
	}})
	img := r.Image()

	count := func(x0, y0, x1, y1 int, want color.NRGBA) int {
		n := 0
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if near(pixel(img, x, y), want, 8) {
					n++
				}
			}
		}
		return n
	}
	if n := count(10, 10, 40, 40, nrgba(red)); n < 50 {
		t.Errorf("upright glyph painted %d red pixels above its baseline", n)
	}
	if n := count(0, 40, 100, 100, nrgba(red)); n != 0 {
		t.Errorf("%d red pixels below the baseline or from an unknown font", n)
	}
	// rotated clockwise, the glyph hangs to the right of its origin
	if n := count(60, 60, 90, 90, nrgba(blue)); n < 50 {
		t.Errorf("sideways glyph painted %d blue pixels right of its origin", n)
	}
	if n := count(0, 0, 60, 100, nrgba(blue)); n != 0 {
		t.Errorf("%d blue pixels left of the sideways origin", n)
	}
}

func TestEncodePNG(t *testing.T) {
	r := NewRenderer(4, 3, nil, nil)
	r.Render(&displaylist.DisplayList{Items: []displaylist.Item{displaylist.Rect{Bounds: geom.R(0, 0, 4, 3), Color: red}}})
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	check(t, img, []sample{{2, 1, nrgba(red)}})
}
