package visualtest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompare(t *testing.T) {
	red := solid(10, 10, color.RGBA{255, 0, 0, 255})
	gray := solid(10, 10, color.RGBA{100, 100, 100, 255})
	grayish := solid(10, 10, color.RGBA{102, 102, 102, 255})
	oneOff := solid(10, 10, color.RGBA{255, 0, 0, 255})
	oneOff.Set(4, 4, color.RGBA{0, 0, 255, 255})

	tests := []struct {
		name      string
		a, b      image.Image
		opts      Options
		match     bool
		different int
	}{
		{"identical", red, red, DefaultOptions(), true, 0},
		{"different", red, gray, DefaultOptions(), false, 100},
		{"within tolerance", gray, grayish, Options{Tolerance: 2}, true, 0},
		{"outside tolerance", gray, grayish, Options{Tolerance: 0}, false, 100},
		{"one pixel", oneOff, red, DefaultOptions(), false, 1},
		{"one pixel allowed", oneOff, red, Options{MaxDifferentPercent: 1}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compare(tt.a, tt.b, tt.opts)
			if err != nil {
				t.Fatalf("Compare: %v", err)
			}
			if res.Match != tt.match || res.DifferentPixels != tt.different {
				t.Errorf("match = %v with %d different, want %v with %d", res.Match, res.DifferentPixels, tt.match, tt.different)
			}
			if res.TotalPixels != 100 {
				t.Errorf("total = %d", res.TotalPixels)
			}
		})
	}
}

func TestCompareFuzzy(t *testing.T) {
	a := solid(10, 10, color.White)
	b := solid(10, 10, color.White)
	a.Set(3, 3, color.Black)
	b.Set(4, 4, color.Black)
	if res, _ := Compare(a, b, Options{}); res.Match {
		t.Error("shifted pixel matched without a fuzzy radius")
	}
	if res, _ := Compare(a, b, Options{FuzzyRadius: 1}); !res.Match {
		t.Errorf("shifted pixel should match within radius 1 (%d different)", res.DifferentPixels)
	}
}

func TestCompareDiff(t *testing.T) {
	a := solid(4, 4, color.White)
	b := solid(4, 4, color.White)
	a.Set(1, 2, color.Black)
	res, err := Compare(a, b, Options{Diff: true})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got := res.Diff.RGBAAt(1, 2); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("diff at mismatch = %v, want red", got)
	}
	if got := res.Diff.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("diff at match = %v, want the actual pixel in gray", got)
	}
	if res, _ := Compare(a, b, Options{}); res.Diff != nil {
		t.Error("diff built without being asked for")
	}
}

func TestCompareDifferentDimensions(t *testing.T) {
	res, err := Compare(solid(10, 10, color.White), solid(20, 20, color.White), DefaultOptions())
	if err == nil {
		t.Error("expected error for different dimensions")
	}
	if res != nil && res.Match {
		t.Error("images with different dimensions matched")
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	p1, p2 := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	if err := SavePNG(solid(5, 5, color.White), p1); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if err := SavePNG(solid(5, 5, color.White), p2); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	res, err := CompareFiles(p1, p2, DefaultOptions())
	if err != nil || !res.Match {
		t.Errorf("CompareFiles = %+v, %v", res, err)
	}
	if _, err := CompareFiles(p1, filepath.Join(dir, "missing.png"), DefaultOptions()); err == nil {
		t.Error("missing file should fail")
	}
}

func TestRenderHTMLFile(t *testing.T) {
	dir := t.TempDir()
	var pic bytes.Buffer
	if err := png.Encode(&pic, solid(20, 20, color.RGBA{0, 255, 0, 255})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pic.png"), pic.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	page := `<body><img src="pic.png" style="display:block"></body>`
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(page), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "page.png")
	if err := RenderHTMLFile(filepath.Join(dir, "page.html"), out, 100, 60); err != nil {
		t.Fatalf("RenderHTMLFile: %v", err)
	}
	img, err := loadPNG(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := rgba8(img.At(10, 10)); got != [4]uint8{0, 255, 0, 255} {
		t.Errorf("image pixel = %v, want green", got)
	}
	if got := rgba8(img.At(50, 10)); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("page pixel = %v, want white", got)
	}
}
