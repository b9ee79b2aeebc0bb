// Package visualtest renders documents to images and compares them, for
// reference tests that check two pieces of markup paint the same pixels.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Result describes how two images differ.
type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	// MaxDifference is the largest channel difference found (0-255).
	MaxDifference int
	// Diff marks mismatching pixels red over a grayscale copy of the actual
	// image. It is only set when Options.Diff is true.
	Diff *image.RGBA
}

// Options configures a comparison.
type Options struct {
	// Tolerance is the largest per-channel difference (0-255) that still
	// counts as equal. Antialiased edges usually need 2-5.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel this many pixels
	// away. Useful for subpixel text shifts.
	FuzzyRadius int
	// MaxDifferentPercent passes the comparison when at most this share of
	// pixels differ.
	MaxDifferentPercent float64
	Diff                bool
}

// DefaultOptions tolerates small rasterization differences.
func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// Compare compares two images pixel by pixel. Images of different sizes
// never match and return an error.
func Compare(actual, expected image.Image, opts Options) (*Result, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return &Result{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", ab.Size(), eb.Size())
	}
	res := &Result{Match: true, TotalPixels: ab.Dx() * ab.Dy()}
	if opts.Diff {
		res.Diff = image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	}

	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			a := rgba8(actual.At(ab.Min.X+x, ab.Min.Y+y))
			d := channelDiff(a, rgba8(expected.At(eb.Min.X+x, eb.Min.Y+y)))
			res.MaxDifference = max(res.MaxDifference, d)
			ok := d <= opts.Tolerance || opts.FuzzyRadius > 0 && fuzzyMatch(a, expected, eb, x, y, opts.FuzzyRadius, opts.Tolerance)
			if !ok {
				res.Match = false
				res.DifferentPixels++
			}
			if res.Diff != nil {
				if ok {
					res.Diff.Set(x, y, color.RGBA{a[0], a[0], a[0], 255})
				} else {
					res.Diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				}
			}
		}
	}

	if !res.Match && opts.MaxDifferentPercent > 0 && res.TotalPixels > 0 {
		pct := float64(res.DifferentPixels) / float64(res.TotalPixels) * 100
		if pct <= opts.MaxDifferentPercent {
			res.Match = true
		}
	}
	return res, nil
}

// CompareFiles decodes two PNG files and compares them.
func CompareFiles(actualPath, expectedPath string, opts Options) (*Result, error) {
	actual, err := loadPNG(actualPath)
	if err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	expected, err := loadPNG(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

// fuzzyMatch reports whether a matches any expected pixel within radius of
// (x, y), in coordinates relative to the image origin.
func fuzzyMatch(a [4]uint8, expected image.Image, b image.Rectangle, x, y, radius, tolerance int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= b.Dx() || ny < 0 || ny >= b.Dy() {
				continue
			}
			if channelDiff(a, rgba8(expected.At(b.Min.X+nx, b.Min.Y+ny))) <= tolerance {
				return true
			}
		}
	}
	return false
}

func rgba8(c color.Color) [4]uint8 {
	r, g, b, a := c.RGBA()
	return [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func channelDiff(a, b [4]uint8) int {
	d := 0
	for i := range a {
		d = max(d, absInt(int(a[i])-int(b[i])))
	}
	return d
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// SavePNG writes img to path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
