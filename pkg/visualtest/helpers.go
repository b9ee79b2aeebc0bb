package visualtest

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"azul/pkg/diag"
	"azul/pkg/document"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/render"
	"azul/pkg/text"
)

var goFonts = sync.OnceValue(func() *text.FontSet { return document.GoFonts(nil) })

// Setup carries the optional inputs of a render.
type Setup struct {
	// Fetcher loads images the markup references by path.
	Fetcher document.Fetcher
	// Fonts defaults to the Go fonts.
	Fonts *text.FontSet
	Sink  *diag.Sink
}

// RenderHTML lays out markup for a width x height viewport and rasterizes
// it.
func RenderHTML(markup string, width, height int, s Setup) (image.Image, error) {
	doc, err := dom.ParseHTMLString(markup)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if s.Fonts == nil {
		s.Fonts = goFonts()
	}
	res := document.Resources{
		Fonts:   s.Fonts,
		Images:  images.NewCache(),
		Fetcher: s.Fetcher,
	}
	l, err := document.LayoutDocument(doc, geom.Size{Width: float64(width), Height: float64(height)}, res, document.Options{Sink: s.Sink})
	if err != nil {
		return nil, err
	}
	r := render.NewRenderer(width, height, res.Fonts, res.Images)
	r.Render(l)
	return r.Image(), nil
}

// RenderHTMLFile renders an HTML file to a PNG file. Relative image
// references resolve against the HTML file's directory.
func RenderHTMLFile(htmlPath, outputPath string, width, height int) error {
	markup, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to read HTML file: %w", err)
	}
	img, err := RenderHTML(string(markup), width, height, Setup{
		Fetcher: document.NewDirFetcher(os.DirFS(filepath.Dir(htmlPath))),
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return SavePNG(img, outputPath)
}
