// Command azul renders an HTML file or URL to a PNG image.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"azul/pkg/config"
	"azul/pkg/diag"
	"azul/pkg/document"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/opentype"
	"azul/pkg/render"
	"azul/pkg/text"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("azul", flag.ContinueOnError)
	fs.SetOutput(stderr)
	width := fs.Int("w", 800, "viewport width in pixels")
	height := fs.Int("h", 600, "viewport height in pixels")
	output := fs.String("o", "output.png", "output PNG file path")
	configPath := fs.String("config", "", "TOML system style file")
	verbose := fs.Bool("v", false, "log diagnostics to stderr")
	var fontFiles []string
	fs.Func("font", "extra font file, may be repeated", func(s string) error {
		fontFiles = append(fontFiles, s)
		return nil
	})
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: azul [flags] <input.html | url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one input, got %d", fs.NArg())
	}
	if *width <= 0 || *height <= 0 {
		return fmt.Errorf("viewport %dx%d is empty", *width, *height)
	}
	if *verbose {
		diag.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer diag.SetLogger(nil)
	}

	system := config.Default()
	if *configPath != "" {
		s, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		system = s
	}

	input := fs.Arg(0)
	markup, fetcher, err := open(input)
	if err != nil {
		return err
	}
	doc, err := dom.ParseHTMLString(string(markup))
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}

	sink := &diag.Sink{}
	res := document.Resources{
		Fonts:   loadFonts(fontFiles, sink),
		Images:  images.NewCache(),
		Text:    text.NewCache(),
		Fetcher: fetcher,
	}
	l, err := document.LayoutDocument(doc, geom.Size{Width: float64(*width), Height: float64(*height)}, res, document.Options{System: system, Sink: sink})
	if err != nil {
		return err
	}

	r := render.NewRenderer(*width, *height, res.Fonts, res.Images)
	r.Render(l)
	if err := r.SavePNG(*output); err != nil {
		return fmt.Errorf("save %s: %w", *output, err)
	}
	fmt.Fprintf(stderr, "Rendered %s to %s (%d items, %d diagnostics)\n", input, *output, l.Len(), sink.Len())
	return nil
}

// open reads the input document and returns a fetcher for the resources it
// references, rooted next to the document.
func open(input string) ([]byte, document.Fetcher, error) {
	if isNetworkURL(input) {
		body, _, err := fetch(input)
		if err != nil {
			return nil, nil, err
		}
		return body, &httpFetcher{base: input}, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", input, err)
	}
	return data, document.NewDirFetcher(os.DirFS(filepath.Dir(input))), nil
}

// loadFonts returns the Go fonts plus any extra files. Extra faces use the
// family stored in the font.
func loadFonts(files []string, sink *diag.Sink) *text.FontSet {
	set := document.GoFonts(sink)
	if len(files) == 0 {
		return set
	}
	var extra []document.FontFile
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			sink.Warnf("azul", "%v: %v", text.ErrResourceMissing, err)
			continue
		}
		f := document.FontFile{Data: data}
		lower := strings.ToLower(filepath.Base(name))
		if strings.Contains(lower, "bold") {
			f.Weight = 700
		}
		f.Italic = strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
		extra = append(extra, f)
	}
	more := document.LoadFonts(opentype.Provider{}, extra, sink)
	for i := 0; i < more.Len(); i++ {
		face, _ := more.Face(text.FontRef(i))
		set.Add(face.Family, face.Weight, face.Italic, face.Font)
	}
	return set
}
