package document

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"azul/pkg/diag"
	"azul/pkg/opentype"
	"azul/pkg/text"
)

// FontFile is one face to load. An empty Family uses the name stored in
// the font.
type FontFile struct {
	Family string
	Weight int
	Italic bool
	Data   []byte
	Index  int
}

// LoadFonts parses files with provider into a new font set. Files that fail
// to parse are reported as missing resources and skipped.
func LoadFonts(provider text.FontProvider, files []FontFile, sink *diag.Sink) *text.FontSet {
	set := text.NewFontSet()
	for i, f := range files {
		pf, err := provider.LoadFont(f.Data, f.Index)
		if err != nil {
			sink.Warnf("document", "%v: font %d (%q): %v", text.ErrResourceMissing, i, f.Family, err)
			continue
		}
		family := f.Family
		if named, ok := pf.(interface{ Family() string }); ok && family == "" {
			family = named.Family()
		}
		set.Add(family, f.Weight, f.Italic, pf)
	}
	return set
}

// GoFonts returns the Go font family registered as "go" and under the
// generic sans-serif and serif names, with Go Mono as monospace. Each face
// is parsed once and shared between its names.
func GoFonts(sink *diag.Sink) *text.FontSet {
	set := text.NewFontSet()
	faces := []FontFile{
		{Weight: 400, Data: goregular.TTF},
		{Weight: 700, Data: gobold.TTF},
		{Weight: 400, Italic: true, Data: goitalic.TTF},
		{Weight: 700, Italic: true, Data: gobolditalic.TTF},
	}
	for _, f := range faces {
		pf, err := opentype.Parse(f.Data, 0)
		if err != nil {
			sink.Warnf("document", "%v: go font: %v", text.ErrResourceMissing, err)
			continue
		}
		for _, family := range []string{"go", "sans-serif", "serif"} {
			set.Add(family, f.Weight, f.Italic, pf)
		}
	}
	if pf, err := opentype.Parse(gomono.TTF, 0); err == nil {
		set.Add("monospace", 400, false, pf)
	} else {
		sink.Warnf("document", "%v: go mono: %v", text.ErrResourceMissing, err)
	}
	return set
}
