// Package document ties the pipeline together: it resolves the styles of a
// parsed document, lays it out and builds its display list.
package document

import (
	"fmt"
	"strings"

	"azul/pkg/config"
	"azul/pkg/css"
	"azul/pkg/diag"
	"azul/pkg/displaylist"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/layout"
	"azul/pkg/text"
)

// maxFrameDepth bounds iframe nesting; deeper frames paint nothing.
const maxFrameDepth = 4

// Resources are the shared, mostly read-only inputs of a frame. They may
// be kept across frames.
type Resources struct {
	// Fonts is the font set every text run selects from. Nil renders all
	// text as .notdef.
	Fonts *text.FontSet
	// Images receives every image the document references. Nil disables
	// images.
	Images *images.Cache
	// Text caches intrinsic sizes and line layouts across frames.
	Text *text.Cache
	// Fetcher loads referenced images missing from Images.
	Fetcher Fetcher
	// Hyphenator serves hyphens:auto; soft hyphens work without it.
	Hyphenator text.Hyphenator
}

// Options are the per-frame settings.
type Options struct {
	System config.SystemStyle
	Sink   *diag.Sink
}

// LayoutDocument resolves, lays out and paints doc for a viewport. Missing
// fonts and images are reported to the sink and substituted; only a broken
// tree or a failed intrinsic-size query is returned as an error.
func LayoutDocument(doc *dom.Document, viewport geom.Size, res Resources, opts Options) (*displaylist.DisplayList, error) {
	if doc == nil || doc.Tree == nil {
		return nil, fmt.Errorf("document: %w", layout.ErrInvalidTree)
	}
	if opts.System.DefaultFontSize <= 0 {
		opts.System = config.Default()
	}
	return layoutDocument(doc, viewport, res, opts, 0)
}

func layoutDocument(doc *dom.Document, viewport geom.Size, res Resources, opts Options, depth int) (*displaylist.DisplayList, error) {
	r := css.NewResolver(opts.System, css.Size{Width: viewport.Width, Height: viewport.Height}, opts.Sink)
	for _, s := range doc.Stylesheets {
		r.AddStylesheet(s, css.OriginAuthor)
	}
	styles, err := r.Resolve(doc.Tree)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	if res.Images != nil {
		loadImages(styles, res.Images, res.Fetcher, opts.Sink)
	}

	var imgs layout.ImageSource
	if res.Images != nil {
		imgs = res.Images
	}
	engine := layout.NewEngine(viewport, layout.Options{
		Text:       text.NewEngine(res.Fonts, res.Text, opts.Sink),
		Images:     imgs,
		System:     opts.System,
		Hyphenator: res.Hyphenator,
		Sink:       opts.Sink,
	})
	p, err := engine.Layout(styles)
	if err != nil {
		return nil, err
	}

	var dlImages displaylist.ImageSource
	if res.Images != nil {
		dlImages = res.Images
	}
	return displaylist.Build(p, styles, displaylist.Options{
		Images: dlImages,
		Sink:   opts.Sink,
		Frames: func(n dom.NodeID, size geom.Size) *displaylist.DisplayList {
			return layoutFrame(doc.Tree.Node(n), size, res, opts, depth+1)
		},
	}), nil
}

// layoutFrame lays out the document hosted by an iframe: an attached tree,
// or the markup of its srcdoc attribute. Failures are reported and leave
// the frame empty.
func layoutFrame(n *dom.Node, size geom.Size, res Resources, opts Options, depth int) *displaylist.DisplayList {
	if depth > maxFrameDepth {
		opts.Sink.Warnf("document", "iframe nested deeper than %d levels is not painted", maxFrameDepth)
		return nil
	}
	var sub *dom.Document
	switch {
	case n.Frame != nil:
		sub = &dom.Document{Tree: n.Frame}
	case n.Attributes["srcdoc"] != "":
		d, err := dom.ParseHTMLString(n.Attributes["srcdoc"])
		if err != nil {
			opts.Sink.Warnf("document", "iframe srcdoc: %v", err)
			return nil
		}
		sub = d
	default:
		return nil
	}
	l, err := layoutDocument(sub, size, res, opts, depth)
	if err != nil {
		opts.Sink.Warnf("document", "iframe: %v", err)
		return nil
	}
	return l
}

// loadImages registers the images referenced by img elements and
// background-image layers that the cache does not hold yet. data: URIs
// decode in place; other references need a fetcher.
func loadImages(styles *css.PropertyCache, cache *images.Cache, f Fetcher, sink *diag.Sink) {
	tree := styles.Tree()
	var refs []string
	tree.Walk(func(id dom.NodeID) bool {
		n := tree.Node(id)
		if n.Type == dom.ImageNode && n.Image != "" {
			refs = append(refs, n.Image)
		}
		if v := styles.Value(id, dom.PseudoNormal, css.PropBackgroundImage); v.Kind == css.KindImages {
			for _, img := range v.Images {
				if img.Kind == css.ImageURL && img.URL != "" {
					refs = append(refs, img.URL)
				}
			}
		}
		return true
	})
	for _, ref := range refs {
		if _, ok := cache.Lookup(ref); ok {
			continue
		}
		var err error
		switch {
		case images.IsDataURI(ref):
			_, err = cache.AddDataURI(ref)
		case f == nil:
			continue
		default:
			var data []byte
			if data, err = f.Fetch(strings.TrimSpace(ref)); err == nil {
				_, err = cache.Add(ref, data)
			}
		}
		if err != nil {
			sink.Warnf("document", "%v: %v", text.ErrResourceMissing, err)
		}
	}
}
