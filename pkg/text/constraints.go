package text

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	textlang "golang.org/x/text/language"

	"azul/pkg/diag"
)

// TextAlign is the inline-axis alignment of line boxes.
type TextAlign int

const (
	AlignStart TextAlign = iota
	AlignEnd
	AlignLeft
	AlignRight
	AlignCenter
	AlignJustify
	AlignJustifyAll
)

// JustifyMode selects where justification surplus goes.
type JustifyMode int

const (
	JustifyAuto JustifyMode = iota
	JustifyNone
	JustifyInterWord
	JustifyInterCharacter
)

// WritingMode is the block flow direction of the paragraph.
type WritingMode int

const (
	HorizontalTB WritingMode = iota
	VerticalRL
	VerticalLR
)

// Direction is the paragraph base direction.
type Direction int

const (
	LTR Direction = iota
	RTL
)

// WhiteSpace mirrors the CSS white-space property.
type WhiteSpace int

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNoWrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// BreakStrategy selects the line breaking algorithm.
type BreakStrategy int

const (
	BreakOptimal BreakStrategy = iota // Knuth-Plass
	BreakGreedy
)

// LineWidthFunc reports the inline offset and available width for a line box
// whose block-axis extent is [top, top+height). Layout uses it to flow text
// around floats.
type LineWidthFunc func(top, height float64) (offset, width float64)

// Constraints parameterize one inline layout.
type Constraints struct {
	// AvailableWidth is the inline-axis size of the column. Negative means
	// unbounded: only forced breaks end lines.
	AvailableWidth float64
	// LineHeight is the used line-height in pixels; zero means the font's
	// ascent + descent + line gap.
	LineHeight  float64
	TextAlign   TextAlign
	Justify     JustifyMode
	WritingMode WritingMode
	Direction   Direction
	Language    string
	Hyphenator  Hyphenator
	WhiteSpace  WhiteSpace
	Strategy    BreakStrategy
	LineWidth   LineWidthFunc
}

func (c Constraints) unbounded() bool { return c.AvailableWidth < 0 }

func (c Constraints) wraps() bool {
	return c.WhiteSpace != WhiteSpaceNoWrap && c.WhiteSpace != WhiteSpacePre
}

// hash keys the layout cache. Constraints carrying a LineWidth callback are
// not cacheable.
func (c Constraints) hash() (uint64, bool) {
	if c.LineWidth != nil {
		return 0, false
	}
	h := fnv.New64a()
	var buf [8]byte
	for _, f := range []float64{c.AvailableWidth, c.LineHeight} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	h.Write([]byte{byte(c.TextAlign), byte(c.Justify), byte(c.WritingMode), byte(c.Direction), byte(c.WhiteSpace), byte(c.Strategy)})
	h.Write([]byte(c.Language))
	if c.Hyphenator != nil {
		h.Write([]byte(fmt.Sprintf("%T", c.Hyphenator)))
	}
	return h.Sum64(), true
}

// canonicalLanguage normalizes a BCP 47 tag. Malformed tags fall back to
// "und" with a diagnostic.
func canonicalLanguage(tag string, sink *diag.Sink) string {
	if tag == "" {
		return "und"
	}
	t, err := textlang.Parse(tag)
	if err != nil {
		sink.Debugf("text", "ignoring language %q: %v", tag, err)
		return "und"
	}
	return t.String()
}
