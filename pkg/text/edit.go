package text

import (
	"sort"
	"strings"

	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/norm"
)

// Affinity says which side of a cluster boundary a cursor sticks to when
// the boundary is also a line break.
type Affinity int

const (
	Leading Affinity = iota
	Trailing
)

// Cursor addresses a grapheme cluster boundary: a byte offset inside one
// styled run.
type Cursor struct {
	Run      int
	Byte     int
	Affinity Affinity
}

func (c Cursor) less(o Cursor) bool {
	if c.Run != o.Run {
		return c.Run < o.Run
	}
	return c.Byte < o.Byte
}

// Selection is a collapsed cursor when Start == End, a range otherwise.
type Selection struct {
	Start Cursor
	End   Cursor
}

// Caret returns a collapsed selection at c.
func Caret(c Cursor) Selection { return Selection{Start: c, End: c} }

// Collapsed reports whether the selection is a plain cursor.
func (s Selection) Collapsed() bool {
	return s.Start.Run == s.End.Run && s.Start.Byte == s.End.Byte
}

func (s Selection) ordered() Selection {
	if s.End.less(s.Start) {
		s.Start, s.End = s.End, s.Start
	}
	return s
}

// EditKind discriminates TextEdit.
type EditKind int

const (
	EditInsert EditKind = iota
	EditDeleteBackward
	EditDeleteForward
)

// TextEdit is one editing command applied at every selection.
type TextEdit struct {
	Kind EditKind
	Text string // for EditInsert
}

// Range is the span of text an edit removes.
type Range struct {
	Start Cursor
	End   Cursor
}

// adjustFunc maps a cursor position from before an edit to after it.
type adjustFunc func(Cursor) Cursor

// EditText applies edit at every selection and returns the new runs and the
// collapsed selections after the edit, in input order. The input runs are
// not modified. Selections are processed in reverse document order so that
// an edit never invalidates a selection still to be processed; selections
// already processed are adjusted for every later edit.
func EditText(runs []StyledRun, sels []Selection, edit TextEdit) ([]StyledRun, []Selection) {
	out := make([]StyledRun, len(runs))
	copy(out, runs)
	order := make([]int, len(sels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sels[order[b]].ordered().Start.less(sels[order[a]].ordered().Start)
	})

	result := make([]Selection, len(sels))
	done := make([]bool, len(sels))
	for _, idx := range order {
		sel := clampSelection(out, sels[idx].ordered())
		var cur Cursor
		var adjust adjustFunc
		out, cur, adjust = applyEdit(out, sel, edit)
		for j := range result {
			if done[j] {
				c := adjust(result[j].Start)
				result[j] = Caret(c)
			}
		}
		result[idx], done[idx] = Caret(cur), true
	}
	return out, result
}

// clampSelection moves both ends of s into range and back onto the
// grapheme boundary at or before them.
func clampSelection(runs []StyledRun, s Selection) Selection {
	clamp := func(c Cursor) Cursor {
		if len(runs) == 0 {
			return Cursor{Affinity: c.Affinity}
		}
		c.Run = min(max(c.Run, 0), len(runs)-1)
		t := runs[c.Run].Text
		c.Byte = min(max(c.Byte, 0), len(t))
		if c.Byte > 0 && c.Byte < len(t) {
			c.Byte = prevBoundary(t, c.Byte+1)
		}
		return c
	}
	return Selection{Start: clamp(s.Start), End: clamp(s.End)}
}

func identity(c Cursor) Cursor { return c }

func applyEdit(runs []StyledRun, sel Selection, edit TextEdit) ([]StyledRun, Cursor, adjustFunc) {
	if len(runs) == 0 {
		return runs, sel.Start, identity
	}
	adjust := adjustFunc(identity)
	at := sel.Start
	if !sel.Collapsed() {
		runs, at, adjust = deleteRange(runs, sel.Start, sel.End)
		if edit.Kind != EditInsert {
			return runs, at, adjust
		}
	}
	var cur Cursor
	var next adjustFunc
	switch edit.Kind {
	case EditInsert:
		runs, cur, next = insertText(runs, at, edit.Text)
	case EditDeleteBackward:
		runs, cur, next = deleteBackward(runs, at)
	case EditDeleteForward:
		runs, cur, next = deleteForward(runs, at)
	default:
		return runs, at, adjust
	}
	return runs, cur, func(c Cursor) Cursor { return next(adjust(c)) }
}

func insertText(runs []StyledRun, at Cursor, s string) ([]StyledRun, Cursor, adjustFunc) {
	s = norm.NFC.String(s)
	if s == "" {
		return runs, at, identity
	}
	t := runs[at.Run].Text
	runs[at.Run].Text = t[:at.Byte] + s + t[at.Byte:]
	n := len(s)
	cur := Cursor{Run: at.Run, Byte: at.Byte + n, Affinity: Leading}
	return runs, cur, func(c Cursor) Cursor {
		if c.Run == at.Run && c.Byte >= at.Byte {
			c.Byte += n
		}
		return c
	}
}

// deleteRange removes [a, b). Runs strictly inside the range are emptied
// rather than removed so run indices stay stable.
func deleteRange(runs []StyledRun, a, b Cursor) ([]StyledRun, Cursor, adjustFunc) {
	if a.Run == b.Run {
		t := runs[a.Run].Text
		runs[a.Run].Text = t[:a.Byte] + t[b.Byte:]
		n := b.Byte - a.Byte
		return runs, a, func(c Cursor) Cursor {
			switch {
			case c.Run != a.Run || c.Byte <= a.Byte:
			case c.Byte < b.Byte:
				c.Byte = a.Byte
			default:
				c.Byte -= n
			}
			return c
		}
	}
	runs[a.Run].Text = runs[a.Run].Text[:a.Byte]
	for r := a.Run + 1; r < b.Run; r++ {
		runs[r].Text = ""
	}
	runs[b.Run].Text = runs[b.Run].Text[b.Byte:]
	return runs, a, func(c Cursor) Cursor {
		switch {
		case c.less(a) || c.Run > b.Run:
		case c.Run == b.Run && c.Byte >= b.Byte:
			c.Byte -= b.Byte
		default:
			c.Run, c.Byte = a.Run, a.Byte
		}
		return c
	}
}

// mergeRuns appends run r to run r-1, keeping the first run's style.
func mergeRuns(runs []StyledRun, r int) ([]StyledRun, Cursor, adjustFunc) {
	prevLen := len(runs[r-1].Text)
	runs[r-1].Text += runs[r].Text
	runs = append(runs[:r], runs[r+1:]...)
	cur := Cursor{Run: r - 1, Byte: prevLen}
	return runs, cur, func(c Cursor) Cursor {
		switch {
		case c.Run == r:
			c.Run, c.Byte = r-1, c.Byte+prevLen
		case c.Run > r:
			c.Run--
		}
		return c
	}
}

func deleteBackward(runs []StyledRun, at Cursor) ([]StyledRun, Cursor, adjustFunc) {
	if at.Byte == 0 {
		if at.Run == 0 {
			return runs, at, identity
		}
		return mergeRuns(runs, at.Run)
	}
	prev := prevBoundary(runs[at.Run].Text, at.Byte)
	return deleteRange(runs, Cursor{Run: at.Run, Byte: prev}, at)
}

func deleteForward(runs []StyledRun, at Cursor) ([]StyledRun, Cursor, adjustFunc) {
	t := runs[at.Run].Text
	if at.Byte >= len(t) {
		if at.Run+1 >= len(runs) {
			return runs, at, identity
		}
		return mergeRuns(runs, at.Run+1)
	}
	next := nextBoundary(t, at.Byte)
	return deleteRange(runs, at, Cursor{Run: at.Run, Byte: next})
}

// graphemeBoundaries returns the byte offsets of every grapheme cluster
// boundary in s, including 0 and len(s).
func graphemeBoundaries(s string) []int {
	out := []int{0}
	if s == "" {
		return out
	}
	var runes []rune
	var byteAt []int
	for i, r := range s {
		runes = append(runes, r)
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(s))
	var seg segmenter.Segmenter
	seg.Init(runes)
	it := seg.GraphemeIterator()
	for it.Next() {
		g := it.Grapheme()
		if end := g.Offset + len(g.Text); end > 0 {
			out = append(out, byteAt[end])
		}
	}
	if out[len(out)-1] != len(s) {
		out = append(out, len(s))
	}
	return out
}

func prevBoundary(s string, b int) int {
	prev := 0
	for _, x := range graphemeBoundaries(s) {
		if x >= b {
			break
		}
		prev = x
	}
	return prev
}

func nextBoundary(s string, b int) int {
	for _, x := range graphemeBoundaries(s) {
		if x > b {
			return x
		}
	}
	return len(s)
}

// InspectDelete reports the range and text a delete at sel would remove
// without applying it. ok is false when the delete would remove no text:
// at the document edges, or at a run boundary where it only merges runs.
func InspectDelete(runs []StyledRun, sel Selection, forward bool) (Range, string, bool) {
	if len(runs) == 0 {
		return Range{}, "", false
	}
	sel = clampSelection(runs, sel.ordered())
	if !sel.Collapsed() {
		a, b := sel.Start, sel.End
		if a.Run == b.Run {
			return Range{a, b}, runs[a.Run].Text[a.Byte:b.Byte], true
		}
		var sb strings.Builder
		sb.WriteString(runs[a.Run].Text[a.Byte:])
		for r := a.Run + 1; r < b.Run; r++ {
			sb.WriteString(runs[r].Text)
		}
		sb.WriteString(runs[b.Run].Text[:b.Byte])
		return Range{a, b}, sb.String(), true
	}
	at := sel.Start
	t := runs[at.Run].Text
	if forward {
		if at.Byte >= len(t) {
			return Range{}, "", false
		}
		end := nextBoundary(t, at.Byte)
		return Range{at, Cursor{Run: at.Run, Byte: end}}, t[at.Byte:end], true
	}
	if at.Byte == 0 {
		return Range{}, "", false
	}
	start := prevBoundary(t, at.Byte)
	return Range{Cursor{Run: at.Run, Byte: start}, at}, t[start:at.Byte], true
}
