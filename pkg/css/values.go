package css

import (
	"strconv"
	"strings"
)

// Unit is the unit of a CSS length.
type Unit uint8

const (
	UnitNone Unit = iota // bare number
	UnitPx
	UnitPt
	UnitPc
	UnitIn
	UnitCm
	UnitMm
	UnitEm
	UnitRem
	UnitPercent
	UnitVw
	UnitVh
	UnitVmin
	UnitVmax
)

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	// longest suffixes first so "rem" is not read as "em"
	{"vmin", UnitVmin},
	{"vmax", UnitVmax},
	{"rem", UnitRem},
	{"px", UnitPx},
	{"pt", UnitPt},
	{"pc", UnitPc},
	{"in", UnitIn},
	{"cm", UnitCm},
	{"mm", UnitMm},
	{"em", UnitEm},
	{"vw", UnitVw},
	{"vh", UnitVh},
	{"%", UnitPercent},
}

// Length is a number with a unit.
type Length struct {
	Value float64
	Unit  Unit
}

// IsAbsolute reports whether the length converts to pixels without context.
func (l Length) IsAbsolute() bool {
	switch l.Unit {
	case UnitPx, UnitPt, UnitPc, UnitIn, UnitCm, UnitMm:
		return true
	case UnitNone:
		return l.Value == 0
	}
	return false
}

// Px converts an absolute length to pixels (96 px per inch). Relative
// lengths return their raw value.
func (l Length) Px() float64 {
	switch l.Unit {
	case UnitPt:
		return l.Value * 96 / 72
	case UnitPc:
		return l.Value * 16
	case UnitIn:
		return l.Value * 96
	case UnitCm:
		return l.Value * 96 / 2.54
	case UnitMm:
		return l.Value * 96 / 25.4
	}
	return l.Value
}

// ParseLength parses "12px", "1.5em", "50%" or a bare "0".
func ParseLength(s string) (Length, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Length{}, false
	}
	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			num, err := strconv.ParseFloat(s[:len(s)-len(u.suffix)], 64)
			if err != nil {
				return Length{}, false
			}
			return Length{Value: num, Unit: u.unit}, true
		}
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: num, Unit: UnitNone}, true
}

// ParseNumber parses a bare number.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// ValueKind discriminates Value.
type ValueKind uint8

const (
	KindKeyword ValueKind = iota
	KindLength            // resolved pixels in Number
	KindNumber
	KindColor
	KindImages
	KindList
)

// Value is a concrete computed or resolved value.
type Value struct {
	Kind    ValueKind
	Keyword string
	Number  float64
	Color   Color
	Images  []Image
	List    []string
}

// Px builds a pixel length value.
func Px(v float64) Value { return Value{Kind: KindLength, Number: v} }

// Keyword builds a keyword value.
func Keyword(k string) Value { return Value{Kind: KindKeyword, Keyword: k} }

// Number builds a bare number value.
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// ColorValue builds a color value.
func ColorValue(c Color) Value { return Value{Kind: KindColor, Color: c} }

// Is reports whether v is the keyword k.
func (v Value) Is(k string) bool { return v.Kind == KindKeyword && v.Keyword == k }

// IsAuto reports whether v is the `auto` keyword.
func (v Value) IsAuto() bool { return v.Is("auto") }

// PxOr returns the pixel value, or def when v is not a length.
func (v Value) PxOr(def float64) float64 {
	if v.Kind == KindLength || v.Kind == KindNumber {
		return v.Number
	}
	return def
}

func (v Value) String() string {
	switch v.Kind {
	case KindLength:
		return strconv.FormatFloat(v.Number, 'g', -1, 64) + "px"
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindColor:
		return v.Color.String()
	case KindList:
		return strings.Join(v.List, ", ")
	case KindImages:
		return "images(" + strconv.Itoa(len(v.Images)) + ")"
	}
	return v.Keyword
}
