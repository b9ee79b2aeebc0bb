package css

import (
	"strings"
)

// specified is a parsed declaration value whose node references are not
// yet known.
type specified struct {
	global       string // inherit, initial or unset
	value        Value
	expr         *lengthExpr
	currentColor bool
	fontKeyword  float64 // font-size keyword scale against the default size
	relative     float64 // font-size larger/smaller factor
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 3.0 / 5,
	"x-small":  3.0 / 4,
	"small":    8.0 / 9,
	"medium":   1,
	"large":    6.0 / 5,
	"x-large":  3.0 / 2,
	"xx-large": 2,
}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// parseSpecified parses the text of a longhand declaration. ok is false for
// values the property does not accept; the cascade drops those.
func parseSpecified(p Property, info propertyInfo, text string) (specified, bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	switch lower {
	case "inherit", "initial", "unset":
		return specified{global: lower}, true
	case "":
		return specified{}, false
	}

	switch info.kind {
	case parseKeyword:
		if hasKeyword(info.keywords, lower) {
			return specified{value: Keyword(lower)}, true
		}
	case parseLength:
		if hasKeyword(info.keywords, lower) {
			return specified{value: Keyword(lower)}, true
		}
		if w, ok := borderWidthKeywords[lower]; ok && hasKeyword(info.keywords, "medium") {
			return specified{value: Px(w)}, true
		}
		if e, ok := parseLengthExpr(lower, false); ok && !(info.nonNegative && e.negative()) {
			if e.absolute() {
				return specified{value: Px(e.px())}, true
			}
			return specified{expr: &e}, true
		}
	case parseColor:
		if lower == "currentcolor" {
			return specified{currentColor: true}, true
		}
		if c, ok := ParseColor(lower); ok {
			return specified{value: ColorValue(c)}, true
		}
	case parseNumber:
		if hasKeyword(info.keywords, lower) {
			if p == PropFontWeight {
				return specified{value: Number(fontWeightKeyword(lower))}, true
			}
			return specified{value: Keyword(lower)}, true
		}
		if n, ok := ParseNumber(lower); ok && !(info.nonNegative && n < 0) {
			if p == PropOpacity {
				n = clamp(n, 0, 1)
			}
			return specified{value: Number(n)}, true
		}
	case parseImages:
		if images, ok := ParseImageList(text); ok {
			if len(images) == 0 {
				return specified{value: Keyword("none")}, true
			}
			return specified{value: Value{Kind: KindImages, Images: images}}, true
		}
	case parseFamilies:
		var families []string
		for _, f := range splitTopLevel(text, ',') {
			f = strings.Trim(strings.TrimSpace(f), `"'`)
			if f != "" {
				families = append(families, f)
			}
		}
		if len(families) > 0 {
			return specified{value: Value{Kind: KindList, List: families}}, true
		}
	case parseFontSize:
		if k, ok := fontSizeKeywords[lower]; ok {
			return specified{fontKeyword: k}, true
		}
		switch lower {
		case "larger":
			return specified{relative: 1.2}, true
		case "smaller":
			return specified{relative: 1 / 1.2}, true
		}
		if e, ok := parseLengthExpr(lower, false); ok && !e.negative() {
			if e.absolute() {
				return specified{value: Px(e.px())}, true
			}
			return specified{expr: &e}, true
		}
	case parseLineHeight:
		if lower == "normal" {
			return specified{value: Keyword("normal")}, true
		}
		if n, ok := ParseNumber(lower); ok && n >= 0 {
			return specified{value: Number(n)}, true
		}
		if e, ok := parseLengthExpr(lower, false); ok && !e.negative() {
			if e.absolute() {
				return specified{value: Px(e.px())}, true
			}
			return specified{expr: &e}, true
		}
	case parseRaw:
		return specified{value: Keyword(lower)}, true
	}
	return specified{}, false
}

func fontWeightKeyword(k string) float64 {
	switch k {
	case "bold", "bolder":
		return 700
	case "lighter":
		return 300
	}
	return 400
}
