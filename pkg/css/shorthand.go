package css

import "strings"

type longhand struct {
	prop  Property
	value string
}

var corners = [4]Property{PropBorderTopLeftRadius, PropBorderTopRightRadius, PropBorderBottomRightRadius, PropBorderBottomLeftRadius}

var shorthands = map[string][]Property{
	"margin":        {PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft},
	"padding":       {PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft},
	"inset":         {PropTop, PropRight, PropBottom, PropLeft},
	"border-width":  {PropBorderTopWidth, PropBorderRightWidth, PropBorderBottomWidth, PropBorderLeftWidth},
	"border-style":  {PropBorderTopStyle, PropBorderRightStyle, PropBorderBottomStyle, PropBorderLeftStyle},
	"border-color":  {PropBorderTopColor, PropBorderRightColor, PropBorderBottomColor, PropBorderLeftColor},
	"border-radius": corners[:],
	"border": {PropBorderTopWidth, PropBorderRightWidth, PropBorderBottomWidth, PropBorderLeftWidth,
		PropBorderTopStyle, PropBorderRightStyle, PropBorderBottomStyle, PropBorderLeftStyle,
		PropBorderTopColor, PropBorderRightColor, PropBorderBottomColor, PropBorderLeftColor},
	"border-top":    {PropBorderTopWidth, PropBorderTopStyle, PropBorderTopColor},
	"border-right":  {PropBorderRightWidth, PropBorderRightStyle, PropBorderRightColor},
	"border-bottom": {PropBorderBottomWidth, PropBorderBottomStyle, PropBorderBottomColor},
	"border-left":   {PropBorderLeftWidth, PropBorderLeftStyle, PropBorderLeftColor},
	"outline":       {PropOutlineWidth, PropOutlineStyle, PropOutlineColor},
	"background":    {PropBackgroundColor, PropBackgroundImage},
	"flex":          {PropFlexGrow, PropFlexShrink, PropFlexBasis},
	"flex-flow":     {PropFlexDirection, PropFlexWrap},
	"overflow":      {PropOverflowX, PropOverflowY},
	"gap":           {PropRowGap, PropColumnGap},
}

// IsShorthand reports whether name expands into longhands.
func IsShorthand(name string) bool {
	_, ok := shorthands[name]
	return ok
}

// fields splits a value on whitespace outside parentheses.
func fields(value string) []string {
	value = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(value)
	var out []string
	for _, f := range splitTopLevel(value, ' ') {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// expandShorthand expands a shorthand declaration into its longhands. The
// second result is false when name is not a shorthand or the value cannot
// be split; a shorthand with an unusable value yields no longhands.
func expandShorthand(name, value string) ([]longhand, bool) {
	props, ok := shorthands[name]
	if !ok {
		return nil, false
	}
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "inherit" || lower == "initial" || lower == "unset" {
		out := make([]longhand, len(props))
		for i, p := range props {
			out[i] = longhand{p, lower}
		}
		return out, true
	}
	switch name {
	case "margin", "padding", "inset", "border-width", "border-style", "border-color", "border-radius":
		if name == "border-radius" {
			// elliptical radii are not supported; keep the horizontal part
			value, _, _ = strings.Cut(value, "/")
		}
		return expandBox(props, fields(value)), true
	case "border", "border-top", "border-right", "border-bottom", "border-left", "outline":
		return expandBorder(props, fields(value)), true
	case "background":
		return expandBackground(value), true
	case "flex":
		return expandFlex(fields(lower)), true
	case "flex-flow":
		var out []longhand
		for _, f := range fields(lower) {
			if hasKeyword(properties[PropFlexDirection].keywords, f) {
				out = append(out, longhand{PropFlexDirection, f})
			} else {
				out = append(out, longhand{PropFlexWrap, f})
			}
		}
		return out, true
	case "overflow", "gap":
		parts := fields(lower)
		if len(parts) == 1 {
			parts = append(parts, parts[0])
		}
		if len(parts) != 2 {
			return nil, true
		}
		return []longhand{{props[0], parts[0]}, {props[1], parts[1]}}, true
	}
	return nil, true
}

// expandBox expands a 1-4 value box shorthand: "t", "v h", "t h b" or "t r b l".
func expandBox(props []Property, parts []string) []longhand {
	var v [4]string
	switch len(parts) {
	case 1:
		v = [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		v = [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		v = [4]string{parts[0], parts[1], parts[2], parts[1]}
	case 4:
		v = [4]string{parts[0], parts[1], parts[2], parts[3]}
	default:
		return nil
	}
	out := make([]longhand, 4)
	for i := range out {
		out[i] = longhand{props[i], v[i]}
	}
	return out
}

// expandBorder expands "1px solid black" in any order. Omitted components
// reset to their initial values. props lists widths, then styles, then
// colors.
func expandBorder(props []Property, parts []string) []longhand {
	width, style, color := "medium", "none", "currentcolor"
	for _, part := range parts {
		lower := strings.ToLower(part)
		switch {
		case hasKeyword(borderStyles, lower):
			style = lower
		case hasKeyword(borderWidthKW, lower):
			width = lower
		default:
			if _, ok := parseLengthExpr(lower, false); ok {
				width = lower
			} else {
				color = part
			}
		}
	}
	n := len(props) / 3
	out := make([]longhand, 0, len(props))
	for i := 0; i < n; i++ {
		out = append(out, longhand{props[i], width})
	}
	for i := n; i < 2*n; i++ {
		out = append(out, longhand{props[i], style})
	}
	for i := 2 * n; i < 3*n; i++ {
		out = append(out, longhand{props[i], color})
	}
	return out
}

// expandBackground picks the color and image layers out of a background
// shorthand. Position, size and repeat components are ignored.
func expandBackground(value string) []longhand {
	color := "transparent"
	var images []string
	layers := splitTopLevel(value, ',')
	for i, layer := range layers {
		for _, tok := range fields(layer) {
			if _, ok := ParseImage(tok); ok {
				images = append(images, tok)
				continue
			}
			if i == len(layers)-1 {
				if _, ok := ParseColor(tok); ok || strings.EqualFold(tok, "currentcolor") {
					color = tok
				}
			}
		}
	}
	image := "none"
	if len(images) > 0 {
		image = strings.Join(images, ", ")
	}
	return []longhand{{PropBackgroundColor, color}, {PropBackgroundImage, image}}
}

// expandFlex follows the flex shorthand rules: "none", "auto", a single
// grow factor, "grow shrink" and "grow shrink basis".
func expandFlex(parts []string) []longhand {
	grow, shrink, basis := "0", "1", "auto"
	switch {
	case len(parts) == 1 && parts[0] == "none":
		grow, shrink, basis = "0", "0", "auto"
	case len(parts) == 1 && parts[0] == "auto":
		grow, shrink, basis = "1", "1", "auto"
	default:
		var numbers []string
		basis = "0%"
		for _, p := range parts {
			if _, ok := ParseNumber(p); ok && len(numbers) < 2 {
				numbers = append(numbers, p)
			} else {
				basis = p
			}
		}
		if len(numbers) == 0 {
			grow = "1"
		}
		if len(numbers) > 0 {
			grow = numbers[0]
		}
		if len(numbers) > 1 {
			shrink = numbers[1]
		}
	}
	return []longhand{{PropFlexGrow, grow}, {PropFlexShrink, shrink}, {PropFlexBasis, basis}}
}
