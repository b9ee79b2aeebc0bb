package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is a straight-alpha sRGB color.
type Color struct {
	R, G, B uint8
	A       float64 // 0.0 to 1.0
}

// Transparent is fully transparent black.
var Transparent = Color{}

// Black is opaque black.
var Black = Color{0, 0, 0, 1}

// IsTransparent reports whether the color paints nothing.
func (c Color) IsTransparent() bool { return c.A <= 0 }

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", c.R, c.G, c.B, c.A)
}

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"cyan":        {0, 255, 255, 1},
	"aqua":        {0, 255, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"fuchsia":     {255, 0, 255, 1},
	"white":       {255, 255, 255, 1},
	"black":       {0, 0, 0, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"lightgray":   {211, 211, 211, 1},
	"darkgray":    {169, 169, 169, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"pink":        {255, 192, 203, 1},
	"brown":       {165, 42, 42, 1},
	"lime":        {0, 255, 0, 1},
	"navy":        {0, 0, 128, 1},
	"teal":        {0, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"maroon":      {128, 0, 0, 1},
	"olive":       {128, 128, 0, 1},
	"gold":        {255, 215, 0, 1},
	"indigo":      {75, 0, 130, 1},
	"violet":      {238, 130, 238, 1},
	"coral":       {255, 127, 80, 1},
	"salmon":      {250, 128, 114, 1},
	"tomato":      {255, 99, 71, 1},
	"skyblue":     {135, 206, 235, 1},
	"steelblue":   {70, 130, 180, 1},
	"darkblue":    {0, 0, 139, 1},
	"darkgreen":   {0, 100, 0, 1},
	"darkred":     {139, 0, 0, 1},
	"whitesmoke":  {245, 245, 245, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses named colors, hex notation and the rgb()/rgba()/hsl()/
// hsla() functions. currentcolor is not handled here; the cascade
// substitutes it.
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	name, args, ok := splitFunction(s)
	if !ok {
		return Color{}, false
	}
	switch name {
	case "rgb", "rgba":
		return parseRGBArgs(args)
	case "hsl", "hsla":
		return parseHSLArgs(args)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	expand := func(s string) string {
		var b strings.Builder
		for _, ch := range s {
			b.WriteRune(ch)
			b.WriteRune(ch)
		}
		return b.String()
	}
	switch len(hex) {
	case 3, 4:
		hex = expand(hex)
	case 6, 8:
	default:
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(hex) == 6 {
		return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 1}, true
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), float64(uint8(v)) / 255}, true
}

// colorArgs splits both the legacy comma syntax and the modern
// space/slash syntax into components.
func colorArgs(args string) []string {
	args = strings.ReplaceAll(args, "/", " ")
	args = strings.ReplaceAll(args, ",", " ")
	return strings.Fields(args)
}

func parseChannel(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return uint8(math.Round(clamp(v, 0, 100) * 2.55)), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return uint8(math.Round(clamp(v, 0, 255))), true
}

func parseAlpha(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(v/100, 0, 1), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp(v, 0, 1), true
}

func parseRGBArgs(args string) (Color, bool) {
	parts := colorArgs(args)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}
	var c Color
	var ok bool
	if c.R, ok = parseChannel(parts[0]); !ok {
		return Color{}, false
	}
	if c.G, ok = parseChannel(parts[1]); !ok {
		return Color{}, false
	}
	if c.B, ok = parseChannel(parts[2]); !ok {
		return Color{}, false
	}
	c.A = 1
	if len(parts) == 4 {
		if c.A, ok = parseAlpha(parts[3]); !ok {
			return Color{}, false
		}
	}
	return c, true
}

func parseHSLArgs(args string) (Color, bool) {
	parts := colorArgs(args)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(parts[0], "deg"), 64)
	if err != nil {
		return Color{}, false
	}
	sat, err1 := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	light, err2 := strconv.ParseFloat(strings.TrimSuffix(parts[2], "%"), 64)
	if err1 != nil || err2 != nil {
		return Color{}, false
	}
	alpha := 1.0
	if len(parts) == 4 {
		var ok bool
		if alpha, ok = parseAlpha(parts[3]); !ok {
			return Color{}, false
		}
	}
	r, g, b := hslToRGB(math.Mod(math.Mod(h, 360)+360, 360)/360, clamp(sat, 0, 100)/100, clamp(light, 0, 100)/100)
	return Color{uint8(math.Round(r * 255)), uint8(math.Round(g * 255)), uint8(math.Round(b * 255)), alpha}, true
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hue := func(t float64) float64 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 0.5:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		}
		return p
	}
	return hue(h + 1.0/3), hue(h), hue(h - 1.0/3)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// splitFunction splits "name(args)" into its parts.
func splitFunction(s string) (name, args string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), s[open+1 : len(s)-1], true
}
