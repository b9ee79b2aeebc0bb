package css

import (
	"math"
	"strconv"
	"strings"
)

// GradientType represents the type of CSS gradient
type GradientType int

const (
	GradientLinear GradientType = iota
	GradientRadial
	GradientConic
)

// ColorStop represents a color and its optional position in a gradient.
type ColorStop struct {
	Color       Color
	Position    Length // percent or absolute length along the gradient line
	HasPosition bool
}

// Gradient is a parsed linear-, radial- or conic-gradient().
type Gradient struct {
	Type      GradientType
	Repeating bool

	// Linear: angle in degrees, 180 = "to bottom". ToCorner holds the
	// "top right" style target when the direction names a corner, since the
	// angle then depends on the box aspect ratio.
	Angle    float64
	ToCorner string

	// Radial
	Circle bool
	Extent string // closest-side, closest-corner, farthest-side, farthest-corner

	// Radial and conic
	CenterX, CenterY Length
	FromAngle        float64

	Stops []ColorStop
}

// ImageKind discriminates Image.
type ImageKind int

const (
	ImageURL ImageKind = iota
	ImageGradient
)

// Image is one background-image layer.
type Image struct {
	Kind     ImageKind
	URL      string
	Gradient *Gradient
}

// ParseImageList parses a comma separated list of url() and gradient
// layers. "none" yields an empty list.
func ParseImageList(value string) ([]Image, bool) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "none") {
		return nil, true
	}
	var images []Image
	for _, part := range splitTopLevel(value, ',') {
		img, ok := ParseImage(part)
		if !ok {
			return nil, false
		}
		images = append(images, img)
	}
	return images, len(images) > 0
}

// ParseImage parses a single url() or gradient function.
func ParseImage(value string) (Image, bool) {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "url(") && strings.HasSuffix(value, ")") {
		u := strings.Trim(strings.TrimSpace(value[4:len(value)-1]), `"'`)
		return Image{Kind: ImageURL, URL: u}, true
	}
	if g, ok := ParseGradient(value); ok {
		return Image{Kind: ImageGradient, Gradient: g}, true
	}
	return Image{}, false
}

// ParseGradient parses any of the gradient functions including their
// repeating- variants.
// Example: "linear-gradient(to right, blue 0, blue 150px, red 150px, red 300px)"
func ParseGradient(value string) (*Gradient, bool) {
	name, content, ok := splitFunction(strings.TrimSpace(value))
	if !ok {
		return nil, false
	}
	name = strings.ToLower(name)
	grad := &Gradient{CenterX: Length{50, UnitPercent}, CenterY: Length{50, UnitPercent}}
	if strings.HasPrefix(name, "repeating-") {
		grad.Repeating = true
		name = strings.TrimPrefix(name, "repeating-")
	}
	parts := splitTopLevel(content, ',')
	if len(parts) < 2 {
		return nil, false
	}
	startIdx := 0
	first := strings.ToLower(strings.TrimSpace(parts[0]))
	switch name {
	case "linear-gradient":
		grad.Type = GradientLinear
		grad.Angle = 180
		if angle, corner, ok := parseLinearDirection(first); ok {
			grad.Angle, grad.ToCorner = angle, corner
			startIdx = 1
		}
	case "radial-gradient":
		grad.Type = GradientRadial
		grad.Extent = "farthest-corner"
		if parseRadialShape(grad, first) {
			startIdx = 1
		}
	case "conic-gradient":
		grad.Type = GradientConic
		if parseConicHeader(grad, first) {
			startIdx = 1
		}
	default:
		return nil, false
	}
	for i := startIdx; i < len(parts); i++ {
		stops, ok := parseColorStop(strings.TrimSpace(parts[i]))
		if !ok {
			return nil, false
		}
		grad.Stops = append(grad.Stops, stops...)
	}
	if len(grad.Stops) < 2 {
		return nil, false
	}
	return grad, true
}

func parseAngle(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	units := []struct {
		suffix string
		scale  float64
	}{{"deg", 1}, {"grad", 0.9}, {"rad", 180 / math.Pi}, {"turn", 360}}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return 0, false
			}
			return v * u.scale, true
		}
	}
	if s == "0" {
		return 0, true
	}
	return 0, false
}

func parseLinearDirection(s string) (float64, string, bool) {
	if a, ok := parseAngle(s); ok {
		return a, "", true
	}
	if !strings.HasPrefix(s, "to ") {
		return 0, "", false
	}
	words := strings.Fields(strings.TrimPrefix(s, "to "))
	var vertical, horizontal string
	for _, w := range words {
		switch w {
		case "top", "bottom":
			vertical = w
		case "left", "right":
			horizontal = w
		default:
			return 0, "", false
		}
	}
	switch {
	case vertical != "" && horizontal != "":
		return 0, vertical + " " + horizontal, true
	case vertical == "top":
		return 0, "", true
	case vertical == "bottom":
		return 180, "", true
	case horizontal == "right":
		return 90, "", true
	case horizontal == "left":
		return 270, "", true
	}
	return 0, "", false
}

func parseCenter(grad *Gradient, words []string) bool {
	pos := func(w string, horizontal bool) (Length, bool) {
		switch w {
		case "center":
			return Length{50, UnitPercent}, true
		case "left", "top":
			return Length{0, UnitPercent}, true
		case "right", "bottom":
			return Length{100, UnitPercent}, true
		}
		return ParseLength(w)
	}
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	x, ok := pos(words[0], true)
	if !ok {
		return false
	}
	y := Length{50, UnitPercent}
	if words[0] == "top" || words[0] == "bottom" {
		x, y = Length{50, UnitPercent}, x
	}
	if len(words) == 2 {
		if y, ok = pos(words[1], false); !ok {
			return false
		}
	}
	grad.CenterX, grad.CenterY = x, y
	return true
}

// parseRadialShape handles "[circle|ellipse] [extent] [at <position>]".
func parseRadialShape(grad *Gradient, s string) bool {
	words := strings.Fields(s)
	recognized := false
	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "circle":
			grad.Circle, recognized = true, true
		case "ellipse":
			recognized = true
		case "closest-side", "closest-corner", "farthest-side", "farthest-corner":
			grad.Extent, recognized = words[i], true
		case "at":
			return parseCenter(grad, words[i+1:])
		default:
			return false
		}
	}
	return recognized
}

// parseConicHeader handles "[from <angle>] [at <position>]".
func parseConicHeader(grad *Gradient, s string) bool {
	words := strings.Fields(s)
	recognized := false
	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "from":
			if i+1 >= len(words) {
				return false
			}
			a, ok := parseAngle(words[i+1])
			if !ok {
				return false
			}
			grad.FromAngle, recognized = a, true
			i++
		case "at":
			return parseCenter(grad, words[i+1:])
		default:
			return false
		}
	}
	return recognized
}

// parseColorStop parses a color stop like "blue 150px", "red 50%" or the
// two-position form "red 10% 20%".
func parseColorStop(stop string) ([]ColorStop, bool) {
	// the color itself may contain spaces: rgb(1 2 3)
	colorEnd := len(stop)
	if i := strings.LastIndexByte(stop, ')'); i >= 0 {
		colorEnd = i + 1
	} else if i := strings.IndexByte(stop, ' '); i >= 0 {
		colorEnd = i
	}
	color, ok := ParseColor(stop[:colorEnd])
	if !ok {
		return nil, false
	}
	positions := strings.Fields(stop[colorEnd:])
	if len(positions) == 0 {
		return []ColorStop{{Color: color}}, true
	}
	var stops []ColorStop
	for _, p := range positions {
		l, ok := ParseLength(p)
		if !ok {
			return nil, false
		}
		if l.Unit == UnitNone {
			l.Unit = UnitPx
		}
		stops = append(stops, ColorStop{Color: color, Position: l, HasPosition: true})
	}
	return stops, len(stops) <= 2
}

// ResolvedStop is a color stop with its offset along the gradient line as a
// fraction of the line length.
type ResolvedStop struct {
	Offset float64
	Color  Color
}

// ResolveStops converts stop positions to fractions of lineLength and fills
// unspecified positions: the first stop defaults to 0, the last to 1 and
// runs of missing positions are spread evenly. Offsets are made monotonic.
func ResolveStops(stops []ColorStop, lineLength float64) []ResolvedStop {
	out := make([]ResolvedStop, len(stops))
	known := make([]bool, len(stops))
	for i, s := range stops {
		out[i].Color = s.Color
		if !s.HasPosition {
			continue
		}
		known[i] = true
		if s.Position.Unit == UnitPercent {
			out[i].Offset = s.Position.Value / 100
		} else if lineLength > 0 {
			out[i].Offset = s.Position.Px() / lineLength
		}
	}
	if len(out) == 0 {
		return out
	}
	if !known[0] {
		out[0].Offset, known[0] = 0, true
	}
	if last := len(out) - 1; !known[last] {
		out[last].Offset, known[last] = 1, true
	}
	for i := 1; i < len(out); i++ {
		if out[i].Offset < out[i-1].Offset && known[i] {
			out[i].Offset = out[i-1].Offset
		}
	}
	for i := 0; i < len(out); {
		if known[i] {
			i++
			continue
		}
		j := i
		for !known[j] {
			j++
		}
		start, end := out[i-1].Offset, out[j].Offset
		n := float64(j - i + 1)
		for k := i; k < j; k++ {
			out[k].Offset = start + (end-start)*float64(k-i+1)/n
		}
		i = j
	}
	return out
}

// splitTopLevel splits s on sep outside parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
