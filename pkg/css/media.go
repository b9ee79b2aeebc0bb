package css

import (
	"strings"

	"azul/pkg/config"
)

// MediaEnv is what @media queries are evaluated against.
type MediaEnv struct {
	Viewport Size
	Theme    config.Theme
}

// EvaluateMediaQuery reports whether a comma separated query list matches.
// Unknown features make their query false; an empty query matches.
func EvaluateMediaQuery(query string, env MediaEnv) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, q := range splitTopLevel(query, ',') {
		if evaluateSingleQuery(strings.TrimSpace(q), env) {
			return true
		}
	}
	return false
}

func evaluateSingleQuery(q string, env MediaEnv) bool {
	negate := false
	if rest, ok := strings.CutPrefix(q, "not "); ok {
		negate, q = true, rest
	}
	q = strings.TrimPrefix(q, "only ")
	result := true
	for _, term := range strings.Split(q, " and ") {
		term = strings.TrimSpace(term)
		switch {
		case term == "" || term == "all" || term == "screen":
		case term == "print" || term == "speech":
			result = false
		case strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")"):
			if !evaluateFeature(term[1:len(term)-1], env) {
				result = false
			}
		default:
			result = false
		}
	}
	return result != negate
}

func evaluateFeature(f string, env MediaEnv) bool {
	name, value, _ := strings.Cut(f, ":")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	length := func() (float64, bool) {
		e, ok := parseLengthExpr(value, false)
		if !ok {
			return 0, false
		}
		px, _ := e.compile(-1, -1, AxisNone).Evaluate(ResolutionContext{ElementFontSize: 16, RootFontSize: 16, Viewport: env.Viewport}, nil)
		return px, true
	}
	switch name {
	case "min-width", "max-width", "min-height", "max-height", "width", "height":
		px, ok := length()
		if !ok {
			return false
		}
		dim := env.Viewport.Width
		if strings.HasSuffix(name, "height") {
			dim = env.Viewport.Height
		}
		switch {
		case strings.HasPrefix(name, "min-"):
			return dim >= px
		case strings.HasPrefix(name, "max-"):
			return dim <= px
		}
		return dim == px
	case "orientation":
		portrait := env.Viewport.Height >= env.Viewport.Width
		return (value == "portrait") == portrait && (value == "portrait" || value == "landscape")
	case "prefers-color-scheme":
		theme := env.Theme
		if theme == "" {
			theme = config.ThemeLight
		}
		return value == string(theme)
	}
	return false
}
