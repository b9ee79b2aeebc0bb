// Package config describes the read-only system style the layout core is
// run against: platform, theme, default fonts and preferred language.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Theme is the system color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Platform identifies the host the document is laid out for.
type Platform struct {
	OS         string `toml:"os"`
	Version    string `toml:"version"`
	DesktopEnv string `toml:"desktop_env"`
}

// Fonts lists the default family stacks per generic family.
type Fonts struct {
	SansSerif []string `toml:"sans_serif"`
	Serif     []string `toml:"serif"`
	Monospace []string `toml:"monospace"`
}

// SystemStyle is the read-only platform style consumed by the cascade.
type SystemStyle struct {
	Platform        Platform `toml:"platform"`
	Theme           Theme    `toml:"theme"`
	Fonts           Fonts    `toml:"fonts"`
	Language        string   `toml:"language"`
	DefaultFontSize float64  `toml:"default_font_size"`
	TextColor       string   `toml:"text_color"`
	BackgroundColor string   `toml:"background_color"`
}

// Default returns the built-in light system style.
func Default() SystemStyle {
	return SystemStyle{
		Platform:        Platform{OS: "linux"},
		Theme:           ThemeLight,
		Fonts:           Fonts{SansSerif: []string{"sans-serif"}, Serif: []string{"serif"}, Monospace: []string{"monospace"}},
		Language:        "en",
		DefaultFontSize: 16,
	}
}

// Parse decodes a TOML system style. Fields missing from data keep the
// values of Default.
func Parse(data []byte) (SystemStyle, error) {
	s := Default()
	if _, err := toml.Decode(string(data), &s); err != nil {
		return SystemStyle{}, fmt.Errorf("config: decode system style: %w", err)
	}
	if err := s.Validate(); err != nil {
		return SystemStyle{}, err
	}
	return s, nil
}

// Load reads and decodes a TOML system style file.
func Load(path string) (SystemStyle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SystemStyle{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Validate rejects values the cascade cannot use.
func (s SystemStyle) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("config: unknown theme %q", s.Theme)
	}
	if s.DefaultFontSize <= 0 {
		return fmt.Errorf("config: default_font_size must be positive, got %v", s.DefaultFontSize)
	}
	return nil
}

func (s SystemStyle) colors() (text, background string) {
	text, background = s.TextColor, s.BackgroundColor
	if text == "" {
		text = "black"
		if s.Theme == ThemeDark {
			text = "#e8e8e8"
		}
	}
	if background == "" {
		background = "transparent"
		if s.Theme == ThemeDark {
			background = "#1e1e1e"
		}
	}
	return text, background
}

func quoteFamilies(families []string) string {
	out := make([]string, 0, len(families))
	for _, f := range families {
		if strings.ContainsAny(f, " ") {
			f = `"` + f + `"`
		}
		out = append(out, f)
	}
	return strings.Join(out, ", ")
}

// UserAgentStylesheet returns the user-agent origin stylesheet derived from
// this system style.
func (s SystemStyle) UserAgentStylesheet() string {
	text, background := s.colors()
	family := quoteFamilies(s.Fonts.SansSerif)
	if family == "" {
		family = "sans-serif"
	}
	mono := quoteFamilies(s.Fonts.Monospace)
	if mono == "" {
		mono = "monospace"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "html { display: block; font-size: %gpx; font-family: %s; color: %s; background-color: %s; }\n",
		s.DefaultFontSize, family, text, background)
	b.WriteString(`body, div, p, section, article, header, footer, nav, main, aside, ul, ol, li, h1, h2, h3, h4, h5, h6, pre, blockquote, form { display: block; }
head, script, style, title { display: none; }
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold; }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold; }
p { margin: 1em 0; }
pre { white-space: pre; }
b, strong { font-weight: bold; }
i, em { font-style: italic; }
img, iframe { display: inline-block; }
`)
	fmt.Fprintf(&b, "pre, code { font-family: %s; }\n", mono)
	return b.String()
}
