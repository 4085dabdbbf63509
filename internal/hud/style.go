package hud

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ComputedStyle holds the resolved drawing values for one overlay element.
// Padding is the text offset from the element's top-left corner.
type ComputedStyle struct {
	Background rl.Color
	Color      rl.Color
	Border     rl.Color
	HasBorder  bool
	Width      int32
	Height     int32
	Padding    int32
}

// DefaultStyle is what an unstyled element gets: transparent background,
// light text, no border.
func DefaultStyle() ComputedStyle {
	return ComputedStyle{
		Background: rl.NewColor(0, 0, 0, 0),
		Color:      rl.RayWhite,
		Padding:    4,
	}
}

// Theme is a parsed stylesheet, indexed by class selector. Only simple class
// selectors are kept; anything fancier in the sheet is ignored.
type Theme struct {
	props map[string]map[string]string
}

// ParseTheme parses CSS into a theme. Rules for the same class merge, with
// later declarations overriding earlier ones.
func ParseTheme(src string) (*Theme, error) {
	sheet, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	t := &Theme{props: make(map[string]map[string]string)}
	for _, rule := range sheet.Rules {
		for _, sel := range rule.Selectors {
			sel = strings.TrimSpace(sel)
			if !strings.HasPrefix(sel, ".") {
				continue
			}
			class := sel[1:]
			props := t.props[class]
			if props == nil {
				props = make(map[string]string)
				t.props[class] = props
			}
			for _, decl := range rule.Declarations {
				props[decl.Property] = decl.Value
			}
		}
	}
	return t, nil
}

// Style resolves one or more classes into a drawing style. Classes apply in
// order, so Style("notice", "notice-warn") starts from the base notice look
// and overrides it with the warn colors.
func (t *Theme) Style(classes ...string) ComputedStyle {
	merged := make(map[string]string)
	if t != nil {
		for _, class := range classes {
			for k, v := range t.props[class] {
				merged[k] = v
			}
		}
	}
	return resolveProps(merged)
}

func resolveProps(props map[string]string) ComputedStyle {
	out := DefaultStyle()
	for k, v := range props {
		v = strings.TrimSpace(v)
		switch k {
		case "background":
			if c, ok := parseHexColor(v); ok {
				out.Background = c
			}
		case "color":
			if c, ok := parseHexColor(v); ok {
				out.Color = c
			}
		case "border":
			if c, ok := parseHexColor(v); ok {
				out.Border = c
				out.HasBorder = true
			}
		case "width":
			if n, ok := parsePx(v); ok {
				out.Width = n
			}
		case "height":
			if n, ok := parsePx(v); ok {
				out.Height = n
			}
		case "padding":
			if n, ok := parsePx(v); ok && n >= 0 {
				out.Padding = n
			}
		}
	}
	return out
}

// parseHexColor parses #RGB, #RRGGBB, or #RRGGBBAA into an rl.Color.
func parseHexColor(s string) (rl.Color, bool) {
	if len(s) < 4 || s[0] != '#' {
		return rl.Black, false
	}
	hex := s[1:]
	var r, g, b, a uint8
	a = 255
	switch len(hex) {
	case 3:
		r = hexByte(hex[0]) * 17
		g = hexByte(hex[1]) * 17
		b = hexByte(hex[2]) * 17
	case 8:
		a = hexByte(hex[6])<<4 + hexByte(hex[7])
		fallthrough
	case 6:
		r = hexByte(hex[0])<<4 + hexByte(hex[1])
		g = hexByte(hex[2])<<4 + hexByte(hex[3])
		b = hexByte(hex[4])<<4 + hexByte(hex[5])
	default:
		return rl.Black, false
	}
	return rl.NewColor(r, g, b, a), true
}

func hexByte(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// parsePx parses a number with an optional "px" suffix. Unitless values are
// pixels.
func parsePx(s string) (int32, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
