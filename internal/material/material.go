package material

import (
	"errors"
	"fmt"

	"roomstudio/internal/scenegraph"
)

// ErrUnknownMaterial is returned when a material id is not in the catalog.
var ErrUnknownMaterial = errors.New("unknown material")

// FallbackID is the swatch used when an instance references a material that
// left the catalog. The embedded catalog must always carry it.
const FallbackID = "paint-white"

// Definition is one swatch from the catalog. Color is "#rrggbb" (or "#rrggbbaa");
// Texture is an optional image path resolved relative to the working directory.
// Roughness and Metallic are 0..1 shading hints.
type Definition struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Color     string  `yaml:"color"`
	Roughness float32 `yaml:"roughness"`
	Metallic  float32 `yaml:"metallic"`
	Texture   string  `yaml:"texture"`
}

// Factory realizes definitions into engine material handles. The viewport
// provides the raylib-backed implementation; tests provide counting stubs.
type Factory interface {
	Create(def Definition) (scenegraph.Material, error)
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" into RGBA bytes. Alpha
// defaults to 255.
func ParseHexColor(s string) ([4]uint8, error) {
	if len(s) == 0 || s[0] != '#' {
		return [4]uint8{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return [4]uint8{}, fmt.Errorf("color %q: want 6 or 8 hex digits", s)
	}
	var out [4]uint8
	out[3] = 255
	for i := 0; i*2 < len(hex); i++ {
		hi, ok1 := hexNibble(hex[i*2])
		lo, ok2 := hexNibble(hex[i*2+1])
		if !ok1 || !ok2 {
			return [4]uint8{}, fmt.Errorf("color %q: bad hex digit", s)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
