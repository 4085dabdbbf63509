package prototype

import (
	"fmt"

	"roomstudio/internal/material"
)

// Number reads a numeric parameter, accepting the int/float variants that YAML
// and JSON decoding produce. Missing or mistyped values fall back.
func Number(params map[string]any, id string, fallback float32) float32 {
	switch v := params[id].(type) {
	case float64:
		return float32(v)
	case float32:
		return v
	case int:
		return float32(v)
	}
	return fallback
}

// Boolean reads a boolean parameter with a fallback.
func Boolean(params map[string]any, id string, fallback bool) bool {
	if v, ok := params[id].(bool); ok {
		return v
	}
	return fallback
}

// String reads a string parameter (selects and colors) with a fallback.
func String(params map[string]any, id string, fallback string) string {
	if v, ok := params[id].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Normalize validates a parameter patch against the schema and returns the
// values that apply plus a human-readable reason per dropped entry. Numbers
// are coerced to float64 and clamped to [Min, Max]; selects must name one of
// the options; booleans and colors must already have the right shape. Unknown
// keys are dropped, never an error: a stale panel or console line should not
// abort the rest of the patch.
func (d Definition) Normalize(patch map[string]any) (map[string]any, []string) {
	applied := make(map[string]any, len(patch))
	var dropped []string
	for key, raw := range patch {
		f, ok := d.Field(key)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("unknown parameter %q", key))
			continue
		}
		switch f.Type {
		case TypeNumber:
			n, ok := toFloat(raw)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("%s: not a number", key))
				continue
			}
			if f.Max > f.Min {
				if n < f.Min {
					n = f.Min
				}
				if n > f.Max {
					n = f.Max
				}
			}
			applied[key] = n
		case TypeSelect:
			s, ok := raw.(string)
			if !ok || !contains(f.Options, s) {
				dropped = append(dropped, fmt.Sprintf("%s: not one of %v", key, f.Options))
				continue
			}
			applied[key] = s
		case TypeBoolean:
			b, ok := raw.(bool)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("%s: not a boolean", key))
				continue
			}
			applied[key] = b
		case TypeColor:
			s, ok := raw.(string)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("%s: not a color string", key))
				continue
			}
			if _, err := material.ParseHexColor(s); err != nil {
				dropped = append(dropped, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			applied[key] = s
		default:
			dropped = append(dropped, fmt.Sprintf("%s: unsupported field type %q", key, f.Type))
		}
	}
	return applied, dropped
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}
