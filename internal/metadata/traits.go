package metadata

import (
	"fmt"
	"strconv"

	"sketchmint/internal/codegen"
	"sketchmint/internal/sketch"
)

// TraitValue is one declared trait paired with its resolved value.
// Formatted is the type-coerced rendering; Original is whatever the
// metadata document carried (nil when the key was absent).
type TraitValue struct {
	Key       string           `json:"key"`
	Original  any              `json:"original"`
	Formatted string           `json:"formatted"`
	Type      sketch.TraitType `json:"traitType"`
}

// topLevelDenylist holds standard descriptive metadata keys that are
// never trait values.
var topLevelDenylist = map[string]bool{
	"name":          true,
	"description":   true,
	"image":         true,
	"external_url":  true,
	"animation_url": true,
}

// extractTraits pulls a flat trait map out of a metadata document.
// Preference order: an attributes/traits array of {trait_type|name,
// value} pairs, then a flat object under the same field, then every
// top-level key except the denylist.
func extractTraits(doc map[string]any) map[string]any {
	for _, field := range []string{"attributes", "traits"} {
		switch v := doc[field].(type) {
		case []any:
			out := make(map[string]any)
			for _, item := range v {
				pair, ok := item.(map[string]any)
				if !ok {
					continue
				}
				key, _ := pair["trait_type"].(string)
				if key == "" {
					key, _ = pair["name"].(string)
				}
				if key == "" {
					continue
				}
				value, ok := pair["value"]
				if !ok {
					continue
				}
				if _, dup := out[key]; !dup {
					out[key] = value
				}
			}
			if len(out) > 0 {
				return out
			}
		case map[string]any:
			if len(v) > 0 {
				out := make(map[string]any, len(v))
				for k, val := range v {
					out[k] = val
				}
				return out
			}
		}
	}

	out := make(map[string]any)
	for k, v := range doc {
		if !topLevelDenylist[k] {
			out[k] = v
		}
	}
	return out
}

// coerceValue formats a raw metadata value per the declared trait type.
// An absent value yields the type-appropriate zero; coercion itself
// never fails.
func coerceValue(t sketch.TraitType, raw any, present bool) TraitValue {
	tv := TraitValue{Type: t}
	if present {
		tv.Original = raw
	}

	switch t {
	case sketch.AsInt:
		tv.Formatted = codegen.IntLiteral(toInt(raw, present))
	case sketch.AsFloat:
		tv.Formatted = codegen.FloatLiteral(toFloat(raw, present))
	default:
		if !present {
			tv.Formatted = ""
		} else {
			tv.Formatted = fmt.Sprintf("%v", raw)
		}
	}
	return tv
}

// literal renders the coerced value as a source literal for embedding.
func (tv TraitValue) literal() string {
	if tv.Type == sketch.AsString {
		return codegen.StringLiteral(tv.Formatted)
	}
	return tv.Formatted
}

func toInt(raw any, present bool) int64 {
	if !present {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func toFloat(raw any, present bool) float64 {
	if !present {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}
