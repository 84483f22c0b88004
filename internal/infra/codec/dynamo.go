package codec

import (
	"strconv"
)

// unwrapAttributeValues turns DynamoDB attribute-value maps
// ({"S": "x"}, {"N": "0.8"}, {"M": {...}}, {"L": [...]}) into plain JSON values.
// Anything that is not an attribute value passes through unchanged.
func unwrapAttributeValues(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = unwrapAttributeValues(e)
		}
		return out
	case map[string]any:
		if av, ok := attributeValue(t); ok {
			return av
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = unwrapAttributeValues(e)
		}
		return out
	}
	return v
}

func attributeValue(m map[string]any) (any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	for tag, raw := range m {
		switch tag {
		case "S":
			s, ok := raw.(string)
			return s, ok
		case "N":
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, false
			}
			return n, true
		case "BOOL":
			b, ok := raw.(bool)
			return b, ok
		case "NULL":
			return nil, true
		case "M":
			inner, ok := raw.(map[string]any)
			if !ok {
				return nil, false
			}
			out := make(map[string]any, len(inner))
			for k, e := range inner {
				out[k] = unwrapAttributeValues(e)
			}
			return out, true
		case "L", "SS", "NS":
			inner, ok := raw.([]any)
			if !ok {
				return nil, false
			}
			return unwrapAttributeValues(inner), true
		}
	}
	return nil, false
}
