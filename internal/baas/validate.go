package baas

import "portfolio-backend/internal/schema"

// NormalizeData checks document data against a collection's attributes and
// returns the values in canonical form. Unknown keys are rejected. On
// create, absent attributes take their default and required ones must be
// present; on update only the given keys are checked. Problems are
// reported as Invalid errors.
func NormalizeData(attrs []schema.AttributeSpec, data map[string]any, create bool) (map[string]any, error) {
	known := make(map[string]*schema.AttributeSpec, len(attrs))
	for i := range attrs {
		known[attrs[i].Key] = &attrs[i]
	}
	for key := range data {
		if known[key] == nil {
			return nil, Invalid("unknown attribute %s", key)
		}
	}

	out := make(map[string]any, len(data))
	for _, attr := range attrs {
		v, present := data[attr.Key]
		if !present {
			if !create {
				continue
			}
			v = attr.Default
		}
		norm, err := attr.Normalize(v)
		if err != nil {
			return nil, Invalid("%v", err)
		}
		if norm != nil || present {
			out[attr.Key] = norm
		}
	}
	return out, nil
}
