package api

import (
	"maps"
	"slices"

	"portfolio-backend/internal/schema"
)

// validateDocument checks a request body against a collection definition
// and returns the normalized data. On create, absent attributes take their
// defaults and required ones must be present; on update only the given
// keys are checked.
func validateDocument(def *schema.Definition, body map[string]any, create bool) (map[string]any, []ErrorDetail) {
	var details []ErrorDetail
	for _, key := range slices.Sorted(maps.Keys(body)) {
		switch {
		case schema.IsSystemField(key):
			details = append(details, ErrorDetail{Field: key, Rule: "read_only", Message: key + " is set by the backend"})
		case def.GetAttribute(key) == nil:
			details = append(details, ErrorDetail{Field: key, Rule: "unknown", Message: "unknown attribute " + key})
		}
	}

	out := make(map[string]any, len(body))
	for _, attr := range def.Attributes {
		v, present := body[attr.Key]
		if !present {
			if !create {
				continue
			}
			if attr.Required {
				details = append(details, ErrorDetail{Field: attr.Key, Rule: "required", Message: attr.Key + " is required"})
				continue
			}
			v = attr.Default
		}
		norm, err := attr.Normalize(v)
		if err != nil {
			details = append(details, ErrorDetail{Field: attr.Key, Rule: "invalid", Message: err.Error()})
			continue
		}
		if norm != nil || present {
			out[attr.Key] = norm
		}
	}
	return out, details
}
