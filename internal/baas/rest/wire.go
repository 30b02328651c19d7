package rest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

func decodeError(status int, raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
		if body.Message == "" {
			body.Message = http.StatusText(status)
		}
	}
	return &baas.Error{Status: status, Type: body.Type, Message: body.Message}
}

type collectionBody struct {
	ID               string   `json:"$id"`
	Name             string   `json:"name"`
	Permissions      []string `json:"$permissions"`
	DocumentSecurity bool     `json:"documentSecurity"`
	CreatedAt        string   `json:"$createdAt"`
	UpdatedAt        string   `json:"$updatedAt"`
}

func (b *collectionBody) toCollection() (*baas.Collection, error) {
	perms, err := schema.ParsePermissions(b.Permissions)
	if err != nil {
		return nil, err
	}
	return &baas.Collection{
		ID:               b.ID,
		Name:             b.Name,
		Permissions:      perms,
		DocumentSecurity: b.DocumentSecurity,
		CreatedAt:        parseTime(b.CreatedAt),
		UpdatedAt:        parseTime(b.UpdatedAt),
	}, nil
}

type attributeBody struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Required bool   `json:"required"`
	Array    bool   `json:"array"`
}

type indexBody struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	Attributes []string `json:"attributes"`
}

type documentList struct {
	Total     int              `json:"total"`
	Documents []map[string]any `json:"documents"`
}

// attributeRequest returns the attribute endpoint and request body for
// attr. Long text is a string attribute with the maximum size; string lists
// are array string attributes.
func attributeRequest(attr schema.AttributeSpec) (string, map[string]any) {
	body := map[string]any{
		"key":      attr.Key,
		"required": attr.Required,
	}
	if attr.Default != nil && !attr.Required {
		if def, err := attr.Normalize(attr.Default); err == nil {
			body["default"] = def
		}
	}

	var kind string
	switch attr.Kind {
	case schema.KindString:
		kind = "string"
		body["size"] = attr.Size
	case schema.KindLongText:
		kind = "string"
		body["size"] = schema.LongTextSize
	case schema.KindBoolean:
		kind = "boolean"
	case schema.KindInteger:
		kind = "integer"
		setRange(body, attr)
	case schema.KindFloat:
		kind = "float"
		setRange(body, attr)
	case schema.KindEmail:
		kind = "email"
	case schema.KindStringArray:
		kind = "string"
		body["size"] = attr.Size
		body["array"] = true
		delete(body, "default")
	}
	return kind, body
}

func setRange(body map[string]any, attr schema.AttributeSpec) {
	if attr.Min != nil {
		body["min"] = *attr.Min
	}
	if attr.Max != nil {
		body["max"] = *attr.Max
	}
}

// decodeDocument splits a document response into system fields and data.
func decodeDocument(collectionID string, raw map[string]any) (*baas.Document, error) {
	doc := &baas.Document{
		CollectionID: collectionID,
		Data:         make(map[string]any, len(raw)),
	}
	for k, v := range raw {
		switch k {
		case "$id":
			doc.ID, _ = v.(string)
		case "$createdAt":
			s, _ := v.(string)
			doc.CreatedAt = parseTime(s)
		case "$updatedAt":
			s, _ := v.(string)
			doc.UpdatedAt = parseTime(s)
		case "$permissions":
			perms, err := schema.ParsePermissions(toStrings(v))
			if err != nil {
				return nil, err
			}
			doc.Permissions = perms
		default:
			if strings.HasPrefix(k, "$") {
				continue
			}
			doc.Data[k] = plainValue(v)
		}
	}
	return doc, nil
}

// plainValue turns decoded JSON into the canonical value types: int64 for
// integral numbers, float64 otherwise, []string for string lists.
func plainValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return val
			}
			items = append(items, s)
		}
		return items
	}
	return v
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// wireValue encodes a query value the way the backend expects.
func wireValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
