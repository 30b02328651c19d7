package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"unicode/utf8"
)

// AttributeKind is the closed set of attribute types a collection can declare.
type AttributeKind int

const (
	KindString AttributeKind = iota + 1
	KindLongText
	KindBoolean
	KindInteger
	KindFloat
	KindEmail
	KindStringArray
)

// LongTextSize is the size requested for long text attributes on backends
// that only know sized strings.
const LongTextSize = 1_000_000

var kindNames = map[AttributeKind]string{
	KindString:      "string",
	KindLongText:    "longText",
	KindBoolean:     "boolean",
	KindInteger:     "integer",
	KindFloat:       "float",
	KindEmail:       "email",
	KindStringArray: "stringArray",
}

func (k AttributeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AttributeKind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k AttributeKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind name back to its AttributeKind.
func ParseKind(s string) (AttributeKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attribute kind %q", s)
}

func (k AttributeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid attribute kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *AttributeKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AttributeSpec declares one typed field of a collection. Key and Kind are
// fixed once the attribute exists; changing either is a migration.
type AttributeSpec struct {
	Key      string        `json:"key"`
	Kind     AttributeKind `json:"kind"`
	Size     int           `json:"size,omitempty"` // max characters for String and StringArray elements
	Min      *float64      `json:"min,omitempty"`
	Max      *float64      `json:"max,omitempty"`
	Required bool          `json:"required,omitempty"`
	Default  any           `json:"default,omitempty"`
}

func String(key string, size int) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindString, Size: size}
}

func LongText(key string) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindLongText}
}

func Boolean(key string) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindBoolean}
}

func Integer(key string) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindInteger}
}

func Float(key string) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindFloat}
}

func Email(key string) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindEmail}
}

func StringArray(key string, size int) AttributeSpec {
	return AttributeSpec{Key: key, Kind: KindStringArray, Size: size}
}

// Req marks the attribute as required.
func (a AttributeSpec) Req() AttributeSpec {
	a.Required = true
	return a
}

// WithDefault sets the value used when a document omits the attribute.
func (a AttributeSpec) WithDefault(v any) AttributeSpec {
	a.Default = v
	return a
}

// Range bounds a numeric attribute.
func (a AttributeSpec) Range(min, max float64) AttributeSpec {
	a.Min = &min
	a.Max = &max
	return a
}

// IsArray reports whether documents hold a list of values for this attribute.
func (a AttributeSpec) IsArray() bool {
	return a.Kind == KindStringArray
}

// Normalize checks v against the attribute and returns it in canonical form:
// string, bool, int64, float64 or []string. nil passes through unless the
// attribute is required.
func (a AttributeSpec) Normalize(v any) (any, error) {
	if v == nil {
		if a.Required {
			return nil, fmt.Errorf("%s is required", a.Key)
		}
		return nil, nil
	}

	switch a.Kind {
	case KindString, KindLongText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", a.Key)
		}
		if a.Kind == KindString && a.Size > 0 && utf8.RuneCountInString(s) > a.Size {
			return nil, fmt.Errorf("%s exceeds %d characters", a.Key, a.Size)
		}
		return s, nil
	case KindEmail:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", a.Key)
		}
		if _, err := mail.ParseAddress(s); err != nil {
			return nil, fmt.Errorf("%s must be a valid email", a.Key)
		}
		return s, nil
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean", a.Key)
		}
		return b, nil
	case KindInteger:
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", a.Key)
		}
		if err := a.checkRange(float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", a.Key)
		}
		if err := a.checkRange(f); err != nil {
			return nil, err
		}
		return f, nil
	case KindStringArray:
		items, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a list of strings", a.Key)
		}
		for _, s := range items {
			if a.Size > 0 && utf8.RuneCountInString(s) > a.Size {
				return nil, fmt.Errorf("%s item exceeds %d characters", a.Key, a.Size)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%s has unknown kind %s", a.Key, a.Kind)
	}
}

func (a AttributeSpec) checkRange(f float64) error {
	if a.Min != nil && f < *a.Min {
		return fmt.Errorf("%s must be >= %v", a.Key, *a.Min)
	}
	if a.Max != nil && f > *a.Max {
		return fmt.Errorf("%s must be <= %v", a.Key, *a.Max)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not integral: %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is %T", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list: %T", v)
	}
}
