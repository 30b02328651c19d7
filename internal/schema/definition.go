package schema

import (
	"fmt"
	"regexp"
	"strings"
)

type IndexKind int

const (
	IndexKey IndexKind = iota + 1
	IndexUnique
	IndexFulltext
)

func (k IndexKind) String() string {
	switch k {
	case IndexKey:
		return "key"
	case IndexUnique:
		return "unique"
	case IndexFulltext:
		return "fulltext"
	default:
		return fmt.Sprintf("IndexKind(%d)", int(k))
	}
}

func ParseIndexKind(s string) (IndexKind, error) {
	switch s {
	case "key":
		return IndexKey, nil
	case "unique":
		return IndexUnique, nil
	case "fulltext":
		return IndexFulltext, nil
	}
	return 0, fmt.Errorf("unknown index kind %q", s)
}

func (k IndexKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *IndexKind) UnmarshalText(b []byte) error {
	parsed, err := ParseIndexKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IndexSpec declares an index over one or more attributes. Attribute order
// matters for compound indexes.
type IndexSpec struct {
	Key        string    `json:"key"`
	Kind       IndexKind `json:"kind"`
	Attributes []string  `json:"attributes"`
	Orders     []string  `json:"orders,omitempty"` // ASC or DESC per attribute
}

// OrderingSpec marks a collection whose documents are manually ordered by an
// integer Field within groups sharing the value of GroupBy. An empty GroupBy
// means the whole collection is one group.
type OrderingSpec struct {
	Field   string `json:"field"`
	GroupBy string `json:"group_by,omitempty"`
}

// Definition is the desired state of one collection.
type Definition struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Permissions      []Permission    `json:"permissions"`
	DocumentSecurity bool            `json:"document_security,omitempty"`
	Attributes       []AttributeSpec `json:"attributes"`
	Indexes          []IndexSpec     `json:"indexes,omitempty"`
	Ordering         *OrderingSpec   `json:"ordering,omitempty"`
}

// GetAttribute returns the attribute with the given key, or nil.
func (d *Definition) GetAttribute(key string) *AttributeSpec {
	for i := range d.Attributes {
		if d.Attributes[i].Key == key {
			return &d.Attributes[i]
		}
	}
	return nil
}

// System attributes every document carries.
const (
	FieldID        = "$id"
	FieldCreatedAt = "$createdAt"
	FieldUpdatedAt = "$updatedAt"
)

func IsSystemField(key string) bool {
	return key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt
}

// ValidationError lists every problem found in a definition.
type ValidationError struct {
	Collection string
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid definition %q: %s", e.Collection, strings.Join(e.Problems, "; "))
}

var (
	// Collection ids double as SQL table suffixes.
	collectionIDRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,35}$`)
	keyRe          = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,35}$`)
)

func ValidCollectionID(id string) bool { return collectionIDRe.MatchString(id) }

func ValidKey(key string) bool { return keyRe.MatchString(key) }

// Validate checks a definition for internal consistency.
func (d *Definition) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !ValidCollectionID(d.ID) {
		add("collection id %q must match %s", d.ID, collectionIDRe)
	}
	if d.Name == "" {
		add("name is required")
	}

	seen := make(map[string]bool, len(d.Attributes))
	for _, a := range d.Attributes {
		if !ValidKey(a.Key) {
			add("attribute key %q is invalid", a.Key)
		}
		if seen[a.Key] {
			add("attribute %q declared twice", a.Key)
		}
		seen[a.Key] = true
		if !a.Kind.Valid() {
			add("attribute %q has unknown kind", a.Key)
			continue
		}
		if (a.Kind == KindString || a.Kind == KindStringArray) && a.Size <= 0 {
			add("attribute %q needs a positive size", a.Key)
		}
		if a.Min != nil || a.Max != nil {
			if a.Kind != KindInteger && a.Kind != KindFloat {
				add("attribute %q: min/max only apply to numeric kinds", a.Key)
			} else if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
				add("attribute %q: min is greater than max", a.Key)
			}
		}
		if a.Default != nil {
			if a.Required {
				add("attribute %q: required attributes cannot have a default", a.Key)
			} else if _, err := a.Normalize(a.Default); err != nil {
				add("attribute %q: default: %v", a.Key, err)
			}
		}
	}

	indexSeen := make(map[string]bool, len(d.Indexes))
	for _, idx := range d.Indexes {
		if !ValidKey(idx.Key) {
			add("index key %q is invalid", idx.Key)
		}
		if indexSeen[idx.Key] {
			add("index %q declared twice", idx.Key)
		}
		indexSeen[idx.Key] = true
		if idx.Kind != IndexKey && idx.Kind != IndexUnique && idx.Kind != IndexFulltext {
			add("index %q has unknown kind", idx.Key)
		}
		if len(idx.Attributes) == 0 {
			add("index %q has no attributes", idx.Key)
		}
		for _, attr := range idx.Attributes {
			if !seen[attr] && !IsSystemField(attr) {
				add("index %q references unknown attribute %q", idx.Key, attr)
			}
		}
		if len(idx.Orders) > 0 && len(idx.Orders) != len(idx.Attributes) {
			add("index %q: orders must match attributes", idx.Key)
		}
		for _, o := range idx.Orders {
			if o != "ASC" && o != "DESC" {
				add("index %q: order %q must be ASC or DESC", idx.Key, o)
			}
		}
	}

	if d.Ordering != nil {
		field := d.GetAttribute(d.Ordering.Field)
		if field == nil || field.Kind != KindInteger {
			add("ordering field %q must be an integer attribute", d.Ordering.Field)
		}
		if d.Ordering.GroupBy != "" && d.GetAttribute(d.Ordering.GroupBy) == nil {
			add("ordering group %q is not an attribute", d.Ordering.GroupBy)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Collection: d.ID, Problems: problems}
	}
	return nil
}
