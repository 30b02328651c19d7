package baas

import (
	"context"
	"encoding/json"
)

type Method string

const (
	MethodEqual       Method = "equal"
	MethodNotEqual    Method = "notEqual"
	MethodGreaterThan Method = "greaterThan"
	MethodLessThan    Method = "lessThan"
	MethodOrderAsc    Method = "orderAsc"
	MethodOrderDesc   Method = "orderDesc"
	MethodLimit       Method = "limit"
	MethodOffset      Method = "offset"
)

// Query is one clause of a document listing. It serialises to the JSON
// query object hosted backends accept.
type Query struct {
	Method    Method `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// Equal matches documents whose attribute equals any of values.
func Equal(attr string, values ...any) Query {
	return Query{Method: MethodEqual, Attribute: attr, Values: values}
}

func NotEqual(attr string, value any) Query {
	return Query{Method: MethodNotEqual, Attribute: attr, Values: []any{value}}
}

func GreaterThan(attr string, value any) Query {
	return Query{Method: MethodGreaterThan, Attribute: attr, Values: []any{value}}
}

func LessThan(attr string, value any) Query {
	return Query{Method: MethodLessThan, Attribute: attr, Values: []any{value}}
}

func OrderAsc(attr string) Query  { return Query{Method: MethodOrderAsc, Attribute: attr} }
func OrderDesc(attr string) Query { return Query{Method: MethodOrderDesc, Attribute: attr} }

func Limit(n int) Query  { return Query{Method: MethodLimit, Values: []any{n}} }
func Offset(n int) Query { return Query{Method: MethodOffset, Values: []any{n}} }

func (q Query) String() string {
	b, _ := json.Marshal(q)
	return string(b)
}

// IsFilter reports whether q narrows the result set.
func (q Query) IsFilter() bool {
	switch q.Method {
	case MethodEqual, MethodNotEqual, MethodGreaterThan, MethodLessThan:
		return true
	}
	return false
}

// Plan is a query list split by role, the form SQL and in-memory backends
// evaluate.
type Plan struct {
	Filters []Query
	Orders  []Query
	Limit   int // 0 means unlimited
	Offset  int
}

func PlanQueries(queries []Query) Plan {
	var p Plan
	for _, q := range queries {
		switch {
		case q.IsFilter():
			p.Filters = append(p.Filters, q)
		case q.Method == MethodOrderAsc || q.Method == MethodOrderDesc:
			p.Orders = append(p.Orders, q)
		case q.Method == MethodLimit:
			p.Limit = intValue(q.Values)
		case q.Method == MethodOffset:
			p.Offset = intValue(q.Values)
		}
	}
	return p
}

func intValue(values []any) int {
	if len(values) == 0 {
		return 0
	}
	switch n := values[0].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// ListAll pages through every document matching queries, pageSize at a
// time. Hosted backends cap unpaged listings, so callers that need the
// whole set use this instead of a bare ListDocuments.
func ListAll(ctx context.Context, docs Documents, collectionID string, pageSize int, queries ...Query) ([]*Document, error) {
	var out []*Document
	for offset := 0; ; offset += pageSize {
		page := append(append([]Query(nil), queries...), Limit(pageSize), Offset(offset))
		batch, err := docs.ListDocuments(ctx, collectionID, page...)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < pageSize {
			return out, nil
		}
	}
}
