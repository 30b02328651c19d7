package memstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"portfolio-backend/internal/baas"
)

type matcher func(fields map[string]any) (bool, error)

// compileFilters turns filter queries into a single boolean expr program
// over the document fields. Attribute values are addressed as doc["key"]
// and query values as args[i], so neither is ever spliced into the source.
func compileFilters(filters []baas.Query) (matcher, error) {
	if len(filters) == 0 {
		return func(map[string]any) (bool, error) { return true, nil }, nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, q := range filters {
		if len(q.Values) == 0 {
			return nil, fmt.Errorf("%s on %s needs a value", q.Method, q.Attribute)
		}
		ref := fmt.Sprintf("doc[%q]", q.Attribute)
		arg := fmt.Sprintf("args[%d]", len(args))
		switch q.Method {
		case baas.MethodEqual:
			clauses = append(clauses, fmt.Sprintf("%s in %s", ref, arg))
			args = append(args, normalizeArgs(q.Values))
		case baas.MethodNotEqual:
			clauses = append(clauses, fmt.Sprintf("%s != %s", ref, arg))
			args = append(args, normalizeArg(q.Values[0]))
		case baas.MethodGreaterThan:
			clauses = append(clauses, fmt.Sprintf("(%s != nil && %s > %s)", ref, ref, arg))
			args = append(args, normalizeArg(q.Values[0]))
		case baas.MethodLessThan:
			clauses = append(clauses, fmt.Sprintf("(%s != nil && %s < %s)", ref, ref, arg))
			args = append(args, normalizeArg(q.Values[0]))
		default:
			return nil, fmt.Errorf("unsupported filter %s", q.Method)
		}
	}

	env := map[string]any{
		"doc":  map[string]any{},
		"args": []any{},
	}
	program, err := expr.Compile(strings.Join(clauses, " && "), expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return func(fields map[string]any) (bool, error) {
		return run(program, fields, args)
	}, nil
}

func run(program *vm.Program, fields map[string]any, args []any) (bool, error) {
	doc := make(map[string]any, len(fields))
	for k, v := range fields {
		doc[k] = normalizeArg(v)
	}
	out, err := expr.Run(program, map[string]any{"doc": doc, "args": args})
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

// normalizeArg renders timestamps in their sortable text form so they
// compare against query values the way a text column would.
func normalizeArg(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(baas.TimeLayout)
	}
	return v
}

func normalizeArgs(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalizeArg(v)
	}
	return out
}

// compareValues orders two attribute values. nil sorts first; numbers
// compare numerically regardless of their Go type.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
