package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
	// maxPage keeps (page-1)*per_page well inside a 32-bit offset.
	maxPage = 100000
)

type listPlan struct {
	Queries []baas.Query
	Page    int
	PerPage int
}

// parseListQuery turns filter[field]=v, filter[field.op]=v, sort=-a,b,
// page and per_page into backend queries. Supported ops are eq, neq, gt
// and lt.
func parseListQuery(c *fiber.Ctx, def *schema.Definition) (*listPlan, error) {
	plan := &listPlan{Page: 1, PerPage: defaultPerPage}

	for key, val := range c.Queries() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field, op := parseFilterKey(key[7 : len(key)-1])
		if !knownField(def, field) {
			return nil, NewAppError("UNKNOWN_FIELD", fiber.StatusBadRequest, "Unknown filter field: "+field)
		}
		coerced, err := coerceValue(def.GetAttribute(field), val)
		if err != nil {
			return nil, invalidPayload(fmt.Sprintf("Invalid filter value for %s: %v", field, err))
		}
		switch op {
		case "eq":
			plan.Queries = append(plan.Queries, baas.Equal(field, coerced))
		case "neq":
			plan.Queries = append(plan.Queries, baas.NotEqual(field, coerced))
		case "gt":
			plan.Queries = append(plan.Queries, baas.GreaterThan(field, coerced))
		case "lt":
			plan.Queries = append(plan.Queries, baas.LessThan(field, coerced))
		default:
			return nil, invalidPayload("Unknown filter operator: " + op)
		}
	}

	if sortParam := c.Query("sort"); sortParam != "" {
		for _, part := range strings.Split(sortParam, ",") {
			part = strings.TrimSpace(part)
			desc := strings.HasPrefix(part, "-")
			field := strings.TrimPrefix(part, "-")
			if !knownField(def, field) {
				return nil, NewAppError("UNKNOWN_FIELD", fiber.StatusBadRequest, "Unknown sort field: "+field)
			}
			if desc {
				plan.Queries = append(plan.Queries, baas.OrderDesc(field))
			} else {
				plan.Queries = append(plan.Queries, baas.OrderAsc(field))
			}
		}
	} else if def.Ordering != nil {
		plan.Queries = append(plan.Queries, baas.OrderAsc(def.Ordering.Field))
	}

	plan.Page, plan.PerPage = parsePage(c)
	plan.Queries = append(plan.Queries,
		baas.Limit(plan.PerPage),
		baas.Offset((plan.Page-1)*plan.PerPage),
	)
	return plan, nil
}

func parsePage(c *fiber.Ctx) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = min(v, maxPage)
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 {
		perPage = min(v, maxPerPage)
	}
	return page, perPage
}

func parseFilterKey(inner string) (field, op string) {
	if i := strings.LastIndex(inner, "."); i > 0 {
		return inner[:i], inner[i+1:]
	}
	return inner, "eq"
}

func knownField(def *schema.Definition, field string) bool {
	return schema.IsSystemField(field) || def.GetAttribute(field) != nil
}

// coerceValue parses a query string value into the attribute's kind. A nil
// attribute is a system field and stays a string.
func coerceValue(attr *schema.AttributeSpec, raw string) (any, error) {
	if attr == nil {
		return raw, nil
	}
	switch attr.Kind {
	case schema.KindString, schema.KindLongText, schema.KindEmail:
		return raw, nil
	case schema.KindBoolean:
		return strconv.ParseBool(raw)
	case schema.KindInteger:
		return strconv.ParseInt(raw, 10, 64)
	case schema.KindFloat:
		return strconv.ParseFloat(raw, 64)
	case schema.KindStringArray:
		return nil, fmt.Errorf("%s is a list and cannot be filtered", attr.Key)
	default:
		return nil, fmt.Errorf("%s has unknown kind %s", attr.Key, attr.Kind)
	}
}
