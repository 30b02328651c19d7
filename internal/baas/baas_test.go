package baas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backend/internal/schema"
)

func TestErrorClassification(t *testing.T) {
	conflict := Conflict("attribute %s already exists", "title")
	wrapped := fmt.Errorf("create attribute: %w", conflict)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, 409, StatusOf(wrapped))

	assert.True(t, IsNotFound(NotFound("collection %s", "posts")))
	assert.False(t, IsConflict(Invalid("bad size")))
	assert.False(t, IsConflict(fmt.Errorf("network down")))
	assert.Equal(t, 0, StatusOf(nil))
}

func TestPlanQueries(t *testing.T) {
	p := PlanQueries([]Query{
		Equal("series_id", "s1"),
		OrderAsc("series_position"),
		Limit(10),
		Offset(20),
		GreaterThan("priority", 3),
	})

	assert.Len(t, p.Filters, 2)
	assert.Equal(t, []Query{OrderAsc("series_position")}, p.Orders)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 20, p.Offset)
}

func TestQueryString(t *testing.T) {
	assert.JSONEq(t, `{"method":"equal","attribute":"slug","values":["hello"]}`, Equal("slug", "hello").String())
	assert.JSONEq(t, `{"method":"limit","values":[5]}`, Limit(5).String())
}

func TestResolveID(t *testing.T) {
	assert.Equal(t, "fixed", ResolveID("fixed"))
	assert.Len(t, ResolveID(UniqueID), 36)
	assert.NotEqual(t, ResolveID(""), ResolveID(""))
}

func TestNormalizeData(t *testing.T) {
	attrs := []schema.AttributeSpec{
		schema.String("title", 8).Req(),
		schema.Boolean("published").WithDefault(false),
		schema.Integer("priority"),
	}

	out, err := NormalizeData(attrs, map[string]any{"title": "hi", "priority": 2.0}, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "hi", "published": false, "priority": int64(2)}, out)

	_, err = NormalizeData(attrs, map[string]any{"published": true}, true)
	assert.Equal(t, 400, StatusOf(err), "required attribute missing on create")

	out, err = NormalizeData(attrs, map[string]any{"published": true}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"published": true}, out, "update only touches given keys")

	_, err = NormalizeData(attrs, map[string]any{"colour": "red"}, false)
	assert.ErrorContains(t, err, "unknown attribute colour")

	_, err = NormalizeData(attrs, map[string]any{"title": "far too long"}, false)
	assert.Equal(t, 400, StatusOf(err))
}

type pagedDocs struct {
	Documents
	total int
	calls int
}

func (p *pagedDocs) ListDocuments(_ context.Context, _ string, queries ...Query) ([]*Document, error) {
	p.calls++
	plan := PlanQueries(queries)
	var out []*Document
	for i := plan.Offset; i < p.total && len(out) < plan.Limit; i++ {
		out = append(out, &Document{ID: fmt.Sprint(i)})
	}
	return out, nil
}

func TestListAll(t *testing.T) {
	docs := &pagedDocs{total: 25}
	all, err := ListAll(context.Background(), docs, "c", 10)
	require.NoError(t, err)
	assert.Len(t, all, 25)
	assert.Equal(t, 3, docs.calls)

	docs = &pagedDocs{total: 20}
	all, err = ListAll(context.Background(), docs, "c", 10)
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.Equal(t, 3, docs.calls, "a full last page needs one more empty read")
}
