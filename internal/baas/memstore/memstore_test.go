package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newProjects(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New(WithClock(fixedClock()))
	_, err := s.CreateCollection(ctx, "projects", "Projects", nil, false)
	require.NoError(t, err)
	for _, attr := range []schema.AttributeSpec{
		schema.String("title", 128).Req(),
		schema.String("slug", 128).Req(),
		schema.Integer("priority").WithDefault(0),
		schema.Boolean("featured").WithDefault(false),
		schema.StringArray("tags", 32),
	} {
		_, err := s.CreateAttribute(ctx, "projects", attr)
		require.NoError(t, err)
	}
	_, err = s.CreateIndex(ctx, "projects", schema.IndexSpec{Key: "slug_unique", Kind: schema.IndexUnique, Attributes: []string{"slug"}})
	require.NoError(t, err)
	return s
}

func TestSchemaConflicts(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)

	_, err := s.CreateCollection(ctx, "projects", "Projects", nil, false)
	assert.True(t, baas.IsConflict(err))

	_, err = s.CreateAttribute(ctx, "projects", schema.String("title", 64))
	assert.True(t, baas.IsConflict(err))

	_, err = s.CreateIndex(ctx, "projects", schema.IndexSpec{Key: "slug_unique", Kind: schema.IndexUnique, Attributes: []string{"slug"}})
	assert.True(t, baas.IsConflict(err))

	_, err = s.CreateAttribute(ctx, "missing", schema.String("title", 64))
	assert.True(t, baas.IsNotFound(err))

	_, err = s.GetCollection(ctx, "missing")
	assert.True(t, baas.IsNotFound(err))

	_, err = s.CreateIndex(ctx, "projects", schema.IndexSpec{Key: "bad", Kind: schema.IndexKey, Attributes: []string{"nope"}})
	assert.Equal(t, 400, baas.StatusOf(err))

	assert.Equal(t, []string{"title", "slug", "priority", "featured", "tags"}, s.AttributeKeys("projects"))
	assert.Equal(t, []string{"slug_unique"}, s.IndexKeys("projects"))
}

func TestRejectedAttributeIsNotRegistered(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)

	_, err := s.CreateAttribute(ctx, "projects", schema.Integer("views").WithDefault("oops"))
	assert.Equal(t, 400, baas.StatusOf(err))
	assert.NotContains(t, s.AttributeKeys("projects"), "views")

	_, err = s.CreateAttribute(ctx, "projects", schema.Integer("views").WithDefault(0))
	require.NoError(t, err)
	assert.Contains(t, s.AttributeKeys("projects"), "views")
}

func TestUpdateCollection(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)

	c, err := s.UpdateCollection(ctx, "projects", "All Projects", []schema.Permission{schema.Read(schema.RoleAny)}, false)
	require.NoError(t, err)
	assert.Equal(t, "All Projects", c.Name)

	got, err := s.GetCollection(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, []schema.Permission{schema.Read(schema.RoleAny)}, got.Permissions)

	_, err = s.UpdateCollection(ctx, "missing", "x", nil, false)
	assert.True(t, baas.IsNotFound(err))
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)

	doc, err := s.CreateDocument(ctx, "projects", "p1", map[string]any{"title": "Rocket", "slug": "rocket"})
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, int64(0), doc.Data["priority"])
	assert.Equal(t, false, doc.Data["featured"])
	_, hasTags := doc.Data["tags"]
	assert.False(t, hasTags)

	_, err = s.CreateDocument(ctx, "projects", "p1", map[string]any{"title": "Again", "slug": "again"})
	assert.True(t, baas.IsConflict(err))

	_, err = s.CreateDocument(ctx, "projects", "p2", map[string]any{"title": "Dup", "slug": "rocket"})
	assert.True(t, baas.IsConflict(err), "unique index on slug")

	_, err = s.CreateDocument(ctx, "projects", "p3", map[string]any{"slug": "no-title"})
	assert.Equal(t, 400, baas.StatusOf(err))

	_, err = s.CreateDocument(ctx, "projects", "p4", map[string]any{"title": "x", "slug": "x", "color": "red"})
	assert.Equal(t, 400, baas.StatusOf(err))

	updated, err := s.UpdateDocument(ctx, "projects", "p1", map[string]any{"priority": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.Data["priority"])
	assert.Equal(t, "Rocket", updated.Data["title"])
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	require.NoError(t, s.DeleteDocument(ctx, "projects", "p1"))
	_, err = s.GetDocument(ctx, "projects", "p1")
	assert.True(t, baas.IsNotFound(err))
	assert.True(t, baas.IsNotFound(s.DeleteDocument(ctx, "projects", "p1")))
}

func TestGeneratedID(t *testing.T) {
	s := newProjects(t)
	doc, err := s.CreateDocument(context.Background(), "projects", baas.UniqueID, map[string]any{"title": "a", "slug": "a"})
	require.NoError(t, err)
	assert.Len(t, doc.ID, 36)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)
	doc, err := s.CreateDocument(ctx, "projects", "p1", map[string]any{"title": "a", "slug": "a", "tags": []string{"go"}})
	require.NoError(t, err)

	doc.Data["title"] = "mutated"
	doc.Data["tags"].([]string)[0] = "rust"

	got, err := s.GetDocument(ctx, "projects", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Data["title"])
	assert.Equal(t, []string{"go"}, got.Data["tags"])
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	s := newProjects(t)
	for _, p := range []map[string]any{
		{"title": "C", "slug": "c", "priority": 3, "featured": true},
		{"title": "A", "slug": "a", "priority": 1},
		{"title": "B", "slug": "b", "priority": 2, "featured": true},
		{"title": "D", "slug": "d", "priority": 2},
	} {
		_, err := s.CreateDocument(ctx, "projects", p["slug"].(string), p)
		require.NoError(t, err)
	}

	ids := func(docs []*baas.Document) []string {
		out := make([]string, len(docs))
		for i, d := range docs {
			out[i] = d.ID
		}
		return out
	}

	all, err := s.ListDocuments(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(all), "insertion order by default")

	sorted, err := s.ListDocuments(ctx, "projects", baas.OrderAsc("priority"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids(sorted), "ties keep insertion order")

	desc, err := s.ListDocuments(ctx, "projects", baas.OrderDesc("priority"), baas.OrderAsc("title"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(desc))

	featured, err := s.ListDocuments(ctx, "projects", baas.Equal("featured", true), baas.OrderAsc("priority"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(featured))

	oneOf, err := s.ListDocuments(ctx, "projects", baas.Equal("slug", "a", "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, ids(oneOf))

	gt, err := s.ListDocuments(ctx, "projects", baas.GreaterThan("priority", 1), baas.LessThan("priority", 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, ids(gt))

	ne, err := s.ListDocuments(ctx, "projects", baas.NotEqual("slug", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, ids(ne))

	page, err := s.ListDocuments(ctx, "projects", baas.OrderAsc("title"), baas.Offset(1), baas.Limit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(page))

	_, err = s.ListDocuments(ctx, "projects", baas.Offset(-1))
	assert.Equal(t, 400, baas.StatusOf(err))

	byID, err := s.ListDocuments(ctx, "projects", baas.Equal(schema.FieldID, "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(byID))
}

func TestCallsAndFaults(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := New(WithFault(func(c Call) error {
		if c.Op == OpCreateAttribute && c.Key == "bad" {
			return boom
		}
		return nil
	}))

	_, err := s.CreateCollection(ctx, "c", "C", nil, false)
	require.NoError(t, err)
	_, err = s.CreateAttribute(ctx, "c", schema.String("bad", 8))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.AttributeKeys("c"), "faulted call has no effect")

	assert.Equal(t, []Call{
		{Op: OpCreateCollection, Collection: "c"},
		{Op: OpCreateAttribute, Collection: "c", Key: "bad"},
	}, s.Calls())

	s.ResetCalls()
	s.SetFault(nil)
	_, err = s.CreateAttribute(ctx, "c", schema.String("bad", 8))
	require.NoError(t, err)
	assert.Len(t, s.Calls(), 1)
}
