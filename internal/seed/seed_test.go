package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/baas/memstore"
	"portfolio-backend/internal/provision"
	"portfolio-backend/internal/schema"
)

func provisioned(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	_, err := provision.New(store).Run(context.Background(), schema.Portfolio()...)
	require.NoError(t, err)
	return store
}

func TestSampleParses(t *testing.T) {
	data, err := Sample()
	require.NoError(t, err)
	assert.NotNil(t, data.Profile)
	assert.NotEmpty(t, data.Posts)
	assert.NotEmpty(t, data.Projects)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestDocumentIDIsDeterministic(t *testing.T) {
	assert.Equal(t, DocumentID("posts", "hello"), DocumentID("posts", "hello"))
	assert.NotEqual(t, DocumentID("posts", "hello"), DocumentID("projects", "hello"))
	assert.Len(t, DocumentID("posts", "hello"), 36)
}

func TestLoadSample(t *testing.T) {
	ctx := context.Background()
	store := provisioned(t)
	data, err := Sample()
	require.NoError(t, err)

	res, err := NewLoader(store).Load(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped, "the post in an unknown series")
	assert.Positive(t, res.Created)
	assert.Zero(t, res.Existing)

	// Ghost Category: a required reference falls back to the raw name.
	ghost, err := store.GetDocument(ctx, schema.CollectionPosts, DocumentID(schema.CollectionPosts, "links-this-month"))
	require.NoError(t, err)
	assert.Equal(t, "Ghost Category", ghost.Data["category_id"])

	_, err = store.GetDocument(ctx, schema.CollectionPosts, DocumentID(schema.CollectionPosts, "wal-in-ten-minutes"))
	assert.True(t, baas.IsNotFound(err), "optional reference miss skips the post")

	post, err := store.GetDocument(ctx, schema.CollectionPosts, DocumentID(schema.CollectionPosts, "modelling-collections"))
	require.NoError(t, err)
	assert.Equal(t, DocumentID(schema.CollectionCategories, "engineering"), post.Data["category_id"])
	assert.Equal(t, DocumentID(schema.CollectionSeries, "building-a-backend"), post.Data["series_id"])
	assert.Equal(t, int64(2), post.Data["series_position"])

	habit, err := store.GetDocument(ctx, schema.CollectionProjects, DocumentID(schema.CollectionProjects, "habit-tracker"))
	require.NoError(t, err)
	assert.Equal(t, []string{DocumentID(schema.CollectionTechnologies, "TypeScript"), "Svelte"}, habit.Data["technologies"])
	assert.Equal(t, int64(3), habit.Data["priority"])
}

func TestLoadTwiceReusesDocuments(t *testing.T) {
	ctx := context.Background()
	store := provisioned(t)
	data, err := Sample()
	require.NoError(t, err)

	first, err := NewLoader(store).Load(ctx, data)
	require.NoError(t, err)
	second, err := NewLoader(store).Load(ctx, data)
	require.NoError(t, err)

	assert.Zero(t, second.Created)
	assert.Equal(t, first.Created, second.Existing)

	posts, err := store.ListDocuments(ctx, schema.CollectionPosts)
	require.NoError(t, err)
	assert.Len(t, posts, len(data.Posts)-1)
}

func TestLookupUsesExistingRecords(t *testing.T) {
	ctx := context.Background()
	store := provisioned(t)
	_, err := store.CreateDocument(ctx, schema.CollectionCategories, "hand-made", map[string]any{"name": "Ghost Category", "slug": "ghost"})
	require.NoError(t, err)

	data := &Data{Posts: []Post{{Title: "Boo", Slug: "boo", Category: "Ghost Category"}}}
	res, err := NewLoader(store).Load(ctx, data)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	post, err := store.GetDocument(ctx, schema.CollectionPosts, DocumentID(schema.CollectionPosts, "boo"))
	require.NoError(t, err)
	assert.Equal(t, "hand-made", post.Data["category_id"])
}

func TestBackendErrorStopsLoad(t *testing.T) {
	ctx := context.Background()
	store := provisioned(t)
	store.SetFault(func(c memstore.Call) error {
		if c.Op == memstore.OpCreateDocument && c.Collection == schema.CollectionTechnologies {
			return &baas.Error{Status: 500, Message: "down"}
		}
		return nil
	})

	data, err := Sample()
	require.NoError(t, err)
	_, err = NewLoader(store).Load(ctx, data)
	require.Error(t, err)
	assert.Equal(t, 500, baas.StatusOf(err))
}
