package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/baas/memstore"
	"portfolio-backend/internal/schema"
)

func postsDef() schema.Definition {
	return schema.Definition{
		ID:          "posts",
		Name:        "Posts",
		Permissions: []schema.Permission{schema.Read(schema.RoleAny)},
		Attributes: []schema.AttributeSpec{
			schema.String("title", 128).Req(),
			schema.String("slug", 128).Req(),
			schema.Boolean("published").WithDefault(false),
		},
		Indexes: []schema.IndexSpec{
			{Key: "slug_unique", Kind: schema.IndexUnique, Attributes: []string{"slug"}},
			{Key: "published_idx", Kind: schema.IndexKey, Attributes: []string{"published"}},
		},
	}
}

func ops(calls []memstore.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = string(c.Op) + ":" + c.Key
	}
	return out
}

func TestEnsureCreatesInOrder(t *testing.T) {
	store := memstore.New()
	p := New(store)

	cr, err := p.Ensure(context.Background(), postsDef())
	require.NoError(t, err)
	assert.True(t, cr.Created)
	assert.Equal(t, []string{"title", "slug", "published"}, cr.AttributesCreated)
	assert.Equal(t, []string{"slug_unique", "published_idx"}, cr.IndexesCreated)

	assert.Equal(t, []string{
		"getCollection:", "createCollection:",
		"createAttribute:title", "createAttribute:slug", "createAttribute:published",
		"createIndex:slug_unique", "createIndex:published_idx",
	}, ops(store.Calls()))
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := New(store)

	_, err := p.Run(ctx, schema.Portfolio()...)
	require.NoError(t, err)
	store.ResetCalls()

	report, err := p.Run(ctx, schema.Portfolio()...)
	require.NoError(t, err)
	require.Len(t, report.Collections, len(schema.Portfolio()))
	for _, cr := range report.Collections {
		assert.False(t, cr.Created, cr.ID)
		assert.Empty(t, cr.AttributesCreated, cr.ID)
		assert.Empty(t, cr.IndexesCreated, cr.ID)
	}
	for _, c := range store.Calls() {
		assert.NotEqual(t, memstore.OpCreateCollection, c.Op, "second run must not create collections")
	}

	def := schema.Portfolio()[4]
	keys := make([]string, len(def.Attributes))
	for i, a := range def.Attributes {
		keys[i] = a.Key
	}
	assert.Equal(t, keys, store.AttributeKeys(def.ID))
}

func TestExistingCollectionIsUpdated(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	_, err := store.CreateCollection(ctx, "posts", "Old name", nil, false)
	require.NoError(t, err)

	def := postsDef()
	def.DocumentSecurity = true
	cr, err := New(store).Ensure(ctx, def)
	require.NoError(t, err)
	assert.False(t, cr.Created)

	col, err := store.GetCollection(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, "Posts", col.Name)
	assert.Equal(t, []schema.Permission{schema.Read(schema.RoleAny)}, col.Permissions)
	assert.True(t, col.DocumentSecurity)
}

func TestConflictDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	store := memstore.New()
	_, err := store.CreateCollection(ctx, "posts", "Posts", nil, false)
	require.NoError(t, err)
	_, err = store.CreateAttribute(ctx, "posts", schema.String("slug", 128).Req())
	require.NoError(t, err)

	cr, err := New(store, WithLogger(zap.New(core))).Ensure(ctx, postsDef())
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "published"}, cr.AttributesCreated)
	assert.Equal(t, []string{"slug"}, cr.AttributesExisting)
	assert.Len(t, cr.IndexesCreated, 2)

	entries := logs.FilterMessage("attribute already exists").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slug", entries[0].ContextMap()["attribute"])
}

func TestNonConflictErrorAborts(t *testing.T) {
	ctx := context.Background()
	denied := &baas.Error{Status: 401, Type: "user_unauthorized", Message: "missing scope"}
	store := memstore.New(memstore.WithFault(func(c memstore.Call) error {
		if c.Op == memstore.OpCreateAttribute && c.Key == "slug" {
			return denied
		}
		return nil
	}))

	_, err := New(store).Run(ctx, postsDef())
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "posts")
	assert.Contains(t, err.Error(), "slug")

	assert.Equal(t, []string{
		"getCollection:", "createCollection:",
		"createAttribute:title", "createAttribute:slug",
	}, ops(store.Calls()), "no further attribute or index calls")
}

func TestIndexConflictContinues(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(memstore.WithFault(func(c memstore.Call) error {
		if c.Op == memstore.OpCreateIndex && c.Key == "slug_unique" {
			return baas.Conflict("index exists")
		}
		return nil
	}))

	cr, err := New(store).Ensure(ctx, postsDef())
	require.NoError(t, err)
	assert.Equal(t, []string{"slug_unique"}, cr.IndexesExisting)
	assert.Equal(t, []string{"published_idx"}, cr.IndexesCreated)
}

func TestGetCollectionFailureIsFatal(t *testing.T) {
	boom := errors.New("network down")
	store := memstore.New(memstore.WithFault(func(c memstore.Call) error {
		if c.Op == memstore.OpGetCollection {
			return boom
		}
		return nil
	}))

	_, err := New(store).Ensure(context.Background(), postsDef())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, store.Calls(), 1)
}

func TestRunValidatesFirst(t *testing.T) {
	store := memstore.New()
	bad := postsDef()
	bad.Indexes = append(bad.Indexes, schema.IndexSpec{Key: "ghost", Kind: schema.IndexKey, Attributes: []string{"missing"}})

	_, err := New(store).Run(context.Background(), postsDef(), bad)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, store.Calls(), "nothing touches the backend before every definition is valid")
}

func TestRunStopsAtFirstFailedCollection(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(memstore.WithFault(func(c memstore.Call) error {
		if c.Op == memstore.OpCreateCollection && c.Collection == "second" {
			return &baas.Error{Status: 500, Message: "boom"}
		}
		return nil
	}))
	first, second, third := postsDef(), postsDef(), postsDef()
	first.ID, second.ID, third.ID = "first", "second", "third"

	report, err := New(store).Run(ctx, first, second, third)
	require.Error(t, err)
	require.Len(t, report.Collections, 1)
	assert.Equal(t, "first", report.Collections[0].ID)
	_, err = store.GetCollection(ctx, "third")
	assert.True(t, baas.IsNotFound(err))
}

func TestAttributeDelayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memstore.New()

	_, err := New(store, WithAttributeDelay(time.Hour)).Ensure(ctx, postsDef())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.IndexKeys("posts"))
}
