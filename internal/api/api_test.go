package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/baas/memstore"
	"portfolio-backend/internal/provision"
	"portfolio-backend/internal/schema"
	"portfolio-backend/internal/seed"
)

const testSecret = "api-test-secret"

type harness struct {
	app   *fiber.App
	store *memstore.Store
	token string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	defs := schema.Portfolio()
	prov := provision.New(store)
	_, err := prov.Run(ctx, defs...)
	require.NoError(t, err)

	data, err := seed.Sample()
	require.NoError(t, err)
	_, err = seed.NewLoader(store).Load(ctx, data)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	app := New(Deps{
		Docs:        store,
		Registry:    schema.NewRegistry(defs...),
		Provisioner: prov,
		Operator: auth.Operator{
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			Secret:       testSecret,
			TTL:          time.Hour,
		},
	})
	token, err := auth.GenerateAccessToken("admin@example.com", []string{auth.RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)
	return &harness{app: app, store: store, token: token}
}

func (h *harness) do(t *testing.T, method, path string, body any, authed bool) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "error envelope: %v", body)
	code, _ := e["code"].(string)
	return code
}

func list(t *testing.T, body map[string]any) []any {
	t.Helper()
	items, ok := body["data"].([]any)
	require.True(t, ok, "data list: %v", body)
	return items
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, "GET", "/health", nil, false)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestPublicPosts(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "GET", "/api/posts?per_page=2", nil, false)
	require.Equal(t, http.StatusOK, status)
	posts := list(t, body)
	require.Len(t, posts, 2)
	assert.Equal(t, "links-this-month", posts[0].(map[string]any)["slug"])

	status, body = h.do(t, "GET", "/api/posts?page=9223372036854775807&per_page=100", nil, false)
	require.Equal(t, http.StatusOK, status, body)
	assert.Empty(t, list(t, body))
	assert.Equal(t, 100000.0, body["meta"].(map[string]any)["page"])

	status, body = h.do(t, "GET", "/api/posts/btree-indexes", nil, false)
	require.Equal(t, http.StatusOK, status)
	post := body["data"].(map[string]any)
	assert.Equal(t, seed.DocumentID(schema.CollectionPosts, "btree-indexes"), post["$id"])

	status, body = h.do(t, "GET", "/api/posts/reordering-lists", nil, false)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestPublicLists(t *testing.T) {
	h := newHarness(t)

	_, body := h.do(t, "GET", "/api/projects?featured=true", nil, false)
	assert.Len(t, list(t, body), 2)

	_, body = h.do(t, "GET", "/api/social-links", nil, false)
	assert.Len(t, list(t, body), 3)

	_, body = h.do(t, "GET", "/api/tech-stack", nil, false)
	assert.Len(t, list(t, body), 4)

	series := seed.DocumentID(schema.CollectionSeries, "building-a-backend")
	_, body = h.do(t, "GET", "/api/series/"+series+"/posts", nil, false)
	assert.Len(t, list(t, body), 2)

	status, body := h.do(t, "GET", "/api/profile", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Alex Rivera", body["data"].(map[string]any)["name"])
}

func TestGuestbookFlow(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "POST", "/api/guestbook", map[string]any{"name": "Kim", "message": "Nice site"}, false)
	require.Equal(t, http.StatusCreated, status)
	entry := body["data"].(map[string]any)
	assert.Equal(t, false, entry["approved"])
	id := entry["$id"].(string)

	_, body = h.do(t, "GET", "/api/guestbook", nil, false)
	assert.Len(t, list(t, body), 1, "only the seeded approved entry")

	status, _ = h.do(t, "POST", "/api/_admin/guestbook/"+id+"/approve", nil, false)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, "POST", "/api/_admin/guestbook/"+id+"/approve", nil, true)
	require.Equal(t, http.StatusOK, status)
	_, body = h.do(t, "GET", "/api/guestbook", nil, false)
	assert.Len(t, list(t, body), 2)
}

func TestGuestbookHidesEmailPublicly(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "POST", "/api/guestbook", map[string]any{"name": "Kim", "email": "kim@private.example", "message": "hi"}, false)
	require.Equal(t, http.StatusCreated, status)
	entry := body["data"].(map[string]any)
	assert.NotContains(t, entry, "email")
	id := entry["$id"].(string)

	status, _ = h.do(t, "POST", "/api/_admin/guestbook/"+id+"/approve", nil, true)
	require.Equal(t, http.StatusOK, status)

	_, body = h.do(t, "GET", "/api/guestbook", nil, false)
	entries := list(t, body)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotContains(t, e.(map[string]any), "email")
	}

	status, body = h.do(t, "GET", "/api/_admin/collections/guestbook/documents/"+id, nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kim@private.example", body["data"].(map[string]any)["email"])
}

func TestGuestbookValidation(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "POST", "/api/guestbook", map[string]any{"name": "Kim"}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	status, _ = h.do(t, "POST", "/api/guestbook", map[string]any{"name": "Kim", "message": "hi", "approved": true}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = h.do(t, "POST", "/api/guestbook", map[string]any{"name": "Kim", "message": "hi", "email": "not-an-email"}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestVisitorHit(t *testing.T) {
	h := newHarness(t)
	for want := 1.0; want <= 2; want++ {
		status, body := h.do(t, "POST", "/api/visitors/hit", nil, false)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, want, body["data"].(map[string]any)["count"])
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "POST", "/api/auth/login", map[string]any{"email": "admin@example.com", "password": "hunter2"}, false)
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["access_token"].(string)
	claims, err := auth.ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())

	status, body = h.do(t, "POST", "/api/auth/login", map[string]any{"email": "admin@example.com", "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestAdminCreateAppendsAtMaximumPosition(t *testing.T) {
	h := newHarness(t)
	base := "/api/_admin/collections/social_links/documents"

	status, body := h.do(t, "POST", base, map[string]any{"$id": "last", "platform": "Last", "url": "https://last.example", "priority": 10000}, true)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = h.do(t, "POST", base, map[string]any{"$id": "later", "platform": "Later", "url": "https://later.example"}, true)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, 10000.0, body["data"].(map[string]any)["priority"])
}

func TestAdminRequiresToken(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, "GET", "/api/_admin/collections/projects/documents", nil, false)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestAdminDocumentCRUD(t *testing.T) {
	h := newHarness(t)
	base := "/api/_admin/collections/social_links/documents"

	status, body := h.do(t, "POST", base, map[string]any{"$id": "bsky", "platform": "Bluesky", "url": "https://bsky.app/profile/example"}, true)
	require.Equal(t, http.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	assert.Equal(t, "bsky", created["$id"])
	assert.Equal(t, 4.0, created["priority"], "appended after the seeded links")

	status, body = h.do(t, "PATCH", base+"/bsky", map[string]any{"icon": "butterfly"}, true)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "butterfly", body["data"].(map[string]any)["icon"])

	status, body = h.do(t, "GET", base+"?filter[platform]=Bluesky", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list(t, body), 1)

	status, body = h.do(t, "GET", base+"?sort=-priority&per_page=1", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bsky", list(t, body)[0].(map[string]any)["$id"])

	status, _ = h.do(t, "DELETE", base+"/bsky", nil, true)
	require.Equal(t, http.StatusOK, status)
	status, body = h.do(t, "GET", base+"/bsky", nil, true)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestAdminValidation(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, "GET", "/api/_admin/collections/widgets/documents", nil, true)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNKNOWN_COLLECTION", errorCode(t, body))

	status, body = h.do(t, "POST", "/api/_admin/collections/projects/documents", map[string]any{"title": "X", "slug": "x", "colour": "red"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	details := body["error"].(map[string]any)["details"].([]any)
	assert.Equal(t, "colour", details[0].(map[string]any)["field"])

	status, _ = h.do(t, "POST", "/api/_admin/collections/projects/documents", map[string]any{"slug": "x"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "missing required title")

	status, _ = h.do(t, "PATCH", "/api/_admin/collections/projects/documents/whatever", map[string]any{"priority": "high"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = h.do(t, "GET", "/api/_admin/collections/projects/documents?filter[colour]=red", nil, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_FIELD", errorCode(t, body))
}

func TestAdminDuplicateSlug(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, "POST", "/api/_admin/collections/categories/documents", map[string]any{"name": "Again", "slug": "engineering"}, true)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, body))
}

func TestAdminMove(t *testing.T) {
	h := newHarness(t)
	queue := seed.DocumentID(schema.CollectionProjects, "queue-inspector")
	path := "/api/_admin/collections/projects/documents/" + queue + "/move"

	status, body := h.do(t, "POST", path, map[string]any{"direction": "up"}, true)
	require.Equal(t, http.StatusOK, status, body)
	updates := body["data"].(map[string]any)["updates"].([]any)
	assert.Len(t, updates, 2)

	_, body = h.do(t, "GET", "/api/projects", nil, false)
	assert.Equal(t, "queue-inspector", list(t, body)[0].(map[string]any)["slug"])

	status, body = h.do(t, "POST", path, map[string]any{"direction": "sideways"}, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PAYLOAD", errorCode(t, body))

	status, body = h.do(t, "POST", "/api/_admin/collections/guestbook/documents/x/move", map[string]any{"direction": "up"}, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_ORDERED", errorCode(t, body))
}

func TestAdminMovePartialFailure(t *testing.T) {
	h := newHarness(t)
	first := seed.DocumentID(schema.CollectionSocialLinks, "GitHub")
	second := seed.DocumentID(schema.CollectionSocialLinks, "LinkedIn")
	h.store.SetFault(func(c memstore.Call) error {
		if c.Op == memstore.OpUpdateDocument && c.Key == first {
			return &baas.Error{Status: 503, Message: "unavailable"}
		}
		return nil
	})

	status, body := h.do(t, "POST", "/api/_admin/collections/social_links/documents/"+second+"/move", map[string]any{"direction": "up"}, true)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "PARTIAL_MOVE", errorCode(t, body))
}

func TestAdminProvisionIsIdempotent(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, "POST", "/api/_admin/provision", nil, true)
	require.Equal(t, http.StatusOK, status)

	collections := body["data"].(map[string]any)["collections"].([]any)
	assert.Len(t, collections, len(schema.Portfolio()))
	for _, c := range collections {
		report := c.(map[string]any)
		assert.Equal(t, false, report["created"])
		assert.Empty(t, report["attributes_created"])
	}
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	h := newHarness(t)
	h.store.SetFault(func(c memstore.Call) error {
		if c.Op == memstore.OpListDocuments {
			return &baas.Error{Status: 500, Message: "down"}
		}
		return nil
	})
	status, body := h.do(t, "GET", "/api/projects", nil, false)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "BACKEND_ERROR", errorCode(t, body))
}
