// Package sqlbackend implements baas.Client on a self-hosted PostgreSQL or
// SQLite database. Collection, attribute and index definitions live in the
// _collections, _attributes and _indexes tables; documents live in one
// doc_<collection> table per collection.
package sqlbackend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
	"portfolio-backend/internal/store"
)

type Backend struct {
	store    *store.Store
	migrator *store.Migrator
	now      func() time.Time
}

type Option func(*Backend)

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New returns a backend on s. The metadata tables must exist; see
// store.Store.Bootstrap.
func New(s *store.Store, opts ...Option) *Backend {
	b := &Backend{
		store:    s,
		migrator: store.NewMigrator(s.Dialect),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) timestamp() string {
	return b.now().UTC().Format(baas.TimeLayout)
}

// translate maps store sentinels onto backend errors.
func (b *Backend) translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	err = b.store.Dialect.MapError(err)
	switch {
	case errors.Is(err, store.ErrUniqueViolation):
		e := baas.Conflict(format, args...)
		e.Err = err
		return e
	case errors.Is(err, store.ErrNotFound):
		e := baas.NotFound(format, args...)
		e.Err = err
		return e
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// --- Schema ---

func (b *Backend) GetCollection(ctx context.Context, id string) (*baas.Collection, error) {
	pb := b.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, b.store.DB,
		fmt.Sprintf("SELECT * FROM _collections WHERE id = %s", pb.Add(id)), pb.Params()...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, baas.NotFound("collection %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	return decodeCollection(row)
}

func decodeCollection(row map[string]any) (*baas.Collection, error) {
	c := &baas.Collection{
		ID:   asString(row["id"]),
		Name: asString(row["name"]),
	}
	var raw []string
	if err := json.Unmarshal([]byte(asString(row["permissions"])), &raw); err != nil {
		return nil, fmt.Errorf("decode permissions of %s: %w", c.ID, err)
	}
	perms, err := schema.ParsePermissions(raw)
	if err != nil {
		return nil, err
	}
	c.Permissions = perms
	c.DocumentSecurity = asBool(row["document_security"])
	c.CreatedAt = parseTime(row["created_at"])
	c.UpdatedAt = parseTime(row["updated_at"])
	return c, nil
}

func encodePermissions(perms []schema.Permission) string {
	return store.EncodeArray(schema.PermissionStrings(perms))
}

func (b *Backend) CreateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	if !schema.ValidCollectionID(id) {
		return nil, baas.Invalid("invalid collection id %q", id)
	}
	now := b.timestamp()
	err := b.store.InTx(ctx, func(tx *sql.Tx) error {
		pb := b.store.Dialect.NewParamBuilder()
		q := fmt.Sprintf("INSERT INTO _collections (id, name, permissions, document_security, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s)",
			pb.Add(id), pb.Add(name), pb.Add(encodePermissions(perms)), pb.Add(documentSecurity), pb.Add(now), pb.Add(now))
		if _, err := store.Exec(ctx, tx, q, pb.Params()...); err != nil {
			return err
		}
		return b.migrator.CreateTable(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(b.store.Dialect.MapError(err), store.ErrUniqueViolation) {
			return nil, baas.Conflict("collection %s already exists", id)
		}
		return nil, fmt.Errorf("create collection %s: %w", id, err)
	}
	return b.GetCollection(ctx, id)
}

func (b *Backend) UpdateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	pb := b.store.Dialect.NewParamBuilder()
	q := fmt.Sprintf("UPDATE _collections SET name = %s, permissions = %s, document_security = %s, updated_at = %s WHERE id = %s",
		pb.Add(name), pb.Add(encodePermissions(perms)), pb.Add(documentSecurity), pb.Add(b.timestamp()), pb.Add(id))
	n, err := store.Exec(ctx, b.store.DB, q, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("update collection %s: %w", id, err)
	}
	if n == 0 {
		return nil, baas.NotFound("collection %s not found", id)
	}
	return b.GetCollection(ctx, id)
}

func (b *Backend) CreateAttribute(ctx context.Context, collectionID string, attr schema.AttributeSpec) (*baas.Attribute, error) {
	if !attr.Kind.Valid() {
		return nil, baas.Invalid("attribute %s has unknown kind", attr.Key)
	}
	if !schema.ValidKey(attr.Key) {
		return nil, baas.Invalid("invalid attribute key %q", attr.Key)
	}
	if (attr.Kind == schema.KindString || attr.Kind == schema.KindStringArray) && attr.Size <= 0 {
		return nil, baas.Invalid("attribute %s: size must be positive", attr.Key)
	}
	if _, err := b.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}

	def, err := json.Marshal(attr)
	if err != nil {
		return nil, fmt.Errorf("encode attribute %s: %w", attr.Key, err)
	}
	err = b.store.InTx(ctx, func(tx *sql.Tx) error {
		pb := b.store.Dialect.NewParamBuilder()
		cid := pb.Add(collectionID)
		q := fmt.Sprintf("INSERT INTO _attributes (collection_id, key, definition, position) VALUES (%s, %s, %s, (SELECT COUNT(*) FROM _attributes WHERE collection_id = %s))",
			cid, pb.Add(attr.Key), pb.Add(string(def)), cid)
		if _, err := store.Exec(ctx, tx, q, pb.Params()...); err != nil {
			return err
		}
		return b.migrator.AddColumn(ctx, tx, collectionID, attr)
	})
	if err != nil {
		return nil, b.translate(err, "attribute %s", attr.Key)
	}
	return &baas.Attribute{
		CollectionID: collectionID,
		Key:          attr.Key,
		Kind:         attr.Kind,
		Required:     attr.Required,
		Array:        attr.IsArray(),
		Status:       "available",
	}, nil
}

func (b *Backend) CreateIndex(ctx context.Context, collectionID string, idx schema.IndexSpec) (*baas.Index, error) {
	if !schema.ValidKey(idx.Key) {
		return nil, baas.Invalid("invalid index key %q", idx.Key)
	}
	attrs, err := b.attributes(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	for _, key := range idx.Attributes {
		if findAttr(attrs, key) == nil && !schema.IsSystemField(key) {
			return nil, baas.Invalid("index %s: unknown attribute %s", idx.Key, key)
		}
	}
	for _, o := range idx.Orders {
		if o != "ASC" && o != "DESC" {
			return nil, baas.Invalid("index %s: invalid order %q", idx.Key, o)
		}
	}

	def, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encode index %s: %w", idx.Key, err)
	}
	err = b.store.InTx(ctx, func(tx *sql.Tx) error {
		pb := b.store.Dialect.NewParamBuilder()
		q := fmt.Sprintf("INSERT INTO _indexes (collection_id, key, definition) VALUES (%s, %s, %s)",
			pb.Add(collectionID), pb.Add(idx.Key), pb.Add(string(def)))
		if _, err := store.Exec(ctx, tx, q, pb.Params()...); err != nil {
			return err
		}
		return b.migrator.CreateIndex(ctx, tx, collectionID, idx)
	})
	if err != nil {
		return nil, b.translate(err, "index %s", idx.Key)
	}
	return &baas.Index{
		CollectionID: collectionID,
		Key:          idx.Key,
		Kind:         idx.Kind,
		Attributes:   append([]string(nil), idx.Attributes...),
		Status:       "available",
	}, nil
}

// attributes loads the attribute definitions of a collection in creation
// order. A missing collection is NotFound.
func (b *Backend) attributes(ctx context.Context, collectionID string) ([]schema.AttributeSpec, error) {
	if _, err := b.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	pb := b.store.Dialect.NewParamBuilder()
	rows, err := store.QueryRows(ctx, b.store.DB,
		fmt.Sprintf("SELECT definition FROM _attributes WHERE collection_id = %s ORDER BY position", pb.Add(collectionID)),
		pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("load attributes of %s: %w", collectionID, err)
	}
	attrs := make([]schema.AttributeSpec, 0, len(rows))
	for _, row := range rows {
		var a schema.AttributeSpec
		if err := json.Unmarshal([]byte(asString(row["definition"])), &a); err != nil {
			return nil, fmt.Errorf("decode attribute of %s: %w", collectionID, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func findAttr(attrs []schema.AttributeSpec, key string) *schema.AttributeSpec {
	for i := range attrs {
		if attrs[i].Key == key {
			return &attrs[i]
		}
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	}
	return false
}

func parseTime(v any) time.Time {
	t, _ := time.Parse(baas.TimeLayout, strings.TrimSpace(asString(v)))
	return t
}
