// Package memstore is an in-memory baas.Client. It backs the "memory"
// backend driver for local development and is the fake backend in tests:
// every call is recorded and a fault hook can fail any of them.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

type Op string

const (
	OpGetCollection    Op = "getCollection"
	OpCreateCollection Op = "createCollection"
	OpUpdateCollection Op = "updateCollection"
	OpCreateAttribute  Op = "createAttribute"
	OpCreateIndex      Op = "createIndex"
	OpCreateDocument   Op = "createDocument"
	OpGetDocument      Op = "getDocument"
	OpUpdateDocument   Op = "updateDocument"
	OpDeleteDocument   Op = "deleteDocument"
	OpListDocuments    Op = "listDocuments"
)

// Call records one backend call. Key is the attribute, index or document id
// the call targets, if any.
type Call struct {
	Op         Op
	Collection string
	Key        string
}

// FaultFunc is consulted before every call; a non-nil error is returned to
// the caller instead of performing the operation.
type FaultFunc func(Call) error

type Option func(*Store)

func WithFault(f FaultFunc) Option {
	return func(s *Store) { s.fault = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	calls       []Call
	fault       FaultFunc
	now         func() time.Time
	seq         int64
}

type collection struct {
	meta    baas.Collection
	attrs   []schema.AttributeSpec
	indexes []baas.Index
	docs    map[string]*entry
}

type entry struct {
	doc baas.Document
	seq int64
}

func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFault replaces the fault hook; nil disables it.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Calls returns every call made so far, in order.
func (s *Store) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// AttributeKeys returns the attribute keys of a collection in creation order.
func (s *Store) AttributeKeys(collectionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.attrs))
	for i, a := range c.attrs {
		keys[i] = a.Key
	}
	return keys
}

// IndexKeys returns the index keys of a collection in creation order.
func (s *Store) IndexKeys(collectionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.indexes))
	for i, idx := range c.indexes {
		keys[i] = idx.Key
	}
	return keys
}

func (s *Store) record(call Call) error {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	fault := s.fault
	s.mu.Unlock()
	if fault != nil {
		return fault(call)
	}
	return nil
}

// --- Schema ---

func (s *Store) GetCollection(_ context.Context, id string) (*baas.Collection, error) {
	if err := s.record(Call{Op: OpGetCollection, Collection: id}); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[id]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", id)
	}
	meta := c.meta
	return &meta, nil
}

func (s *Store) CreateCollection(_ context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	if err := s.record(Call{Op: OpCreateCollection, Collection: id}); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, baas.Invalid("collection id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[id]; ok {
		return nil, baas.Conflict("collection %s already exists", id)
	}
	now := s.now()
	c := &collection{
		meta: baas.Collection{
			ID:               id,
			Name:             name,
			Permissions:      append([]schema.Permission(nil), perms...),
			DocumentSecurity: documentSecurity,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		docs: make(map[string]*entry),
	}
	s.collections[id] = c
	meta := c.meta
	return &meta, nil
}

func (s *Store) UpdateCollection(_ context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	if err := s.record(Call{Op: OpUpdateCollection, Collection: id}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[id]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", id)
	}
	c.meta.Name = name
	c.meta.Permissions = append([]schema.Permission(nil), perms...)
	c.meta.DocumentSecurity = documentSecurity
	c.meta.UpdatedAt = s.now()
	meta := c.meta
	return &meta, nil
}

func (s *Store) CreateAttribute(_ context.Context, collectionID string, attr schema.AttributeSpec) (*baas.Attribute, error) {
	if err := s.record(Call{Op: OpCreateAttribute, Collection: collectionID, Key: attr.Key}); err != nil {
		return nil, err
	}
	if !attr.Kind.Valid() {
		return nil, baas.Invalid("attribute %s has unknown kind", attr.Key)
	}
	if (attr.Kind == schema.KindString || attr.Kind == schema.KindStringArray) && attr.Size <= 0 {
		return nil, baas.Invalid("attribute %s: size must be positive", attr.Key)
	}
	var def any
	if attr.Default != nil {
		v, err := attr.Normalize(attr.Default)
		if err != nil {
			return nil, baas.Invalid("attribute %s: %v", attr.Key, err)
		}
		def = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}
	if c.attr(attr.Key) != nil {
		return nil, baas.Conflict("attribute %s already exists", attr.Key)
	}
	c.attrs = append(c.attrs, attr)

	if def != nil {
		for _, e := range c.docs {
			if _, ok := e.doc.Data[attr.Key]; !ok {
				e.doc.Data[attr.Key] = def
			}
		}
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

func (s *Store) CreateIndex(_ context.Context, collectionID string, idx schema.IndexSpec) (*baas.Index, error) {
	if err := s.record(Call{Op: OpCreateIndex, Collection: collectionID, Key: idx.Key}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}
	for _, existing := range c.indexes {
		if existing.Key == idx.Key {
			return nil, baas.Conflict("index %s already exists", idx.Key)
		}
	}
	for _, attr := range idx.Attributes {
		if c.attr(attr) == nil && !schema.IsSystemField(attr) {
			return nil, baas.Invalid("index %s: unknown attribute %s", idx.Key, attr)
		}
	}
	created := baas.Index{
		CollectionID: collectionID,
		Key:          idx.Key,
		Kind:         idx.Kind,
		Attributes:   append([]string(nil), idx.Attributes...),
		Status:       "available",
	}
	c.indexes = append(c.indexes, created)
	out := created
	return &out, nil
}

func (c *collection) attr(key string) *schema.AttributeSpec {
	for i := range c.attrs {
		if c.attrs[i].Key == key {
			return &c.attrs[i]
		}
	}
	return nil
}

// --- Documents ---

func (s *Store) CreateDocument(_ context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	id := baas.ResolveID(documentID)
	if err := s.record(Call{Op: OpCreateDocument, Collection: collectionID, Key: id}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}
	if _, ok := c.docs[id]; ok {
		return nil, baas.Conflict("document %s already exists", id)
	}

	values, err := c.normalize(data, true)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(id, values); err != nil {
		return nil, err
	}

	now := s.now()
	s.seq++
	e := &entry{
		doc: baas.Document{
			ID:           id,
			CollectionID: collectionID,
			CreatedAt:    now,
			UpdatedAt:    now,
			Data:         values,
		},
		seq: s.seq,
	}
	c.docs[id] = e
	return copyDoc(&e.doc), nil
}

func (s *Store) GetDocument(_ context.Context, collectionID, documentID string) (*baas.Document, error) {
	if err := s.record(Call{Op: OpGetDocument, Collection: collectionID, Key: documentID}); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}
	e := c.docs[documentID]
	if e == nil {
		return nil, baas.NotFound("document %s not found", documentID)
	}
	return copyDoc(&e.doc), nil
}

func (s *Store) UpdateDocument(_ context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	if err := s.record(Call{Op: OpUpdateDocument, Collection: collectionID, Key: documentID}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}
	e := c.docs[documentID]
	if e == nil {
		return nil, baas.NotFound("document %s not found", documentID)
	}

	values, err := c.normalize(data, false)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(e.doc.Data)+len(values))
	for k, v := range e.doc.Data {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	if err := c.checkUnique(documentID, merged); err != nil {
		return nil, err
	}

	e.doc.Data = merged
	e.doc.UpdatedAt = s.now()
	return copyDoc(&e.doc), nil
}

func (s *Store) DeleteDocument(_ context.Context, collectionID, documentID string) error {
	if err := s.record(Call{Op: OpDeleteDocument, Collection: collectionID, Key: documentID}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collectionID]
	if c == nil {
		return baas.NotFound("collection %s not found", collectionID)
	}
	if _, ok := c.docs[documentID]; !ok {
		return baas.NotFound("document %s not found", documentID)
	}
	delete(c.docs, documentID)
	return nil
}

func (s *Store) ListDocuments(_ context.Context, collectionID string, queries ...baas.Query) ([]*baas.Document, error) {
	if err := s.record(Call{Op: OpListDocuments, Collection: collectionID}); err != nil {
		return nil, err
	}
	plan := baas.PlanQueries(queries)
	if plan.Offset < 0 || plan.Limit < 0 {
		return nil, baas.Invalid("limit and offset must not be negative")
	}
	match, err := compileFilters(plan.Filters)
	if err != nil {
		return nil, baas.Invalid("invalid query: %v", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collectionID]
	if c == nil {
		return nil, baas.NotFound("collection %s not found", collectionID)
	}

	var hits []*entry
	for _, e := range c.docs {
		ok, err := match(e.doc.Fields())
		if err != nil {
			return nil, baas.Invalid("invalid query: %v", err)
		}
		if ok {
			hits = append(hits, e)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		for _, o := range plan.Orders {
			cmp := compareValues(a.doc.Fields()[o.Attribute], b.doc.Fields()[o.Attribute])
			if cmp == 0 {
				continue
			}
			if o.Method == baas.MethodOrderDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return a.seq < b.seq
	})

	if plan.Offset > 0 {
		if plan.Offset >= len(hits) {
			hits = nil
		} else {
			hits = hits[plan.Offset:]
		}
	}
	if plan.Limit > 0 && len(hits) > plan.Limit {
		hits = hits[:plan.Limit]
	}

	out := make([]*baas.Document, len(hits))
	for i, e := range hits {
		out[i] = copyDoc(&e.doc)
	}
	return out, nil
}

func (c *collection) normalize(data map[string]any, create bool) (map[string]any, error) {
	return baas.NormalizeData(c.attrs, data, create)
}

func (c *collection) checkUnique(id string, values map[string]any) error {
	for _, idx := range c.indexes {
		if idx.Kind != schema.IndexUnique {
			continue
		}
		for otherID, e := range c.docs {
			if otherID == id {
				continue
			}
			same := true
			for _, attr := range idx.Attributes {
				if compareValues(values[attr], e.doc.Data[attr]) != 0 {
					same = false
					break
				}
			}
			if same {
				return baas.Conflict("document with the same %v already exists", idx.Attributes)
			}
		}
	}
	return nil
}

func copyDoc(d *baas.Document) *baas.Document {
	out := *d
	out.Data = make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		if items, ok := v.([]string); ok {
			v = append([]string(nil), items...)
		}
		out.Data[k] = v
	}
	return &out
}
