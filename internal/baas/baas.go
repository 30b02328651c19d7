// Package baas describes the capabilities the portfolio needs from its
// Backend-as-a-Service: collection and attribute management plus document
// CRUD. Implementations live in the rest, sqlbackend and memstore
// subpackages and are passed explicitly to the components that use them.
package baas

import (
	"context"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/schema"
)

type Collection struct {
	ID               string
	Name             string
	Permissions      []schema.Permission
	DocumentSecurity bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Attribute struct {
	CollectionID string
	Key          string
	Kind         schema.AttributeKind
	Required     bool
	Array        bool
	Status       string // "available" once the backend has built it
}

type Index struct {
	CollectionID string
	Key          string
	Kind         schema.IndexKind
	Attributes   []string
	Status       string
}

// Document is one record of a collection. Data holds the attribute values;
// the system fields live on the struct.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Permissions  []schema.Permission
	Data         map[string]any
}

// Fields returns the attribute values merged with the system fields, keyed
// the way the backend names them.
func (d *Document) Fields() map[string]any {
	out := make(map[string]any, len(d.Data)+3)
	for k, v := range d.Data {
		out[k] = v
	}
	out[schema.FieldID] = d.ID
	out[schema.FieldCreatedAt] = d.CreatedAt
	out[schema.FieldUpdatedAt] = d.UpdatedAt
	return out
}

// Schema manages collections, attributes and indexes.
type Schema interface {
	GetCollection(ctx context.Context, id string) (*Collection, error)
	CreateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*Collection, error)
	UpdateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*Collection, error)
	CreateAttribute(ctx context.Context, collectionID string, attr schema.AttributeSpec) (*Attribute, error)
	CreateIndex(ctx context.Context, collectionID string, idx schema.IndexSpec) (*Index, error)
}

// Documents manages the records of a collection. UpdateDocument applies a
// partial update: keys absent from data are left untouched.
type Documents interface {
	CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*Document, error)
	GetDocument(ctx context.Context, collectionID, documentID string) (*Document, error)
	UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*Document, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
	ListDocuments(ctx context.Context, collectionID string, queries ...Query) ([]*Document, error)
}

// Client is the full capability set of a backend.
type Client interface {
	Schema
	Documents
}

// TimeLayout is the fixed-width UTC form timestamps take when a backend
// stores or compares them as text. It sorts lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// UniqueID asks the backend to generate the document id.
const UniqueID = "unique()"

// ResolveID returns id, or a fresh one when the caller asked for a
// generated id.
func ResolveID(id string) string {
	if id == "" || id == UniqueID {
		return uuid.NewString()
	}
	return id
}
