package content

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"portfolio-backend/internal/baas"
)

// record is satisfied by pointers to the typed records of this package.
type record[T any] interface {
	*T
	setMeta(Meta)
}

// Collection is a typed view over one backend collection.
type Collection[T any, PT record[T]] struct {
	docs baas.Documents
	id   string
}

func NewCollection[T any, PT record[T]](docs baas.Documents, id string) *Collection[T, PT] {
	return &Collection[T, PT]{docs: docs, id: id}
}

func (c *Collection[T, PT]) ID() string { return c.id }

func (c *Collection[T, PT]) List(ctx context.Context, queries ...baas.Query) ([]T, error) {
	docs, err := c.docs.ListDocuments(ctx, c.id, queries...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T, PT](d)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// First returns the first document matching queries, or a NotFound error.
func (c *Collection[T, PT]) First(ctx context.Context, queries ...baas.Query) (*T, error) {
	items, err := c.List(ctx, append(queries, baas.Limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, baas.NotFound("no matching document in %s", c.id)
	}
	return &items[0], nil
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	d, err := c.docs.GetDocument(ctx, c.id, id)
	if err != nil {
		return nil, err
	}
	return decode[T, PT](d)
}

// Create stores v under id. An empty id lets the backend generate one.
func (c *Collection[T, PT]) Create(ctx context.Context, id string, v *T) (*T, error) {
	data, err := encode(v)
	if err != nil {
		return nil, err
	}
	d, err := c.docs.CreateDocument(ctx, c.id, baas.ResolveID(id), data)
	if err != nil {
		return nil, err
	}
	return decode[T, PT](d)
}

// Update applies a partial change keyed by attribute.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	d, err := c.docs.UpdateDocument(ctx, c.id, id, fields)
	if err != nil {
		return nil, err
	}
	return decode[T, PT](d)
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	return c.docs.DeleteDocument(ctx, c.id, id)
}

func decode[T any, PT record[T]](d *baas.Document) (*T, error) {
	v := new(T)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(d.Data); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", d.CollectionID, d.ID, err)
	}
	PT(v).setMeta(Meta{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt})
	return v, nil
}

func encode(v any) (map[string]any, error) {
	var out map[string]any
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}
