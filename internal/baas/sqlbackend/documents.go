package sqlbackend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
	"portfolio-backend/internal/store"
)

func (b *Backend) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	attrs, err := b.attributes(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	values, err := baas.NormalizeData(attrs, data, true)
	if err != nil {
		return nil, err
	}

	id := baas.ResolveID(documentID)
	now := b.timestamp()
	pb := b.store.Dialect.NewParamBuilder()
	cols := []string{store.QuoteIdent(store.ColumnID), store.QuoteIdent(store.ColumnCreatedAt), store.QuoteIdent(store.ColumnUpdatedAt)}
	phs := []string{pb.Add(id), pb.Add(now), pb.Add(now)}
	for _, key := range sortedKeys(values) {
		cols = append(cols, store.QuoteIdent(key))
		phs = append(phs, pb.Add(b.toColumn(values[key])))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		store.QuoteIdent(store.TableName(collectionID)), strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := store.Exec(ctx, b.store.DB, q, pb.Params()...); err != nil {
		return nil, b.translate(err, "document %s in %s", id, collectionID)
	}
	return b.getDocument(ctx, collectionID, id, attrs)
}

func (b *Backend) GetDocument(ctx context.Context, collectionID, documentID string) (*baas.Document, error) {
	attrs, err := b.attributes(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return b.getDocument(ctx, collectionID, documentID, attrs)
}

func (b *Backend) getDocument(ctx context.Context, collectionID, documentID string, attrs []schema.AttributeSpec) (*baas.Document, error) {
	pb := b.store.Dialect.NewParamBuilder()
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		store.QuoteIdent(store.TableName(collectionID)), store.QuoteIdent(store.ColumnID), pb.Add(documentID))
	row, err := store.QueryRow(ctx, b.store.DB, q, pb.Params()...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, baas.NotFound("document %s not found", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	return decodeDocument(collectionID, row, attrs)
}

func (b *Backend) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	attrs, err := b.attributes(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	values, err := baas.NormalizeData(attrs, data, false)
	if err != nil {
		return nil, err
	}

	pb := b.store.Dialect.NewParamBuilder()
	sets := []string{fmt.Sprintf("%s = %s", store.QuoteIdent(store.ColumnUpdatedAt), pb.Add(b.timestamp()))}
	for _, key := range sortedKeys(values) {
		sets = append(sets, fmt.Sprintf("%s = %s", store.QuoteIdent(key), pb.Add(b.toColumn(values[key]))))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		store.QuoteIdent(store.TableName(collectionID)), strings.Join(sets, ", "),
		store.QuoteIdent(store.ColumnID), pb.Add(documentID))

	n, err := store.Exec(ctx, b.store.DB, q, pb.Params()...)
	if err != nil {
		return nil, b.translate(err, "document %s in %s", documentID, collectionID)
	}
	if n == 0 {
		return nil, baas.NotFound("document %s not found", documentID)
	}
	return b.getDocument(ctx, collectionID, documentID, attrs)
}

func (b *Backend) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	if _, err := b.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	pb := b.store.Dialect.NewParamBuilder()
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		store.QuoteIdent(store.TableName(collectionID)), store.QuoteIdent(store.ColumnID), pb.Add(documentID))
	n, err := store.Exec(ctx, b.store.DB, q, pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	if n == 0 {
		return baas.NotFound("document %s not found", documentID)
	}
	return nil
}

func (b *Backend) ListDocuments(ctx context.Context, collectionID string, queries ...baas.Query) ([]*baas.Document, error) {
	attrs, err := b.attributes(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	plan := baas.PlanQueries(queries)
	pb := b.store.Dialect.NewParamBuilder()

	column := func(key string) (string, error) {
		if findAttr(attrs, key) == nil && !schema.IsSystemField(key) {
			return "", baas.Invalid("unknown attribute %s", key)
		}
		return store.QuoteIdent(store.ColumnName(key)), nil
	}

	var where []string
	for _, f := range plan.Filters {
		col, err := column(f.Attribute)
		if err != nil {
			return nil, err
		}
		if len(f.Values) == 0 {
			return nil, baas.Invalid("%s on %s needs a value", f.Method, f.Attribute)
		}
		switch f.Method {
		case baas.MethodEqual:
			vals := make([]any, len(f.Values))
			for i, v := range f.Values {
				vals[i] = b.toColumn(v)
			}
			where = append(where, b.store.Dialect.InExpr(col, pb, vals))
		case baas.MethodNotEqual:
			where = append(where, fmt.Sprintf("(%s IS NULL OR %s <> %s)", col, col, pb.Add(b.toColumn(f.Values[0]))))
		case baas.MethodGreaterThan:
			where = append(where, fmt.Sprintf("%s > %s", col, pb.Add(b.toColumn(f.Values[0]))))
		case baas.MethodLessThan:
			where = append(where, fmt.Sprintf("%s < %s", col, pb.Add(b.toColumn(f.Values[0]))))
		default:
			return nil, baas.Invalid("unsupported filter %s", f.Method)
		}
	}

	var order []string
	for _, o := range plan.Orders {
		col, err := column(o.Attribute)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if o.Method == baas.MethodOrderDesc {
			dir = "DESC"
		}
		order = append(order, col+" "+dir)
	}
	order = append(order, store.QuoteIdent(store.ColumnCreatedAt)+" ASC", store.QuoteIdent(store.ColumnID)+" ASC")

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", store.QuoteIdent(store.TableName(collectionID)))
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	if plan.Limit > 0 || plan.Offset > 0 {
		limit := int64(plan.Limit)
		if limit == 0 {
			limit = math.MaxInt64
		}
		fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", pb.Add(limit), pb.Add(int64(plan.Offset)))
	}

	rows, err := store.QueryRows(ctx, b.store.DB, sb.String(), pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("list documents of %s: %w", collectionID, err)
	}
	docs := make([]*baas.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDocument(collectionID, row, attrs)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// toColumn converts a normalized value or query argument to its column
// representation.
func (b *Backend) toColumn(v any) any {
	switch val := v.(type) {
	case []string:
		return store.EncodeArray(val)
	case bool:
		if b.store.Dialect.NeedsBoolFix() {
			if val {
				return int64(1)
			}
			return int64(0)
		}
		return val
	case time.Time:
		return val.UTC().Format(baas.TimeLayout)
	case int:
		return int64(val)
	}
	return v
}

func decodeDocument(collectionID string, row map[string]any, attrs []schema.AttributeSpec) (*baas.Document, error) {
	doc := &baas.Document{
		ID:           asString(row[store.ColumnID]),
		CollectionID: collectionID,
		CreatedAt:    parseTime(row[store.ColumnCreatedAt]),
		UpdatedAt:    parseTime(row[store.ColumnUpdatedAt]),
		Data:         make(map[string]any, len(attrs)),
	}
	for _, attr := range attrs {
		v := row[attr.Key]
		if v == nil {
			continue
		}
		switch attr.Kind {
		case schema.KindString, schema.KindLongText, schema.KindEmail:
			v = asString(v)
		case schema.KindBoolean:
			v = asBool(v)
		case schema.KindInteger:
			switch n := v.(type) {
			case float64:
				v = int64(n)
			case int:
				v = int64(n)
			}
		case schema.KindFloat:
			switch n := v.(type) {
			case int64:
				v = float64(n)
			case int:
				v = float64(n)
			}
		case schema.KindStringArray:
			items, err := store.DecodeArray(v)
			if err != nil {
				return nil, fmt.Errorf("decode %s of %s: %w", attr.Key, doc.ID, err)
			}
			v = items
		}
		doc.Data[attr.Key] = v
	}
	return doc, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
