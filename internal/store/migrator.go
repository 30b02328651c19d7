package store

import (
	"context"
	"fmt"
	"strings"

	"portfolio-backend/internal/schema"
)

// Columns every document table carries.
const (
	ColumnID          = "id"
	ColumnCreatedAt   = "created_at"
	ColumnUpdatedAt   = "updated_at"
	ColumnPermissions = "permissions"
)

// Migrator issues the DDL that backs collections, attributes and indexes.
// Each collection lives in its own doc_<id> table.
type Migrator struct {
	dialect Dialect
}

func NewMigrator(dialect Dialect) *Migrator {
	return &Migrator{dialect: dialect}
}

func TableName(collectionID string) string {
	return "doc_" + collectionID
}

// ColumnName maps an attribute key or system field to its column.
func ColumnName(key string) string {
	switch key {
	case schema.FieldID:
		return ColumnID
	case schema.FieldCreatedAt:
		return ColumnCreatedAt
	case schema.FieldUpdatedAt:
		return ColumnUpdatedAt
	}
	return key
}

func (m *Migrator) CreateTable(ctx context.Context, q Querier, collectionID string) error {
	table := TableName(collectionID)
	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s TEXT PRIMARY KEY,\n  %s TEXT NOT NULL,\n  %s TEXT NOT NULL,\n  %s TEXT NOT NULL DEFAULT '[]'\n)",
		QuoteIdent(table),
		QuoteIdent(ColumnID), QuoteIdent(ColumnCreatedAt), QuoteIdent(ColumnUpdatedAt), QuoteIdent(ColumnPermissions),
	)
	if _, err := q.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", table, m.dialect.MapError(err))
	}
	return nil
}

// AddColumn adds the column for attr. Required attributes stay nullable at
// the SQL level so the column can be added to a populated table; presence
// is enforced on write.
func (m *Migrator) AddColumn(ctx context.Context, q Querier, collectionID string, attr schema.AttributeSpec) error {
	table := TableName(collectionID)
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdent(table), m.buildColumnDef(attr))
	if _, err := q.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, attr.Key, m.dialect.MapError(err))
	}
	return nil
}

func (m *Migrator) buildColumnDef(attr schema.AttributeSpec) string {
	col := QuoteIdent(attr.Key) + " " + m.dialect.ColumnType(attr.Kind)
	if attr.Default == nil {
		return col
	}
	def, err := attr.Normalize(attr.Default)
	if err != nil || def == nil {
		return col
	}
	switch v := def.(type) {
	case string:
		col += " DEFAULT " + quoteLiteral(v)
	case bool:
		if m.dialect.NeedsBoolFix() {
			if v {
				col += " DEFAULT 1"
			} else {
				col += " DEFAULT 0"
			}
		} else {
			col += fmt.Sprintf(" DEFAULT %t", v)
		}
	case int64:
		col += fmt.Sprintf(" DEFAULT %d", v)
	case float64:
		col += fmt.Sprintf(" DEFAULT %v", v)
	case []string:
		col += " DEFAULT " + quoteLiteral(EncodeArray(v))
	}
	return col
}

// CreateIndex builds idx over the collection table. Fulltext indexes are
// plain indexes here; neither dialect gets a text-search index.
func (m *Migrator) CreateIndex(ctx context.Context, q Querier, collectionID string, idx schema.IndexSpec) error {
	table := TableName(collectionID)
	cols := make([]string, len(idx.Attributes))
	for i, attr := range idx.Attributes {
		cols[i] = QuoteIdent(ColumnName(attr))
		if i < len(idx.Orders) {
			cols[i] += " " + idx.Orders[i]
		}
	}
	unique := ""
	if idx.Kind == schema.IndexUnique {
		unique = "UNIQUE "
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, QuoteIdent(fmt.Sprintf("idx_%s_%s", table, idx.Key)), QuoteIdent(table), strings.Join(cols, ", "))
	if _, err := q.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create index %s on %s: %w", idx.Key, table, m.dialect.MapError(err))
	}
	return nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
