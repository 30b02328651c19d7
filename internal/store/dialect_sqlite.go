package store

import (
	"context"
	"fmt"
	"strings"

	"portfolio-backend/internal/schema"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) ColumnType(kind schema.AttributeKind) string {
	switch kind {
	case schema.KindString, schema.KindLongText, schema.KindEmail:
		return "TEXT"
	case schema.KindBoolean:
		return "INTEGER"
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindFloat:
		return "REAL"
	case schema.KindStringArray:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) TableExists(ctx context.Context, q Querier, tableName string) (bool, error) {
	return scanExists(q.QueryRowContext(ctx,
		"SELECT 1 FROM sqlite_master WHERE type='table' AND name=?1",
		tableName,
	))
}

func (d *SQLiteDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0" // always false
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE") ||
		strings.Contains(errStr, "duplicate column name") ||
		strings.Contains(errStr, "already exists") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _collections (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    permissions       TEXT NOT NULL DEFAULT '[]',
    document_security INTEGER NOT NULL DEFAULT 0,
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS _attributes (
    collection_id TEXT NOT NULL REFERENCES _collections(id) ON DELETE CASCADE,
    key           TEXT NOT NULL,
    definition    TEXT NOT NULL,
    position      INTEGER NOT NULL,
    PRIMARY KEY (collection_id, key)
);

CREATE TABLE IF NOT EXISTS _indexes (
    collection_id TEXT NOT NULL REFERENCES _collections(id) ON DELETE CASCADE,
    key           TEXT NOT NULL,
    definition    TEXT NOT NULL,
    PRIMARY KEY (collection_id, key)
);
`
