package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"portfolio-backend/internal/schema"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) ColumnType(kind schema.AttributeKind) string {
	switch kind {
	case schema.KindString, schema.KindLongText, schema.KindEmail:
		return "TEXT"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindInteger:
		return "BIGINT"
	case schema.KindFloat:
		return "DOUBLE PRECISION"
	case schema.KindStringArray:
		return "TEXT" // JSON-encoded
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) SystemTablesSQL() string {
	return pgSystemTablesSQL
}

func (d *PostgresDialect) TableExists(ctx context.Context, q Querier, tableName string) (bool, error) {
	return scanExists(q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	))
}

func (d *PostgresDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0"
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

// PostgreSQL error codes treated as "already exists".
const (
	pgUniqueViolation = "23505"
	pgDuplicateColumn = "42701"
	pgDuplicateTable  = "42P07"
)

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgDuplicateColumn, pgDuplicateTable:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		}
	}
	return err
}

const pgSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _collections (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    permissions       TEXT NOT NULL DEFAULT '[]',
    document_security BOOLEAN NOT NULL DEFAULT false,
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
