// Package postgres persists ledger collections as JSONB rows in Postgres.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mamadbah2/homestead/internal/repository/sqlkv"
)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/homestead?sslmode=disable"
)

var dialect = sqlkv.Dialect{
	CreateTable: `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`,
	Select: `SELECT payload FROM state WHERE bucket = $1`,
	Upsert: `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
}

// Open connects to dsn, falling back to a local default.
func Open(ctx context.Context, dsn string) (*sqlkv.Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	st, err := sqlkv.Open(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}
