// Package repository stores learners in PostgreSQL. Profiles go through a
// pgx pool; the session log and recommendation history use database/sql
// with the lib/pq driver.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Postgres holds both connection handles to one database.
type Postgres struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Open connects to databaseURL and verifies both handles.
func Open(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		pool.Close()
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{Pool: pool, DB: db}, nil
}

// EnsureSchema creates missing tables and indexes.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases both handles.
func (p *Postgres) Close() error {
	p.Pool.Close()
	return p.DB.Close()
}

// pgCode extracts the SQLSTATE from either driver's error type.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}
