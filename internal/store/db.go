package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	Postgres Dialect = "pgx"
	SQLite   Dialect = "sqlite3"
)

// DB wraps sql.DB for Postgres (pgx) or SQLite.
type DB struct {
	Client  *sql.DB
	dialect Dialect
}

// NewDB opens a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open(string(Postgres), connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db, dialect: Postgres}, db.PingContext(context.Background())
}

// NewSQLite opens (creating if needed) a SQLite file in WAL mode.
func NewSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open(string(SQLite), path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{Client: db, dialect: SQLite}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// SQLKV keeps keys in a single kv_entries table.
type SQLKV struct {
	db *DB
}

// NewSQLKV migrates the kv_entries table and returns the store.
func NewSQLKV(ctx context.Context, db *DB) (*SQLKV, error) {
	s := &SQLKV{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLKV) migrate(ctx context.Context) error {
	_, err := s.db.Client.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// q rewrites $N placeholders for drivers that only take '?'.
func (s *SQLKV) q(query string) string {
	if s.db.dialect != SQLite {
		return query
	}
	for i := 9; i >= 1; i-- {
		query = strings.ReplaceAll(query, "$"+strconv.Itoa(i), "?")
	}
	return query
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.Client.QueryRowContext(ctx, s.q(`SELECT value FROM kv_entries WHERE key = $1`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Client.ExecContext(ctx, s.q(`
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`), key, string(value))
	return err
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.Client.ExecContext(ctx, s.q(`DELETE FROM kv_entries WHERE key = $1`), key)
	return err
}

func (s *SQLKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Client.QueryContext(ctx, s.q(`SELECT key FROM kv_entries WHERE key LIKE $1`), prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		// LIKE treats '_' as a wildcard
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

func (s *SQLKV) Healthy(ctx context.Context) bool {
	return s.db.Client.PingContext(ctx) == nil
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}
