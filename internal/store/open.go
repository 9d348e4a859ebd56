package store

import (
	"context"
	"fmt"
)

// Options selects and configures a KV backend.
type Options struct {
	Backend     string // memory, redis, postgres, sqlite
	DatabaseURL string
	SQLitePath  string
	RedisAddr   string
	Namespace   string // key prefix for the redis backend
}

// Open returns the KV backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedisKV(NewRedis(opts.RedisAddr), opts.Namespace), nil
	case "postgres":
		db, err := NewDB(opts.DatabaseURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return NewSQLKV(ctx, db)
	case "sqlite":
		db, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return NewSQLKV(ctx, db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
