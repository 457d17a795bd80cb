// Package database is the concrete SQLite-backed implementation of the
// Persistence Gateway: schema setup plus typed CRUD for every entity in
// spec.md §3, grounded on the teacher's internal/database/service.go
// connection-setup idiom and queries.go's explicit-SQL accessor style.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// Store is the concrete ledger persistence layer: a *store.Gateway plus
// typed accessors. Unlike the teacher's LedgerStore interface (built to
// abstract over swappable SQLite/Formance backends), this ledger has a
// single relational backend, so engine packages depend on this concrete
// type directly rather than on an interface.
type Store struct {
	*store.Gateway
}

// Open opens (or creates) the SQLite database at cfg.Path, tunes the
// connection pool, enables WAL mode, and applies the schema. Mirrors the
// teacher's database.New (internal/database/service.go).
func Open(ctx context.Context, cfg models.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.PingTimeout
	if pingTimeout == 0 {
		pingTimeout = store.DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	zap.L().Info("opened ledger store", zap.String("path", cfg.Path))

	return &Store{Gateway: store.New(db)}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.DB().Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every accessor
// below run either standalone or inside a caller-managed transaction, the
// same dual-mode shape the teacher's queries.go uses.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
