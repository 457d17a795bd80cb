// Package store is the Persistence Gateway (spec.md §4.1): strongly-typed
// access to the ledger's entities under serializable transactions, plus the
// retry-on-serialization-conflict wrapper every mutating engine operation
// runs inside.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
)

// Sentinel errors shared across the gateway.
var (
	ErrNotFound              = errors.New("row not found")
	ErrAlreadyExists         = errors.New("row already exists")
	errSerializationConflict = errors.New("serialization conflict")
)

// Gateway wraps a *sql.DB and provides the WithSerializableTx primitive.
type Gateway struct {
	db *sql.DB
}

// New wraps an already-opened *sql.DB.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// DB exposes the underlying connection pool for packages (like schema
// initialisation) that need raw access outside of a transaction.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

// WithSerializableTx runs fn inside a single serializable transaction,
// committing on success and rolling back on any error (spec.md §4.1). fn
// must re-read authoritative rows itself rather than trust values captured
// before the transaction began, since the whole closure may be re-executed
// by RetryOnSerializationConflict.
func (g *Gateway) WithSerializableTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin serializable tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		if isSerializationConflict(err) {
			return errSerializationConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isSerializationConflict(err) {
			return errSerializationConflict
		}
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// RetryOnSerializationConflict re-runs fn (typically a WithSerializableTx
// call) up to maxRetries times when the store reports a serialization
// failure. Non-serialization errors propagate immediately, unretried
// (spec.md §4.1).
func RetryOnSerializationConflict(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, errSerializationConflict) {
			return err
		}
		lastErr = err
		zap.L().Warn("serialization conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))
	}
	zap.L().Error("exhausted retries on serialization conflict", zap.Int("max_retries", maxRetries))
	return ledgererr.Conflict(lastErr)
}

// isSerializationConflict recognises SQLite's busy/locked errors, the
// closest SQLite gets to a serializable-isolation conflict under
// BEGIN IMMEDIATE/WAL; a Postgres backend would instead check for SQLSTATE
// 40001 here.
func isSerializationConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "could not serialize")
}

// DefaultPingTimeout bounds how long Open waits for the initial connectivity
// check.
const DefaultPingTimeout = 5 * time.Second
