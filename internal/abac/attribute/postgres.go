// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package attribute

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// poolIface is the subset of *pgxpool.Pool's surface Postgres needs,
// narrow enough that pgxmock's pool satisfies it too for unit tests
// without a live database.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres is an attribute Store for deployments where identity
// attributes are already owned by a shared database rather than
// per-node embedded storage — the core specification leaves this
// backend choice open, unlike the policy store, which is explicitly
// single-node.
type Postgres struct {
	pool poolIface
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing connection pool. Schema setup is the
// caller's responsibility via Migrate.
func NewPostgres(pool poolIface) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, identity string) (map[string][]byte, error) {
	var attrs map[string][]byte
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := p.pool.Query(ctx,
			`SELECT name, value FROM identity_attributes WHERE identity = $1`, identity)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			var value []byte
			if err := rows.Scan(&name, &value); err != nil {
				return oops.Code("ATTRIBUTE_SCAN_FAILED").With("identity", identity).Wrap(err)
			}
			if attrs == nil {
				attrs = make(map[string][]byte)
			}
			attrs[name] = value
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *Postgres) Set(ctx context.Context, identity string, attrs map[string][]byte) error {
	return withRetry(ctx, func(ctx context.Context) error {
		tx, err := p.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.Exec(ctx, `DELETE FROM identity_attributes WHERE identity = $1`, identity); err != nil {
			return err
		}
		for name, value := range attrs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO identity_attributes (identity, name, value) VALUES ($1, $2, $3)`,
				identity, name, value); err != nil {
				return err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		return nil
	})
}

// withRetry bounds retries to transient Postgres errors (those
// isTransient marks retryable): exponential backoff starting at 50ms,
// capped at 3 retries.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && isTransient(pgErr) {
			slog.Debug("attribute store operation failed, will retry", "attempt", attempt, "code", pgErr.Code)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return oops.Code("ATTRIBUTE_STORE_ERROR").Wrap(err)
	}
	return nil
}

// isTransient reports whether a Postgres error code represents a
// condition worth retrying (serialization conflicts, deadlocks and
// locks that could not be acquired),
// as opposed to a schema or constraint error that will never succeed
// on retry.
func isTransient(pgErr *pgconn.PgError) bool {
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	default:
		return false
	}
}
