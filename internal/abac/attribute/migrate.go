// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package attribute

import (
	"crypto/rand"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending identity_attributes schema migration to
// the database at databaseURL. databaseURL uses the pgx5:// scheme, the
// only database driver this package registers. Each invocation is stamped with a fresh ULID run
// id so operators can correlate a migration attempt across the process
// logs and whatever database-side audit trail records DDL activity.
func Migrate(databaseURL string) error {
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	slog.Info("attribute: running schema migrations", "run_id", runID.String())

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return oops.Code("MIGRATION_SOURCE_FAILED").With("run_id", runID.String()).Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		_ = source.Close()
		return oops.Code("MIGRATION_INIT_FAILED").With("run_id", runID.String()).Wrap(err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").With("run_id", runID.String()).Wrap(err)
	}
	slog.Info("attribute: schema migrations complete", "run_id", runID.String())
	return nil
}
