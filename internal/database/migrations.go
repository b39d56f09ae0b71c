package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration upgrades the schema to version. Every step must be safe to run
// again on a database that already has it applied.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context, s *Store, tx *sqlx.Tx) error
}

var migrations = []migration{
	{version: 1, name: "users, levels and words", up: migrateCoreTables},
	{version: 2, name: "lives and tools", up: migrateEconomyTables},
	{version: 3, name: "one level record per user and level", up: migrateUniqueLevels},
	{version: 4, name: "streaks and daily life grants", up: migrateStreakAndGrants},
}

// LatestVersion is the schema version produced by Migrate.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate brings the schema to LatestVersion.
func (s *Store) Migrate(ctx context.Context) error {
	return s.MigrateTo(ctx, LatestVersion())
}

// MigrateTo applies, in order, every step above the recorded version up to
// and including target. Each step commits together with the version marker.
func (s *Store) MigrateTo(ctx context.Context, target int) error {
	if err := s.ensureVersionTable(ctx); err != nil {
		return err
	}
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current || m.version > target {
			continue
		}
		m := m
		err := s.withTx(ctx, "migrate", func(tx *sqlx.Tx) error {
			if err := m.up(ctx, s, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE schema_version SET version = ? WHERE id = 1"), m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
		}
		s.log.Info().Int("version", m.version).Str("migration", m.name).Msg("applied")
	}
	return nil
}

// SchemaVersion returns the recorded schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT version FROM schema_version WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// resetSchemaVersion rewrites the version marker without touching tables.
func (s *Store) resetSchemaVersion(ctx context.Context, v int) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE schema_version SET version = ? WHERE id = 1"), v)
	return err
}

func (s *Store) ensureVersionTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_version (id, version)
		SELECT 1, 0 WHERE NOT EXISTS (SELECT 1 FROM schema_version)
	`); err != nil {
		return fmt.Errorf("failed to seed schema_version: %w", err)
	}
	return nil
}

// primaryKey is the auto-incrementing id column definition for the driver.
func (s *Store) primaryKey() string {
	if s.isPostgres() {
		return "id BIGSERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

func execAll(ctx context.Context, tx *sqlx.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateCoreTables(ctx context.Context, s *Store, tx *sqlx.Tx) error {
	pk := s.primaryKey()
	return execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS users (
			`+pk+`,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			coins INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS levels (
			`+pk+`,
			user_id INTEGER NOT NULL REFERENCES users(id),
			level_number INTEGER NOT NULL,
			word TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			elapsed_secs INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			attempt_reward INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			`+pk+`,
			word TEXT NOT NULL UNIQUE,
			length INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_words_length ON words(length)`,
	)
}

func migrateEconomyTables(ctx context.Context, s *Store, tx *sqlx.Tx) error {
	pk := s.primaryKey()
	return execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS lives (
			`+pk+`,
			user_id INTEGER NOT NULL REFERENCES users(id),
			lives INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lives_user ON lives(user_id)`,
		`CREATE TABLE IF NOT EXISTS tools (
			`+pk+`,
			user_id INTEGER NOT NULL REFERENCES users(id),
			reveal_letter INTEGER NOT NULL DEFAULT 0,
			skip_word INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_user ON tools(user_id)`,
	)
}

// migrateUniqueLevels retrofits the one-record-per-(user, level) rule onto an
// existing levels table. Duplicates left by older versions are collapsed onto
// the best row: highest score, then lowest id.
func migrateUniqueLevels(ctx context.Context, s *Store, tx *sqlx.Tx) error {
	result, err := tx.ExecContext(ctx, `
		DELETE FROM levels WHERE id IN (
			SELECT l.id FROM levels l
			WHERE EXISTS (
				SELECT 1 FROM levels o
				WHERE o.user_id = l.user_id
				  AND o.level_number = l.level_number
				  AND (o.score > l.score OR (o.score = l.score AND o.id < l.id))
			)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to collapse duplicate levels: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.log.Warn().Int64("rows", n).Msg("removed duplicate level records")
	}

	return execAll(ctx, tx,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_levels_user_level ON levels(user_id, level_number)`,
		`CREATE INDEX IF NOT EXISTS idx_levels_user ON levels(user_id)`,
	)
}

func migrateStreakAndGrants(ctx context.Context, s *Store, tx *sqlx.Tx) error {
	if err := s.addColumn(ctx, tx, "users", "streak", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return s.addColumn(ctx, tx, "lives", "last_grant_on", "TEXT NOT NULL DEFAULT ''")
}

// addColumn adds column to table unless it is already there.
func (s *Store) addColumn(ctx context.Context, tx *sqlx.Tx, table, column, def string) error {
	if s.isPostgres() {
		_, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", table, column, def))
		return err
	}

	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column); err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, def))
	return err
}
