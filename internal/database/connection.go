package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/example/wordquest/internal/apperr"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Driver string // sqlite3 (default) or postgres
	DSN    string // file path for sqlite3, connection string for postgres
	Logger zerolog.Logger
}

// Store is the handle to the progression database. It is created once and
// passed to every component that reads or writes progression state.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(ctx, opts.DSN)
	case DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, DriverPostgres, opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, log: opts.Logger.With().Str("component", "store").Logger()}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if path == "" {
		path = filepath.Join("data", "wordquest.db")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, DriverSQLite, path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the name of the underlying driver.
func (s *Store) Driver() string {
	return s.db.DriverName()
}

func (s *Store) isPostgres() bool {
	return s.Driver() == DriverPostgres
}

// withTx runs fn inside one transaction. Either every write made by fn is
// committed or none is. Errors from fn are returned classified.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Persistence(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Str("op", op).Msg("rollback failed")
		}
		return apperr.Persistence(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Persistence(op, err)
	}
	return nil
}

// insertID executes an INSERT written with ? placeholders and returns the new
// row id. Postgres has no LastInsertId, so the statement gets RETURNING id.
func (s *Store) insertID(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	if s.isPostgres() {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// isUniqueViolation reports whether err is a duplicate-key error from either driver.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

// violatedColumn guesses which column a unique violation refers to.
func violatedColumn(err error, candidates ...string) string {
	msg := strings.ToLower(err.Error())
	for _, c := range candidates {
		if strings.Contains(msg, c) {
			return c
		}
	}
	return ""
}
