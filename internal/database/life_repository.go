package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// GetLives returns the user's life pool.
func (s *Store) GetLives(ctx context.Context, userID int64) (models.LifePool, error) {
	var pool models.LifePool
	err := s.db.GetContext(ctx, &pool, s.db.Rebind(
		"SELECT id, user_id, lives, last_grant_on FROM lives WHERE user_id = ? ORDER BY id LIMIT 1"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return pool, apperr.ErrUserNotFound
	}
	if err != nil {
		return pool, apperr.Persistence("get lives", err)
	}
	return pool, nil
}

// AdjustLives adds delta to the life count inside one transaction and returns
// the new count. The count never drops below zero (ErrNoLivesRemaining) and a
// credit never lifts it above max when max > 0 (ErrLivesFull).
func (s *Store) AdjustLives(ctx context.Context, userID int64, delta, max int) (int, error) {
	var lives int
	err := s.withTx(ctx, "adjust lives", func(tx *sqlx.Tx) error {
		var err error
		lives, err = adjustLives(ctx, tx, userID, delta, max)
		return err
	})
	return lives, err
}

func adjustLives(ctx context.Context, tx *sqlx.Tx, userID int64, delta, max int) (int, error) {
	var pool models.LifePool
	err := tx.GetContext(ctx, &pool, tx.Rebind(
		"SELECT id, user_id, lives, last_grant_on FROM lives WHERE user_id = ? ORDER BY id LIMIT 1"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	next := pool.Lives + delta
	if next < 0 {
		return pool.Lives, apperr.ErrNoLivesRemaining
	}
	if delta > 0 && max > 0 && next > max {
		return pool.Lives, apperr.ErrLivesFull
	}
	_, err = tx.ExecContext(ctx, tx.Rebind("UPDATE lives SET lives = ? WHERE id = ?"), next, pool.ID)
	return next, err
}

// GrantDailyLives gives one life to every pool below max that has not been
// granted a life on day yet, then marks all pools as granted for day. It
// returns the number of pools that received a life.
func (s *Store) GrantDailyLives(ctx context.Context, day string, max int) (int64, error) {
	var granted int64
	err := s.withTx(ctx, "grant daily lives", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE lives SET lives = lives + 1, last_grant_on = ? WHERE last_grant_on <> ? AND lives < ?"),
			day, day, max)
		if err != nil {
			return err
		}
		if granted, err = result.RowsAffected(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind("UPDATE lives SET last_grant_on = ? WHERE last_grant_on <> ?"), day, day)
		return err
	})
	return granted, err
}
