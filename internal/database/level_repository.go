package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/matcher"
	"github.com/example/wordquest/pkg/models"
)

const levelColumns = "id, user_id, level_number, word, attempts, elapsed_secs, score, attempt_reward, created_at, updated_at"

// InsertLevelProgress persists a draft and returns the stored record. If a
// record for (user, level) already exists it is returned unchanged, so the
// call is idempotent and never produces a second row.
func (s *Store) InsertLevelProgress(ctx context.Context, d models.LevelDraft) (models.LevelProgress, error) {
	if d.UserID <= 0 || d.LevelNumber < 1 {
		return models.LevelProgress{}, fmt.Errorf("insert level %d: %w", d.LevelNumber, apperr.ErrInvalidInput)
	}

	var progress models.LevelProgress
	err := s.withTx(ctx, "insert level", func(tx *sqlx.Tx) error {
		existing, err := getLevelByUser(ctx, tx, d.UserID, d.LevelNumber)
		if err == nil {
			progress = existing
			return nil
		}
		if !errors.Is(err, apperr.ErrRecordNotFound) {
			return err
		}

		word := matcher.Normalize(d.Word)
		if word == "" {
			if d.WordLength <= 0 {
				return apperr.ErrInvalidInput
			}
			w, err := pickWord(ctx, tx, d.WordLength)
			if errors.Is(err, apperr.ErrNoWordOfLength) {
				return apperr.Wrap(apperr.CodeWordUnavailable,
					fmt.Sprintf("no word of length %d for level %d", d.WordLength, d.LevelNumber), err)
			}
			if err != nil {
				return err
			}
			word = w.Text
		}

		id, err := s.insertID(ctx, tx,
			"INSERT INTO levels (user_id, level_number, word, attempts, elapsed_secs, score, attempt_reward) VALUES (?, ?, ?, 0, 0, 0, 0)",
			d.UserID, d.LevelNumber, word)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrDuplicateLevel
			}
			return fmt.Errorf("failed to create level progress: %w", err)
		}
		progress, err = getLevelByID(ctx, tx, id)
		return err
	})

	// Another connection inserted the same pair first; hand back its row.
	if errors.Is(err, apperr.ErrDuplicateLevel) {
		s.log.Debug().Int64("user_id", d.UserID).Int("level", d.LevelNumber).Msg("level inserted concurrently")
		return s.GetLevelProgress(ctx, d.UserID, d.LevelNumber)
	}
	return progress, err
}

// UpdateLevelProgress merges attempts, elapsed time, score and reward into an
// existing record. The row is located by ID first and by (user, level) second.
// It never inserts: without a prior InsertLevelProgress it fails with
// ErrRecordNotFound and the store is left unchanged.
func (s *Store) UpdateLevelProgress(ctx context.Context, p models.LevelProgress) (models.LevelProgress, error) {
	var updated models.LevelProgress
	err := s.withTx(ctx, "update level", func(tx *sqlx.Tx) error {
		existing, err := locateLevel(ctx, tx, p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE levels SET
				attempts = ?,
				elapsed_secs = ?,
				score = ?,
				attempt_reward = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`),
			p.Attempts, p.ElapsedSecs, p.Score, p.AttemptReward, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update level progress: %w", err)
		}
		updated, err = getLevelByID(ctx, tx, existing.ID)
		return err
	})
	return updated, err
}

// GetLevelProgress returns the record for (user, level).
func (s *Store) GetLevelProgress(ctx context.Context, userID int64, level int) (models.LevelProgress, error) {
	var p models.LevelProgress
	err := s.db.GetContext(ctx, &p, s.db.Rebind(
		"SELECT "+levelColumns+" FROM levels WHERE user_id = ? AND level_number = ?"), userID, level)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.ErrRecordNotFound
	}
	if err != nil {
		return p, apperr.Persistence("get level", err)
	}
	return p, nil
}

// ListLevelProgress returns all of a user's records ordered by level.
func (s *Store) ListLevelProgress(ctx context.Context, userID int64) ([]models.LevelProgress, error) {
	var rows []models.LevelProgress
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		"SELECT "+levelColumns+" FROM levels WHERE user_id = ? ORDER BY level_number"), userID)
	if err != nil {
		return nil, apperr.Persistence("list levels", err)
	}
	return rows, nil
}

// CountLevelRows counts the stored records for (user, level).
func (s *Store) CountLevelRows(ctx context.Context, userID int64, level int) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(
		"SELECT COUNT(*) FROM levels WHERE user_id = ? AND level_number = ?"), userID, level)
	if err != nil {
		return 0, apperr.Persistence("count levels", err)
	}
	return n, nil
}

func locateLevel(ctx context.Context, tx *sqlx.Tx, p models.LevelProgress) (models.LevelProgress, error) {
	if p.ID != 0 {
		existing, err := getLevelByID(ctx, tx, p.ID)
		if !errors.Is(err, apperr.ErrRecordNotFound) {
			return existing, err
		}
	}
	if p.UserID == 0 || p.LevelNumber == 0 {
		return models.LevelProgress{}, apperr.ErrRecordNotFound
	}
	return getLevelByUser(ctx, tx, p.UserID, p.LevelNumber)
}

func getLevelByID(ctx context.Context, tx *sqlx.Tx, id int64) (models.LevelProgress, error) {
	var p models.LevelProgress
	err := tx.GetContext(ctx, &p, tx.Rebind("SELECT "+levelColumns+" FROM levels WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.ErrRecordNotFound
	}
	return p, err
}

func getLevelByUser(ctx context.Context, tx *sqlx.Tx, userID int64, level int) (models.LevelProgress, error) {
	var p models.LevelProgress
	err := tx.GetContext(ctx, &p, tx.Rebind(
		"SELECT "+levelColumns+" FROM levels WHERE user_id = ? AND level_number = ?"), userID, level)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.ErrRecordNotFound
	}
	return p, err
}
