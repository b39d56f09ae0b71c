package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// GetTools returns the user's tool inventory.
func (s *Store) GetTools(ctx context.Context, userID int64) (models.ToolInventory, error) {
	var inv models.ToolInventory
	err := s.db.GetContext(ctx, &inv, s.db.Rebind(
		"SELECT id, user_id, reveal_letter, skip_word FROM tools WHERE user_id = ? ORDER BY id LIMIT 1"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, apperr.ErrUserNotFound
	}
	if err != nil {
		return inv, apperr.Persistence("get tools", err)
	}
	return inv, nil
}

// ConsumeTool takes one unit of kind from the inventory and returns how many
// are left. Reading and decrementing the counter happen in one transaction.
func (s *Store) ConsumeTool(ctx context.Context, userID int64, kind models.ToolKind) (int, error) {
	return s.adjustToolTx(ctx, "consume tool", userID, kind, -1)
}

// AddTools credits n units of kind and returns the new count.
func (s *Store) AddTools(ctx context.Context, userID int64, kind models.ToolKind, n int) (int, error) {
	if n < 0 {
		return 0, apperr.ErrInvalidInput
	}
	return s.adjustToolTx(ctx, "add tools", userID, kind, n)
}

func (s *Store) adjustToolTx(ctx context.Context, op string, userID int64, kind models.ToolKind, delta int) (int, error) {
	if _, err := models.ParseToolKind(string(kind)); err != nil {
		return 0, fmt.Errorf("%s: %w", op, apperr.ErrInvalidInput)
	}
	var count int
	err := s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		count, err = adjustTool(ctx, tx, userID, kind, delta)
		return err
	})
	return count, err
}

func adjustTool(ctx context.Context, tx *sqlx.Tx, userID int64, kind models.ToolKind, delta int) (int, error) {
	var inv models.ToolInventory
	err := tx.GetContext(ctx, &inv, tx.Rebind(
		"SELECT id, user_id, reveal_letter, skip_word FROM tools WHERE user_id = ? ORDER BY id LIMIT 1"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	next := inv.Count(kind) + delta
	if next < 0 {
		return 0, apperr.ErrToolExhausted
	}
	// kind.Column() only yields known column names
	_, err = tx.ExecContext(ctx, tx.Rebind("UPDATE tools SET "+kind.Column()+" = ? WHERE id = ?"), next, inv.ID)
	return next, err
}
