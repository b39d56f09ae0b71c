package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// Purchase debits cost coins and credits one unit of item in a single
// transaction. Nothing is written when the balance is short
// (ErrInsufficientFunds) or a life is bought at maxLives (ErrLivesFull).
func (s *Store) Purchase(ctx context.Context, userID int64, item models.Item, cost, maxLives int) error {
	if cost < 0 {
		return apperr.ErrInvalidInput
	}
	return s.withTx(ctx, "purchase", func(tx *sqlx.Tx) error {
		var coins int
		if err := tx.GetContext(ctx, &coins, tx.Rebind("SELECT coins FROM users WHERE id = ?"), userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.ErrUserNotFound
			}
			return err
		}
		if coins < cost {
			return apperr.ErrInsufficientFunds
		}

		if kind, ok := item.Tool(); ok {
			if _, err := adjustTool(ctx, tx, userID, kind, 1); err != nil {
				return err
			}
		} else if item == models.ItemLife {
			if _, err := adjustLives(ctx, tx, userID, 1, maxLives); err != nil {
				return err
			}
		} else {
			return apperr.ErrInvalidInput
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE users SET coins = coins - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"), cost, userID)
		return err
	})
}
