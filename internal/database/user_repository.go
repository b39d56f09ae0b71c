package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

const userColumns = "id, username, email, password_hash, coins, streak, created_at, updated_at"

// CreateUser registers a player together with their life pool and tool
// inventory. Duplicate emails and usernames are rejected before any write.
func (s *Store) CreateUser(ctx context.Context, nu models.NewUser, starter models.Starter) (models.User, error) {
	var user models.User
	err := s.withTx(ctx, "create user", func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM users WHERE lower(email) = lower(?)"), nu.Email); err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrDuplicateEmail
		}
		if err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM users WHERE lower(username) = lower(?)"), nu.Username); err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrDuplicateUsername
		}

		id, err := s.insertID(ctx, tx,
			"INSERT INTO users (username, email, password_hash, coins, streak) VALUES (?, ?, ?, ?, 0)",
			nu.Username, nu.Email, nu.PasswordHash, starter.Coins)
		if err != nil {
			if isUniqueViolation(err) {
				if violatedColumn(err, "email") != "" {
					return apperr.ErrDuplicateEmail
				}
				return apperr.ErrDuplicateUsername
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if _, err := s.insertID(ctx, tx,
			"INSERT INTO lives (user_id, lives, last_grant_on) VALUES (?, ?, ?)",
			id, starter.Lives, starter.GrantedOn); err != nil {
			return fmt.Errorf("failed to create life pool: %w", err)
		}
		if _, err := s.insertID(ctx, tx,
			"INSERT INTO tools (user_id, reveal_letter, skip_word) VALUES (?, ?, ?)",
			id, starter.RevealLetter, starter.SkipWord); err != nil {
			return fmt.Errorf("failed to create tool inventory: %w", err)
		}

		return tx.GetContext(ctx, &user, tx.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	})
	return user, err
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return user, apperr.ErrUserNotFound
	}
	if err != nil {
		return user, apperr.Persistence("get user", err)
	}
	return user, nil
}

// FindUserByLogin looks a user up by email or username, ignoring case.
func (s *Store) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	login = strings.TrimSpace(login)
	err := s.db.GetContext(ctx, &user, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE lower(email) = lower(?) OR lower(username) = lower(?)"),
		login, login)
	if errors.Is(err, sql.ErrNoRows) {
		return user, apperr.ErrUserNotFound
	}
	if err != nil {
		return user, apperr.Persistence("find user", err)
	}
	return user, nil
}

// AdjustCoins adds delta to the coin balance and returns the new balance.
// A debit larger than the balance fails with ErrInsufficientFunds and leaves
// the balance untouched.
func (s *Store) AdjustCoins(ctx context.Context, userID int64, delta int) (int, error) {
	var coins int
	err := s.withTx(ctx, "adjust coins", func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &coins, tx.Rebind("SELECT coins FROM users WHERE id = ?"), userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.ErrUserNotFound
			}
			return err
		}
		if coins+delta < 0 {
			return apperr.ErrInsufficientFunds
		}
		coins += delta
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE users SET coins = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"), coins, userID)
		return err
	})
	return coins, err
}

// RecordStreak extends the win streak on a win and resets it on a loss.
func (s *Store) RecordStreak(ctx context.Context, userID int64, won bool) (int, error) {
	var streak int
	err := s.withTx(ctx, "record streak", func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &streak, tx.Rebind("SELECT streak FROM users WHERE id = ?"), userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.ErrUserNotFound
			}
			return err
		}
		if won {
			streak++
		} else {
			streak = 0
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE users SET streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"), streak, userID)
		return err
	})
	return streak, err
}
