package database

import (
	"context"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// UserStatistics summarizes a user's level records.
func (s *Store) UserStatistics(ctx context.Context, userID int64) (models.Statistics, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Statistics{}, err
	}

	stats := models.Statistics{UserID: userID, Streak: user.Streak}
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN score > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(score), 0),
			COALESCE(MIN(CASE WHEN score > 0 THEN elapsed_secs END), 0)
		FROM levels
		WHERE user_id = ?
	`), userID).Scan(&stats.LevelsCompleted, &stats.TotalScore, &stats.BestTimeSecs)
	if err != nil {
		return stats, apperr.Persistence("user statistics", err)
	}
	return stats, nil
}

// Wallet returns the user's coins, lives and tools.
func (s *Store) Wallet(ctx context.Context, userID int64) (models.Wallet, error) {
	var w models.Wallet
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return w, err
	}
	pool, err := s.GetLives(ctx, userID)
	if err != nil {
		return w, err
	}
	tools, err := s.GetTools(ctx, userID)
	if err != nil {
		return w, err
	}
	return models.Wallet{Coins: user.Coins, Lives: pool.Lives, Tools: tools}, nil
}
