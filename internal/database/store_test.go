package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, name string, starter models.Starter) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.NewUser{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	}, starter)
	require.NoError(t, err)
	return u
}

func TestCreateUserSeedsEconomy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := createUser(t, s, "lucia", models.Starter{Coins: 15, Lives: 3, RevealLetter: 2, SkipWord: 1, GrantedOn: "2026-01-01"})
	assert.NotZero(t, u.ID)
	assert.Equal(t, 15, u.Coins)
	assert.Equal(t, 0, u.Streak)

	w, err := s.Wallet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, w.Coins)
	assert.Equal(t, 3, w.Lives)
	assert.Equal(t, 2, w.Tools.RevealLetter)
	assert.Equal(t, 1, w.Tools.SkipWord)

	pool, err := s.GetLives(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", pool.LastGrantOn)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "lucia", models.Starter{Lives: 1})

	_, err := s.CreateUser(ctx, models.NewUser{Username: "other", Email: "LUCIA@example.com", PasswordHash: "x"}, models.Starter{})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	_, err = s.CreateUser(ctx, models.NewUser{Username: "Lucia", Email: "new@example.com", PasswordHash: "x"}, models.Starter{})
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)

	var n int
	require.NoError(t, s.db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, n)
	require.NoError(t, s.db.Get(&n, "SELECT COUNT(*) FROM lives"))
	assert.Equal(t, 1, n)
}

func TestFindUserByLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})

	byEmail, err := s.FindUserByLogin(ctx, "Lucia@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := s.FindUserByLogin(ctx, " LUCIA ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.FindUserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestInsertLevelProgressIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})

	first, err := s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: 1, Word: "Casa"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, "casa", first.Word)
	assert.Equal(t, 0, first.Score)

	second, err := s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: 1, Word: "mesa"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := s.CountLevelRows(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertLevelProgressPicksCorpusWord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})
	_, err := s.SeedWords(ctx, []string{"casa", "mesa", "perro"})
	require.NoError(t, err)

	p, err := s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: 1, WordLength: 5})
	require.NoError(t, err)
	assert.Equal(t, "perro", p.Word)

	_, err = s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: 2, WordLength: 7})
	assert.ErrorIs(t, err, apperr.ErrWordUnavailable)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	n, err := s.CountLevelRows(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateWithoutInsertFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})

	_, err := s.UpdateLevelProgress(ctx, models.LevelProgress{UserID: u.ID, LevelNumber: 3, Score: 80, Attempts: 2})
	assert.ErrorIs(t, err, apperr.ErrRecordNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	rows, err := s.ListLevelProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateLevelProgressMerges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})

	p, err := s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: 1, Word: "casa"})
	require.NoError(t, err)

	// located by id
	updated, err := s.UpdateLevelProgress(ctx, models.LevelProgress{ID: p.ID, Attempts: 2, ElapsedSecs: 30, Score: 80, AttemptReward: 8})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "casa", updated.Word)
	assert.Equal(t, 80, updated.Score)
	assert.Equal(t, 8, updated.AttemptReward)
	assert.True(t, updated.Completed())

	// unknown id falls back to (user, level)
	updated, err = s.UpdateLevelProgress(ctx, models.LevelProgress{ID: 9999, UserID: u.ID, LevelNumber: 1, Attempts: 1, Score: 100})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, 100, updated.Score)
}

func TestPickRandomWordOfLength(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.PickRandomWordOfLength(ctx, 4)
	assert.ErrorIs(t, err, apperr.ErrNoWordOfLength)

	_, err = s.SeedWords(ctx, []string{"casa", "mesa", "sueño", "perro"})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		w, err := s.PickRandomWordOfLength(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, w.Length)
		seen[w.Text] = true
	}
	assert.Subset(t, []string{"casa", "mesa"}, keys(seen))

	w, err := s.PickRandomWordOfLength(ctx, 5)
	require.NoError(t, err)
	assert.Contains(t, []string{"sueño", "perro"}, w.Text)
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestSeedWordsSkipsDuplicatesAndJunk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	res, err := s.SeedWords(ctx, []string{"casa", "CASA", "dos palabras", "", "año"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Inserted: 2, Skipped: 3}, res)

	res, err = s.SeedWords(ctx, []string{"casa", "año"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Inserted: 0, Skipped: 2}, res)

	n, err := s.CountWords(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConsumeToolNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{RevealLetter: 1})

	left, err := s.ConsumeTool(ctx, u.ID, models.ToolRevealLetter)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	_, err = s.ConsumeTool(ctx, u.ID, models.ToolRevealLetter)
	assert.ErrorIs(t, err, apperr.ErrToolExhausted)

	_, err = s.ConsumeTool(ctx, u.ID, models.ToolSkipWord)
	assert.ErrorIs(t, err, apperr.ErrToolExhausted)

	inv, err := s.GetTools(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.RevealLetter)
	assert.Equal(t, 0, inv.SkipWord)

	n, err := s.AddTools(ctx, u.ID, models.ToolSkipWord, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAdjustLivesBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{Lives: 1})

	lives, err := s.AdjustLives(ctx, u.ID, -1, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, lives)

	_, err = s.AdjustLives(ctx, u.ID, -1, 5)
	assert.ErrorIs(t, err, apperr.ErrNoLivesRemaining)

	_, err = s.AdjustLives(ctx, u.ID, 6, 5)
	assert.ErrorIs(t, err, apperr.ErrLivesFull)

	pool, err := s.GetLives(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Lives)
}

func TestAdjustCoins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{Coins: 5})

	coins, err := s.AdjustCoins(ctx, u.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 13, coins)

	_, err = s.AdjustCoins(ctx, u.ID, -20)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, got.Coins)
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{Coins: 30, Lives: 4})

	require.NoError(t, s.Purchase(ctx, u.ID, models.ItemRevealLetter, 10, 5))
	require.NoError(t, s.Purchase(ctx, u.ID, models.ItemLife, 10, 5))

	w, err := s.Wallet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Wallet{Coins: 10, Lives: 5, Tools: w.Tools}, w)
	assert.Equal(t, 1, w.Tools.RevealLetter)

	err = s.Purchase(ctx, u.ID, models.ItemLife, 5, 5)
	assert.ErrorIs(t, err, apperr.ErrLivesFull)

	err = s.Purchase(ctx, u.ID, models.ItemSkipWord, 50, 5)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	after, err := s.Wallet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, w, after, "failed purchases leave balances untouched")
}

func TestGrantDailyLives(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	low := createUser(t, s, "low", models.Starter{Lives: 1, GrantedOn: "2026-01-01"})
	full := createUser(t, s, "full", models.Starter{Lives: 5, GrantedOn: "2026-01-01"})

	n, err := s.GrantDailyLives(ctx, "2026-01-01", 5)
	require.NoError(t, err)
	assert.Zero(t, n, "already granted today")

	n, err = s.GrantDailyLives(ctx, "2026-01-02", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.GrantDailyLives(ctx, "2026-01-02", 5)
	require.NoError(t, err)
	assert.Zero(t, n, "one grant per day")

	pool, err := s.GetLives(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Lives)

	pool, err = s.GetLives(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, pool.Lives)
	assert.Equal(t, "2026-01-02", pool.LastGrantOn)
}

func TestUserStatisticsAndStreak(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "lucia", models.Starter{})

	for level, score := range map[int]int{1: 100, 2: 60, 3: 0} {
		p, err := s.InsertLevelProgress(ctx, models.LevelDraft{UserID: u.ID, LevelNumber: level, Word: "casa"})
		require.NoError(t, err)
		_, err = s.UpdateLevelProgress(ctx, models.LevelProgress{ID: p.ID, Score: score, ElapsedSecs: 10 * level})
		require.NoError(t, err)
	}
	streak, err := s.RecordStreak(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
	streak, err = s.RecordStreak(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	stats, err := s.UserStatistics(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Statistics{UserID: u.ID, LevelsCompleted: 2, TotalScore: 160, BestTimeSecs: 10, Streak: 2}, stats)

	streak, err = s.RecordStreak(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Zero(t, streak)
}
