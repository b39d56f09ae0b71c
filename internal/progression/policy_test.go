package progression

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/pkg/models"
)

type fixture struct {
	store  *database.Store
	clock  *clock.Fake
	policy *Policy
	user   models.User
}

func newFixture(t *testing.T, starter models.Starter) fixture {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, database.Options{
		DSN:    filepath.Join(t.TempDir(), "policy.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := clock.NewFake(time.Date(2026, 5, 10, 21, 30, 0, 0, time.UTC))
	p := NewPolicy(store, clk, Config{MaxLevel: 100, MaxLives: 5, CoinsPerScore: 10, Location: time.UTC}, zerolog.Nop())

	if starter.GrantedOn == "" {
		starter.GrantedOn = p.Today()
	}
	u, err := store.CreateUser(ctx, models.NewUser{Username: "ana", Email: "ana@example.com", PasswordHash: "h"}, starter)
	require.NoError(t, err)
	return fixture{store: store, clock: clk, policy: p, user: u}
}

func (f fixture) complete(t *testing.T, level, score int) {
	t.Helper()
	ctx := context.Background()
	rec, err := f.store.InsertLevelProgress(ctx, models.LevelDraft{UserID: f.user.ID, LevelNumber: level, Word: "casa"})
	require.NoError(t, err)
	rec.Score = score
	_, err = f.store.UpdateLevelProgress(ctx, rec)
	require.NoError(t, err)
}

func TestCanStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Lives: 1})
	f.complete(t, 1, 60)

	require.NoError(t, f.policy.CanStart(ctx, f.user.ID, 1))
	require.NoError(t, f.policy.CanStart(ctx, f.user.ID, 2))

	err := f.policy.CanStart(ctx, f.user.ID, 3)
	assert.ErrorIs(t, err, apperr.ErrLevelLocked)

	err = f.policy.CanStart(ctx, f.user.ID, 101)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	lives, err := f.policy.RecordLoss(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, lives)

	err = f.policy.CanStart(ctx, f.user.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrNoLivesRemaining)
}

func TestCanStartRefusesGapInHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Lives: 3})
	f.complete(t, 1, 100)
	f.complete(t, 2, 60)
	f.complete(t, 4, 40)

	statuses, err := f.policy.ListLevelStatuses(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 5)
	assert.Equal(t, StatusLocked, statuses[2].Status)

	err = f.policy.CanStart(ctx, f.user.ID, 3)
	assert.ErrorIs(t, err, apperr.ErrLevelLocked)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.NoError(t, f.policy.CanStart(ctx, f.user.ID, 4))
	assert.NoError(t, f.policy.CanStart(ctx, f.user.ID, 5))
	err = f.policy.CanStart(ctx, f.user.ID, 6)
	assert.ErrorIs(t, err, apperr.ErrLevelLocked)
}

func TestListLevelStatusesFromStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Lives: 3})
	f.complete(t, 1, 100)
	f.complete(t, 2, 40)

	got, err := f.policy.ListLevelStatuses(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, StatusCurrent, got[2].Status)

	next, err := f.policy.NextPlayable(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestRecordWinCreditsCoins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Coins: 2, Lives: 3})

	coins, err := f.policy.RecordWin(ctx, f.user.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, 10, coins)
	assert.Equal(t, 0, f.policy.CoinsFor(0))
	assert.Equal(t, 9, f.policy.CoinsFor(99))
}

func TestBuy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Coins: 25, Lives: 5})

	err := f.policy.Buy(ctx, f.user.ID, models.ItemLife)
	assert.ErrorIs(t, err, apperr.ErrLivesFull)

	require.NoError(t, f.policy.Buy(ctx, f.user.ID, models.ItemRevealLetter))

	err = f.policy.Buy(ctx, f.user.ID, models.ItemSkipWord)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	w, err := f.store.Wallet(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, w.Coins)
	assert.Equal(t, 5, w.Lives)
	assert.Equal(t, 1, w.Tools.RevealLetter)
	assert.Equal(t, 0, w.Tools.SkipWord)
}

func TestRefillTickFollowsLocalMidnight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Starter{Lives: 2})

	assert.Equal(t, 2*time.Hour+30*time.Minute, f.policy.UntilNextRefill())

	n, err := f.policy.RefillTick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "same day as registration")

	// Ticks missed while suspended: one tick after two days still grants once.
	f.clock.Advance(49 * time.Hour)
	n, err = f.policy.RefillTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.policy.RefillTick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	pool, err := f.store.GetLives(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Lives)
	assert.Equal(t, "2026-05-12", pool.LastGrantOn)
}
