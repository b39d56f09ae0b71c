package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/wordquest/internal/account"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/game"
	"github.com/example/wordquest/internal/progression"
	"github.com/example/wordquest/pkg/models"
)

const chat = int64(4242)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, database.Options{
		DSN:    filepath.Join(t.TempDir(), "bot.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.SeedWords(ctx, []string{"casa"})
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	policy := progression.NewPolicy(store, clk, progression.Config{MaxLevel: 100, MaxLives: 5, Location: time.UTC}, zerolog.Nop())
	accounts := account.NewService(store, func() models.Starter {
		return policy.Starter(0, 3, 0, 0)
	}, zerolog.Nop()).WithCost(bcrypt.MinCost)

	return New("", Deps{
		Accounts: accounts,
		Policy:   policy,
		Games:    game.New(store, policy, game.Options{MaxAttempts: 6, Clock: clk, Logger: zerolog.Nop()}),
		Store:    store,
		Logger:   zerolog.Nop(),
	}, nil)
}

func TestCommandsRequireLogin(t *testing.T) {
	b := newTestBot(t)
	r := b.HandleCommand(context.Background(), chat, "levels", "")
	assert.Contains(t, r.Text, "/login")

	r = b.HandleText(context.Background(), chat, "casa")
	assert.Contains(t, r.Text, "/login")
}

func TestPlayThroughChat(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)

	r := b.HandleCommand(ctx, chat, "register", "ana ana@example.com secretpass")
	require.Contains(t, r.Text, "Welcome, ana")
	assert.NotNil(t, r.Keyboard)

	r = b.HandleCommand(ctx, chat, "levels", "")
	assert.Contains(t, r.Text, "▶️ 1 - play now (4 letters)")

	r = b.HandleCommand(ctx, chat, "play", "")
	assert.Contains(t, r.Text, "Level 1: a 4-letter word, 6 tries")

	r = b.HandleText(ctx, chat, "mes")
	assert.Contains(t, r.Text, "exactly as many letters")

	r = b.HandleText(ctx, chat, "mesa")
	assert.Contains(t, r.Text, "⬜⬜🟩🟩  MESA")
	assert.Contains(t, r.Text, "Tries left: 5")

	r = b.HandleCommand(ctx, chat, "reveal", "")
	assert.Contains(t, r.Text, "none of that tool")

	r = b.HandleCommand(ctx, chat, "guess", "casa")
	assert.Contains(t, r.Text, "Solved in 2 tries")
	assert.Contains(t, r.Text, "Score 80, +8 coins (balance 8)")

	r = b.HandleCommand(ctx, chat, "status", "")
	assert.Contains(t, r.Text, "Coins: 8")
	assert.Contains(t, r.Text, "Lives: 3 (next in 12h0m0s)")
	assert.Contains(t, r.Text, "Levels completed: 1")

	r = b.HandleCommand(ctx, chat, "play", "3")
	assert.Contains(t, r.Text, "locked")

	r = b.HandleCommand(ctx, chat, "buy", "reveal-letter")
	assert.Contains(t, r.Text, "Not enough coins")

	r = b.HandleCommand(ctx, chat, "buy", "")
	assert.Contains(t, r.Text, "life - 20 coins")
}

func TestLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)
	b.HandleCommand(ctx, chat, "register", "ana ana@example.com secretpass")
	b.HandleCommand(ctx, chat, "logout", "")

	r := b.HandleCommand(ctx, chat+1, "login", "ana wrongpass")
	assert.Equal(t, "Wrong username or password.", r.Text)

	r = b.HandleCommand(ctx, chat+1, "login", "ana@example.com secretpass")
	assert.Contains(t, r.Text, "Welcome back, ana")

	r = b.HandleCommand(ctx, chat+1, "register", "ana")
	assert.Contains(t, r.Text, "Usage")
}

func TestQuitUnfinishedGame(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)
	b.HandleCommand(ctx, chat, "register", "ana ana@example.com secretpass")
	b.HandleCommand(ctx, chat, "play", "")

	r := b.HandleCallback(ctx, chat, "quit")
	assert.Contains(t, r.Text, "No life was lost")

	r = b.HandleText(ctx, chat, "casa")
	assert.Contains(t, r.Text, "No game running")
}
