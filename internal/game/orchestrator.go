// Package game connects play sessions to stored progression.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/internal/progression"
	"github.com/example/wordquest/internal/session"
	"github.com/example/wordquest/pkg/models"
)

// Store is the persistence the orchestrator needs on top of the policy.
type Store interface {
	InsertLevelProgress(ctx context.Context, d models.LevelDraft) (models.LevelProgress, error)
	UpdateLevelProgress(ctx context.Context, p models.LevelProgress) (models.LevelProgress, error)
	PickRandomWordOfLength(ctx context.Context, n int) (models.Word, error)
	GetTools(ctx context.Context, userID int64) (models.ToolInventory, error)
	ConsumeTool(ctx context.Context, userID int64, kind models.ToolKind) (int, error)
	RecordStreak(ctx context.Context, userID int64, won bool) (int, error)
}

// Options configures New.
type Options struct {
	MaxAttempts int
	Clock       clock.Clock
	Logger      zerolog.Logger
}

// Orchestrator runs at most one game per user and settles each finished
// game against the store exactly once.
type Orchestrator struct {
	store  Store
	policy *progression.Policy
	opts   Options
	log    zerolog.Logger

	mu     sync.Mutex
	active map[int64]*Game
}

// New returns an orchestrator.
func New(store Store, policy *progression.Policy, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Orchestrator{
		store:  store,
		policy: policy,
		opts:   opts,
		log:    opts.Logger.With().Str("component", "game").Logger(),
		active: map[int64]*Game{},
	}
}

// StartSession opens a game on level for userID. The level record is
// created first if this is the user's first visit. A game already running
// for the user is left (and settled if it had finished) before the new one
// starts.
func (o *Orchestrator) StartSession(ctx context.Context, userID int64, level int) (*Game, error) {
	if err := o.policy.CanStart(ctx, userID, level); err != nil {
		return nil, err
	}

	if _, err := o.Leave(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to close previous game: %w", err)
	}

	record, err := o.store.InsertLevelProgress(ctx, models.LevelDraft{
		UserID:      userID,
		LevelNumber: level,
		WordLength:  progression.WordLengthForLevel(level),
	})
	if err != nil {
		return nil, err
	}

	target := record.Word
	if record.Completed() {
		// Replays get a fresh word; the stored one is already known.
		if w, err := o.store.PickRandomWordOfLength(ctx, progression.WordLengthForLevel(level)); err == nil {
			target = w.Text
		} else if !errors.Is(err, apperr.ErrNoWordOfLength) {
			return nil, err
		}
	}

	sess, err := session.New(target, session.Options{
		MaxAttempts: o.opts.MaxAttempts,
		Clock:       o.opts.Clock,
		Inventory:   inventory{store: o.store, userID: userID},
	})
	if err != nil {
		return nil, err
	}

	g := &Game{UserID: userID, Level: level, Record: record, Session: sess}
	o.mu.Lock()
	o.active[userID] = g
	o.mu.Unlock()

	o.log.Debug().Int64("user_id", userID).Int("level", level).Str("session", sess.ID().String()).Msg("session started")
	return g, nil
}

// Active returns the running game of userID.
func (o *Orchestrator) Active(userID int64) (*Game, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.active[userID]
	return g, ok
}

// Submit plays word in the user's game. When the guess ends the game the
// outcome is settled before returning.
func (o *Orchestrator) Submit(ctx context.Context, userID int64, word string) (session.Board, *Settlement, error) {
	g, ok := o.Active(userID)
	if !ok {
		return session.Board{}, nil, apperr.Wrap(apperr.CodeInvalidInput, "no game in progress", nil)
	}

	board, err := g.Session.SubmitWord(word)
	if err != nil {
		return board, nil, err
	}
	if !board.State.Terminal() {
		return board, nil, nil
	}

	st, err := o.Settle(ctx, g)
	if err != nil {
		return board, nil, err
	}
	o.forget(g)
	return board, &st, nil
}

// UseTool applies a tool in the user's game.
func (o *Orchestrator) UseTool(ctx context.Context, userID int64, kind models.ToolKind) (string, error) {
	g, ok := o.Active(userID)
	if !ok {
		return "", apperr.Wrap(apperr.CodeInvalidInput, "no game in progress", nil)
	}
	return g.Session.UseTool(ctx, kind)
}

// Leave drops the user's game. A finished game is settled first; a game
// still in progress has no outcome and is discarded without cost.
func (o *Orchestrator) Leave(ctx context.Context, userID int64) (*Settlement, error) {
	g, ok := o.Active(userID)
	if !ok {
		return nil, nil
	}
	if !g.Session.State().Terminal() {
		o.forget(g)
		o.log.Debug().Int64("user_id", userID).Int("level", g.Level).Msg("session abandoned")
		return nil, nil
	}

	st, err := o.Settle(ctx, g)
	if err != nil {
		return nil, err
	}
	o.forget(g)
	return &st, nil
}

func (o *Orchestrator) forget(g *Game) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[g.UserID] == g {
		delete(o.active, g.UserID)
	}
}

type inventory struct {
	store  Store
	userID int64
}

func (i inventory) ToolCount(ctx context.Context, kind models.ToolKind) (int, error) {
	inv, err := i.store.GetTools(ctx, i.userID)
	if err != nil {
		return 0, err
	}
	return inv.Count(kind), nil
}

func (i inventory) ConsumeTool(ctx context.Context, kind models.ToolKind) (int, error) {
	return i.store.ConsumeTool(ctx, i.userID, kind)
}
