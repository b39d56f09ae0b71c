package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/session"
	"github.com/example/wordquest/pkg/models"
)

// Game is one user's run at one level.
type Game struct {
	UserID  int64
	Level   int
	Record  models.LevelProgress
	Session *session.Session

	mu      sync.Mutex
	outcome *session.Outcome
	steps   Steps
	result  Settlement
}

// Steps records which settlement writes have been applied.
type Steps struct {
	RecordSaved    bool
	LifeDebited    bool
	CoinsCredited  bool
	StreakRecorded bool
}

// Done reports whether every write has been applied.
func (s Steps) Done() bool {
	return s.RecordSaved && s.LifeDebited && s.CoinsCredited && s.StreakRecorded
}

// Settlement is what a finished game changed.
type Settlement struct {
	Outcome session.Outcome
	Word    string // the word that was played
	Record  models.LevelProgress
	Lives   int // left after a loss
	Coins   int // balance after a win
	Earned  int
	Streak  int
	Steps   Steps
}

// SettleError reports a settlement that stopped part way. Steps tells the
// caller what was already applied; calling Settle again resumes after them.
type SettleError struct {
	Steps Steps
	Err   error
}

func (e *SettleError) Error() string {
	return fmt.Sprintf("settle game (record saved %t, life debited %t, coins credited %t): %v",
		e.Steps.RecordSaved, e.Steps.LifeDebited, e.Steps.CoinsCredited, e.Err)
}

func (e *SettleError) Unwrap() error { return e.Err }

// Settle persists the terminal outcome of g: insert the level record if it
// is missing, debit a life on a loss, update the record, credit coins on a
// win and update the streak. Each write is its own transaction, so a failure
// leaves earlier writes in place and returns a *SettleError; the game
// remembers them and a later Settle call only runs what is left. Settling
// an already settled game returns the same Settlement.
func (o *Orchestrator) Settle(ctx context.Context, g *Game) (Settlement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome == nil {
		select {
		case out, ok := <-g.Session.Done():
			if !ok {
				return g.result, nil
			}
			g.outcome = &out
		default:
			return Settlement{}, apperr.Wrap(apperr.CodeInvalidInput, "game has not finished", nil)
		}
	}
	if g.steps.Done() {
		return g.result, nil
	}

	out := *g.outcome
	g.result.Outcome = out
	g.result.Word = g.Session.Target()

	if err := o.applySteps(ctx, g, out); err != nil {
		o.log.Error().Err(err).Int64("user_id", g.UserID).Int("level", g.Level).
			Bool("life_debited", g.steps.LifeDebited).Msg("settlement incomplete")
		return g.result, &SettleError{Steps: g.steps, Err: err}
	}
	g.result.Steps = g.steps

	o.log.Info().Int64("user_id", g.UserID).Int("level", g.Level).Bool("won", out.Won).
		Int("score", out.Score).Dur("elapsed", out.Elapsed).Msg("game settled")
	return g.result, nil
}

func (o *Orchestrator) applySteps(ctx context.Context, g *Game, out session.Outcome) error {
	record, err := o.store.InsertLevelProgress(ctx, models.LevelDraft{
		UserID:      g.UserID,
		LevelNumber: g.Level,
		Word:        g.Record.Word,
	})
	if err != nil {
		return err
	}
	g.Record = record
	g.result.Record = record

	if !g.steps.LifeDebited {
		if !out.Won {
			lives, err := o.policy.RecordLoss(ctx, g.UserID)
			if err != nil {
				return err
			}
			g.result.Lives = lives
		}
		g.steps.LifeDebited = true
		g.result.Steps = g.steps
	}

	if !g.steps.RecordSaved {
		if improves(record, out) {
			reward := o.policy.CoinsFor(out.Score)
			record, err = o.store.UpdateLevelProgress(ctx, models.LevelProgress{
				ID:            record.ID,
				UserID:        g.UserID,
				LevelNumber:   g.Level,
				Attempts:      out.Attempts,
				ElapsedSecs:   int(out.Elapsed / time.Second),
				Score:         out.Score,
				AttemptReward: reward,
			})
			if err != nil {
				return err
			}
			g.Record = record
			g.result.Record = record
		}
		g.steps.RecordSaved = true
		g.result.Steps = g.steps
	}

	if !g.steps.CoinsCredited {
		if out.Won {
			coins, err := o.policy.RecordWin(ctx, g.UserID, out.Score)
			if err != nil {
				return err
			}
			g.result.Coins = coins
			g.result.Earned = o.policy.CoinsFor(out.Score)
		}
		g.steps.CoinsCredited = true
		g.result.Steps = g.steps
	}

	if !g.steps.StreakRecorded {
		streak, err := o.store.RecordStreak(ctx, g.UserID, out.Won)
		if err != nil {
			return err
		}
		g.result.Streak = streak
		g.steps.StreakRecorded = true
		g.result.Steps = g.steps
	}
	return nil
}

// improves reports whether out should replace the stored record. A completed
// record is only replaced by a better score.
func improves(record models.LevelProgress, out session.Outcome) bool {
	if record.Completed() {
		return out.Score > record.Score
	}
	return out.Score > 0 || record.Attempts == 0
}
