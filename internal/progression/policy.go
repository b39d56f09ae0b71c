package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/pkg/models"
)

// Store is the persistence the policy needs.
type Store interface {
	ListLevelProgress(ctx context.Context, userID int64) ([]models.LevelProgress, error)
	GetLives(ctx context.Context, userID int64) (models.LifePool, error)
	AdjustLives(ctx context.Context, userID int64, delta, max int) (int, error)
	AdjustCoins(ctx context.Context, userID int64, delta int) (int, error)
	Purchase(ctx context.Context, userID int64, item models.Item, cost, maxLives int) error
	GrantDailyLives(ctx context.Context, day string, max int) (int64, error)
}

// Prices maps purchasable items to their coin cost.
type Prices map[models.Item]int

// DefaultPrices is used when Config.Prices is nil.
var DefaultPrices = Prices{
	models.ItemLife:         20,
	models.ItemRevealLetter: 10,
	models.ItemSkipWord:     30,
}

// Config tunes the economy.
type Config struct {
	MaxLevel      int
	MaxLives      int
	CoinsPerScore int // score points per coin
	Prices        Prices
	Location      *time.Location
}

// Policy applies progression and economy rules for all users.
type Policy struct {
	store Store
	clock clock.Clock
	cfg   Config
	log   zerolog.Logger
}

// NewPolicy returns a policy over store.
func NewPolicy(store Store, clk clock.Clock, cfg Config, log zerolog.Logger) *Policy {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.CoinsPerScore <= 0 {
		cfg.CoinsPerScore = 10
	}
	if cfg.Prices == nil {
		cfg.Prices = DefaultPrices
	}
	return &Policy{
		store: store,
		clock: clk,
		cfg:   cfg,
		log:   log.With().Str("component", "policy").Logger(),
	}
}

// ListLevelStatuses returns the derived level list for userID.
func (p *Policy) ListLevelStatuses(ctx context.Context, userID int64) ([]LevelStatus, error) {
	rows, err := p.store.ListLevelProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return LevelStatuses(rows), nil
}

// NextPlayable returns the level the user should play next.
func (p *Policy) NextPlayable(ctx context.Context, userID int64) (int, error) {
	rows, err := p.store.ListLevelProgress(ctx, userID)
	if err != nil {
		return 0, err
	}
	return NextPlayable(rows), nil
}

// CanStart checks that userID has a life left and that level is unlocked.
func (p *Policy) CanStart(ctx context.Context, userID int64, level int) error {
	if level < 1 || (p.cfg.MaxLevel > 0 && level > p.cfg.MaxLevel) {
		return apperr.Wrap(apperr.CodeInvalidInput, fmt.Sprintf("level %d does not exist", level), nil)
	}

	pool, err := p.store.GetLives(ctx, userID)
	if err != nil {
		return err
	}
	if pool.Lives <= 0 {
		return apperr.ErrNoLivesRemaining
	}

	rows, err := p.store.ListLevelProgress(ctx, userID)
	if err != nil {
		return err
	}
	if !Playable(rows, level) {
		return apperr.Wrap(apperr.CodeLevelLocked,
			fmt.Sprintf("level %d is locked, next is %d", level, NextPlayable(rows)), nil)
	}
	return nil
}

// Price returns the cost of item.
func (p *Policy) Price(item models.Item) (int, bool) {
	c, ok := p.cfg.Prices[item]
	return c, ok
}

// Purchase buys one unit of item for cost coins. Balances are untouched when
// the user cannot afford it.
func (p *Policy) Purchase(ctx context.Context, userID int64, item models.Item, cost int) error {
	if err := p.store.Purchase(ctx, userID, item, cost, p.cfg.MaxLives); err != nil {
		return err
	}
	p.log.Info().Int64("user_id", userID).Str("item", string(item)).Int("cost", cost).Msg("purchase")
	return nil
}

// Buy purchases item at its listed price.
func (p *Policy) Buy(ctx context.Context, userID int64, item models.Item) error {
	cost, ok := p.Price(item)
	if !ok {
		return apperr.Wrap(apperr.CodeInvalidInput, "item is not for sale", nil)
	}
	return p.Purchase(ctx, userID, item, cost)
}

// CoinsFor converts a score into coins.
func (p *Policy) CoinsFor(score int) int {
	if score <= 0 {
		return 0
	}
	return score / p.cfg.CoinsPerScore
}

// RecordLoss takes one life and returns how many are left.
func (p *Policy) RecordLoss(ctx context.Context, userID int64) (int, error) {
	return p.store.AdjustLives(ctx, userID, -1, 0)
}

// RecordWin credits the coins earned by score and returns the new balance.
func (p *Policy) RecordWin(ctx context.Context, userID int64, score int) (int, error) {
	return p.store.AdjustCoins(ctx, userID, p.CoinsFor(score))
}

// Today is the current local calendar date.
func (p *Policy) Today() string {
	return p.clock.Now().In(p.cfg.Location).Format(time.DateOnly)
}

// RefillTick grants the daily life if the local date has moved past the last
// grant. It only looks at the wall clock, so a tick missed while the process
// was stopped is covered by the next one.
func (p *Policy) RefillTick(ctx context.Context) (int64, error) {
	day := p.Today()
	n, err := p.store.GrantDailyLives(ctx, day, p.cfg.MaxLives)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.log.Info().Str("day", day).Int64("pools", n).Msg("granted daily lives")
	}
	return n, nil
}

// UntilNextRefill is the time left until the next local midnight.
func (p *Policy) UntilNextRefill() time.Duration {
	now := p.clock.Now().In(p.cfg.Location)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, p.cfg.Location)
	return midnight.Sub(now)
}

// Starter returns the economy seed for a user registering now.
func (p *Policy) Starter(coins, lives, reveal, skip int) models.Starter {
	return models.Starter{
		Coins:        coins,
		Lives:        lives,
		RevealLetter: reveal,
		SkipWord:     skip,
		GrantedOn:    p.Today(),
	}
}
