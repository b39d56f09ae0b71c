package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultTick is how often the refill is re-evaluated.
const DefaultTick = time.Minute

// Refiller grants daily lives. It must be safe to call on every tick.
type Refiller interface {
	RefillTick(ctx context.Context) (int64, error)
}

// Scheduler drives periodic jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refiller  Refiller
	tick      time.Duration
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler in loc. A zero tick uses DefaultTick.
func New(refiller Refiller, tick time.Duration, loc *time.Location, log zerolog.Logger) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refiller:  refiller,
		tick:      tick,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start runs the refill once immediately, then on every tick and at each
// local midnight. It does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.scheduler.Every(s.tick).Do(s.refill); err != nil {
		return fmt.Errorf("failed to schedule refill tick: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At("00:00").WaitForSchedule().Do(s.refill); err != nil {
		return fmt.Errorf("failed to schedule midnight refill: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("tick", s.tick).Msg("scheduler started")
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// RunNow evaluates the refill outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (int64, error) {
	return s.refiller.RefillTick(ctx)
}

func (s *Scheduler) refill() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := s.refiller.RefillTick(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refill tick failed")
		return
	}
	if n > 0 {
		s.log.Debug().Int64("pools", n).Msg("refill tick granted lives")
	}
}
