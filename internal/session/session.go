// Package session runs a single guessing round.
//
// A Session holds the grid of submitted guesses, the row being typed, the
// keyboard hints and the letters revealed by tools. It moves from InProgress
// to Won or Lost exactly once and then emits one Outcome on Done.
package session

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/internal/matcher"
	"github.com/example/wordquest/pkg/models"
)

// DefaultMaxAttempts is the number of rows on a board.
const DefaultMaxAttempts = 6

// State is the lifecycle position of a session.
type State int

const (
	InProgress State = iota
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "in_progress"
}

// Terminal reports whether no further moves are accepted.
func (s State) Terminal() bool {
	return s != InProgress
}

// Outcome is the terminal event of a session.
type Outcome struct {
	SessionID uuid.UUID
	Won       bool
	Score     int
	Elapsed   time.Duration
	Attempts  int
}

// Inventory is the tool stock a session draws from. Implementations bind it
// to one user.
type Inventory interface {
	ToolCount(ctx context.Context, kind models.ToolKind) (int, error)
	ConsumeTool(ctx context.Context, kind models.ToolKind) (int, error)
}

// Options configures New.
type Options struct {
	MaxAttempts int
	Clock       clock.Clock
	Inventory   Inventory
	// Pick returns a random index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

// Session is one round against a target word.
type Session struct {
	id          uuid.UUID
	target      []rune
	maxAttempts int
	clock       clock.Clock
	inventory   Inventory
	pick        func(n int) int
	startedAt   time.Time

	mu       sync.Mutex
	rows     [][]matcher.LetterResult
	current  []rune
	hints    matcher.Hints
	revealed map[rune]struct{}
	state    State
	outcome  Outcome

	toolLock atomic.Bool
	done     chan Outcome
}

// New starts a session against target. The clock starts now.
func New(target string, opts Options) (*Session, error) {
	t := []rune(matcher.Normalize(target))
	if len(t) == 0 {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, "empty target word", nil)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Pick == nil {
		opts.Pick = rand.Intn
	}

	return &Session{
		id:          uuid.New(),
		target:      t,
		maxAttempts: opts.MaxAttempts,
		clock:       opts.Clock,
		inventory:   opts.Inventory,
		pick:        opts.Pick,
		startedAt:   opts.Clock.Now(),
		current:     make([]rune, 0, len(t)),
		hints:       matcher.Hints{},
		revealed:    map[rune]struct{}{},
		done:        make(chan Outcome, 1),
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) WordLength() int { return len(s.target) }

func (s *Session) MaxAttempts() int { return s.maxAttempts }

// Target returns the normalized target word.
func (s *Session) Target() string { return string(s.target) }

// Done delivers the terminal Outcome once, then is closed.
func (s *Session) Done() <-chan Outcome { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TypeLetter appends l at the cursor. A full row or a finished session
// ignores the letter. Non-letters are rejected.
func (s *Session) TypeLetter(l rune) error {
	letters := []rune(matcher.Normalize(string(l)))
	if len(letters) != 1 || !unicode.IsLetter(letters[0]) {
		return apperr.Wrap(apperr.CodeInvalidInput, "not a letter", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() || len(s.current) >= len(s.target) {
		return nil
	}
	s.current = append(s.current, letters[0])
	return nil
}

// Backspace removes the letter before the cursor, if any.
func (s *Session) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() || len(s.current) == 0 {
		return
	}
	s.current = s.current[:len(s.current)-1]
}

// Submit scores the typed row. The row must be full.
func (s *Session) Submit() (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return s.boardLocked(), apperr.ErrSessionFinished
	}
	if len(s.current) != len(s.target) {
		return s.boardLocked(), apperr.ErrIncompleteGuess
	}

	guess := string(s.current)
	results, err := matcher.Evaluate(string(s.target), guess)
	if err != nil {
		return s.boardLocked(), err
	}
	s.rows = append(s.rows, results)
	s.hints.Merge(results)
	s.current = s.current[:0]

	attemptIndex := len(s.rows) - 1
	switch {
	case matcher.IsWin(string(s.target), guess):
		s.finishLocked(Won, max(0, 100-20*attemptIndex), s.clock.Now().Sub(s.startedAt))
	case len(s.rows) == s.maxAttempts:
		s.finishLocked(Lost, 0, 0)
	}
	return s.boardLocked(), nil
}

// SubmitWord replaces the typed row with word and submits it.
func (s *Session) SubmitWord(word string) (Board, error) {
	letters := []rune(matcher.Normalize(word))
	for _, l := range letters {
		if !unicode.IsLetter(l) {
			return s.Board(), apperr.Wrap(apperr.CodeInvalidInput, "guess must contain only letters", nil)
		}
	}
	if len(letters) != len(s.target) {
		return s.Board(), apperr.ErrIncompleteGuess
	}

	s.mu.Lock()
	if !s.state.Terminal() {
		s.current = append(s.current[:0], letters...)
	}
	s.mu.Unlock()
	return s.Submit()
}

func (s *Session) finishLocked(state State, score int, elapsed time.Duration) {
	s.state = state
	s.outcome = Outcome{
		SessionID: s.id,
		Won:       state == Won,
		Score:     score,
		Elapsed:   elapsed,
		Attempts:  len(s.rows),
	}
	s.done <- s.outcome
	close(s.done)
}

// Outcome returns the terminal outcome; ok is false while in progress.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.state.Terminal()
}
