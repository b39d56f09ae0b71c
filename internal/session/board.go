package session

import (
	"sort"

	"github.com/example/wordquest/internal/matcher"
)

// Board is a read-only snapshot for rendering.
type Board struct {
	Rows         [][]matcher.LetterResult
	Current      []rune
	Hints        matcher.Hints
	Revealed     []rune
	WordLength   int
	AttemptsUsed int
	MaxAttempts  int
	State        State
}

// Cursor is the position of the next letter in the current row.
func (b Board) Cursor() int { return len(b.Current) }

// Last returns the most recently submitted row.
func (b Board) Last() []matcher.LetterResult {
	if len(b.Rows) == 0 {
		return nil
	}
	return b.Rows[len(b.Rows)-1]
}

// Board returns a snapshot of the session.
func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardLocked()
}

func (s *Session) boardLocked() Board {
	rows := make([][]matcher.LetterResult, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]matcher.LetterResult(nil), r...)
	}
	revealed := make([]rune, 0, len(s.revealed))
	for l := range s.revealed {
		revealed = append(revealed, l)
	}
	sort.Slice(revealed, func(i, j int) bool { return revealed[i] < revealed[j] })

	return Board{
		Rows:         rows,
		Current:      append([]rune(nil), s.current...),
		Hints:        s.hints.Clone(),
		Revealed:     revealed,
		WordLength:   len(s.target),
		AttemptsUsed: len(s.rows),
		MaxAttempts:  s.maxAttempts,
		State:        s.state,
	}
}
