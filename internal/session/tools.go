package session

import (
	"context"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// UseRevealLetter reveals one target letter that has not been typed in any
// submitted guess and is not already revealed, then debits one unit.
func (s *Session) UseRevealLetter(ctx context.Context) (rune, error) {
	release, err := s.acquireTool()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := s.checkStock(ctx, models.ToolRevealLetter); err != nil {
		return 0, err
	}

	s.mu.Lock()
	eligible := s.unrevealedLocked(true)
	s.mu.Unlock()
	if len(eligible) == 0 {
		return 0, apperr.ErrNoLettersToReveal
	}
	letter := eligible[s.pick(len(eligible))]

	if _, err := s.inventory.ConsumeTool(ctx, models.ToolRevealLetter); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.revealed[letter] = struct{}{}
	s.mu.Unlock()
	return letter, nil
}

// UseSkipWord reveals every letter of the target and debits one unit. When
// nothing is left to reveal the call changes nothing and debits nothing.
func (s *Session) UseSkipWord(ctx context.Context) (string, error) {
	release, err := s.acquireTool()
	if err != nil {
		return "", err
	}
	defer release()

	if err := s.checkStock(ctx, models.ToolSkipWord); err != nil {
		return "", err
	}

	s.mu.Lock()
	pending := s.unrevealedLocked(false)
	s.mu.Unlock()
	if len(pending) == 0 {
		return s.Target(), nil
	}

	if _, err := s.inventory.ConsumeTool(ctx, models.ToolSkipWord); err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, l := range s.target {
		s.revealed[l] = struct{}{}
	}
	s.mu.Unlock()
	return s.Target(), nil
}

// UseTool dispatches to the tool named by kind.
func (s *Session) UseTool(ctx context.Context, kind models.ToolKind) (string, error) {
	switch kind {
	case models.ToolRevealLetter:
		l, err := s.UseRevealLetter(ctx)
		if err != nil {
			return "", err
		}
		return string(l), nil
	case models.ToolSkipWord:
		return s.UseSkipWord(ctx)
	}
	return "", apperr.Wrap(apperr.CodeInvalidInput, "unknown tool "+string(kind), nil)
}

// acquireTool takes the reentrancy guard. A second tool call while one is
// waiting on the store fails with ErrToolBusy.
func (s *Session) acquireTool() (func(), error) {
	if s.State().Terminal() {
		return nil, apperr.ErrSessionFinished
	}
	if s.inventory == nil {
		return nil, apperr.ErrToolExhausted
	}
	if !s.toolLock.CompareAndSwap(false, true) {
		return nil, apperr.ErrToolBusy
	}
	return func() { s.toolLock.Store(false) }, nil
}

func (s *Session) checkStock(ctx context.Context, kind models.ToolKind) error {
	n, err := s.inventory.ToolCount(ctx, kind)
	if err != nil {
		return err
	}
	if n <= 0 {
		return apperr.ErrToolExhausted
	}
	return nil
}

// unrevealedLocked lists distinct target letters not yet revealed, in target
// order. With skipTyped, letters typed in submitted guesses are left out too.
func (s *Session) unrevealedLocked(skipTyped bool) []rune {
	typed := map[rune]bool{}
	if skipTyped {
		for _, row := range s.rows {
			for _, r := range row {
				typed[r.Letter] = true
			}
		}
	}

	seen := map[rune]bool{}
	var out []rune
	for _, l := range s.target {
		if seen[l] || typed[l] {
			continue
		}
		seen[l] = true
		if _, ok := s.revealed[l]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}
