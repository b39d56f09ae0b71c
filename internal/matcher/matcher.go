// Package matcher scores a guessed word against a target word.
//
// Scoring is position-first and duplicate-aware: exact matches are marked
// Correct before any Present verdict is handed out, and each target letter can
// back at most one Correct or Present verdict. Words are compared after
// Normalize, so case is ignored while accents and ñ stay significant.
package matcher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/example/wordquest/internal/apperr"
)

// Verdict is the classification of one guessed letter. The zero value means
// the letter has not been seen yet; the order of the constants is the order
// of strength used when aggregating keyboard hints.
type Verdict int

const (
	Unknown Verdict = iota
	Absent
	Present
	Correct
)

func (v Verdict) String() string {
	switch v {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Correct:
		return "correct"
	}
	return "unknown"
}

// LetterResult pairs a guessed letter with its verdict.
type LetterResult struct {
	Letter  rune    `json:"letter"`
	Verdict Verdict `json:"verdict"`
}

var lower = cases.Lower(language.Spanish)

// Normalize composes accents (NFC), lowercases and trims s.
func Normalize(s string) string {
	return lower.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Length returns the number of letters in s after normalization.
func Length(s string) int {
	return len([]rune(Normalize(s)))
}

// Evaluate scores guess against target. Both words must have the same number
// of letters, otherwise apperr.ErrIncompleteGuess is returned.
func Evaluate(target, guess string) ([]LetterResult, error) {
	t := []rune(Normalize(target))
	g := []rune(Normalize(guess))
	if len(t) != len(g) || len(g) == 0 {
		return nil, apperr.ErrIncompleteGuess
	}

	res := make([]LetterResult, len(g))
	// Target letters still available to back a Present verdict.
	remaining := make(map[rune]int, len(t))

	for i := range g {
		res[i].Letter = g[i]
		if g[i] == t[i] {
			res[i].Verdict = Correct
			continue
		}
		remaining[t[i]]++
	}

	for i := range g {
		if res[i].Verdict == Correct {
			continue
		}
		if remaining[g[i]] > 0 {
			res[i].Verdict = Present
			remaining[g[i]]--
		} else {
			res[i].Verdict = Absent
		}
	}
	return res, nil
}

// IsWin reports whether guess equals target after normalization.
func IsWin(target, guess string) bool {
	return Normalize(target) == Normalize(guess)
}

// Hints maps letters to the strongest verdict observed for them.
type Hints map[rune]Verdict

// Merge folds results into h. A letter's hint only ever moves up:
// Unknown → Absent → Present → Correct.
func (h Hints) Merge(results []LetterResult) {
	for _, r := range results {
		if r.Verdict > h[r.Letter] {
			h[r.Letter] = r.Verdict
		}
	}
}

// Clone returns a copy of h that the caller may keep.
func (h Hints) Clone() Hints {
	out := make(Hints, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
