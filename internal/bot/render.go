package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/wordquest/internal/game"
	"github.com/example/wordquest/internal/matcher"
	"github.com/example/wordquest/internal/progression"
	"github.com/example/wordquest/internal/session"
	"github.com/example/wordquest/pkg/models"
)

func square(v matcher.Verdict) string {
	switch v {
	case matcher.Correct:
		return "🟩"
	case matcher.Present:
		return "🟨"
	case matcher.Absent:
		return "⬜"
	}
	return "▫️"
}

// renderBoard draws submitted rows, the row being typed, empty rows and the
// keyboard hints.
func renderBoard(b session.Board) string {
	var sb strings.Builder
	for _, row := range b.Rows {
		var squares, letters strings.Builder
		for _, r := range row {
			squares.WriteString(square(r.Verdict))
			letters.WriteRune(r.Letter)
		}
		fmt.Fprintf(&sb, "%s  %s\n", squares.String(), strings.ToUpper(letters.String()))
	}
	if !b.State.Terminal() {
		for i := len(b.Rows); i < b.MaxAttempts; i++ {
			sb.WriteString(strings.Repeat(square(matcher.Unknown), b.WordLength))
			if i == len(b.Rows) && len(b.Current) > 0 {
				sb.WriteString("  " + strings.ToUpper(string(b.Current)))
			}
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "\nTries left: %d", b.MaxAttempts-b.AttemptsUsed)
	}
	if len(b.Revealed) > 0 {
		fmt.Fprintf(&sb, "\nRevealed: %s", strings.ToUpper(joinRunes(b.Revealed, " ")))
	}
	if hints := renderHints(b.Hints); hints != "" {
		sb.WriteString("\n" + hints)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderHints lists letters by the best verdict seen so far.
func renderHints(h matcher.Hints) string {
	groups := map[matcher.Verdict][]rune{}
	for l, v := range h {
		groups[v] = append(groups[v], l)
	}
	var parts []string
	for _, v := range []matcher.Verdict{matcher.Correct, matcher.Present, matcher.Absent} {
		letters := groups[v]
		if len(letters) == 0 {
			continue
		}
		sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
		parts = append(parts, square(v)+" "+strings.ToUpper(joinRunes(letters, "")))
	}
	return strings.Join(parts, "   ")
}

func joinRunes(rs []rune, sep string) string {
	s := make([]string, len(rs))
	for i, r := range rs {
		s[i] = string(r)
	}
	return strings.Join(s, sep)
}

func renderSettlement(st game.Settlement) string {
	if st.Outcome.Won {
		msg := fmt.Sprintf("🏆 Solved in %d %s and %s! Score %d, +%d coins (balance %d). Streak: %d.",
			st.Outcome.Attempts, plural(st.Outcome.Attempts, "try", "tries"),
			st.Outcome.Elapsed.Round(time.Second), st.Outcome.Score, st.Earned, st.Coins, st.Streak)
		if st.Record.Completed() {
			msg += fmt.Sprintf(" Best: %d in %s.", st.Record.Score, st.Record.Elapsed())
		}
		return msg
	}
	return fmt.Sprintf("💀 Out of tries. The word was %s. You lost a life (%d left).",
		strings.ToUpper(st.Word), st.Lives)
}

func renderLevels(statuses []progression.LevelStatus, page int) string {
	current := 0
	for i, s := range statuses {
		if s.Status == progression.StatusCurrent {
			current = i
		}
	}
	from := 0
	if page > 0 && len(statuses) > page {
		from = max(0, min(current-page/2, len(statuses)-page))
	}
	to := len(statuses)
	if page > 0 {
		to = min(len(statuses), from+page)
	}

	var sb strings.Builder
	sb.WriteString("🗺 Levels\n")
	for _, s := range statuses[from:to] {
		switch s.Status {
		case progression.StatusCompleted:
			fmt.Fprintf(&sb, "✅ %d - %d pts, %ds\n", s.Level, s.Score, s.ElapsedSecs)
		case progression.StatusCurrent:
			fmt.Fprintf(&sb, "▶️ %d - play now (%d letters)\n", s.Level, progression.WordLengthForLevel(s.Level))
		default:
			fmt.Fprintf(&sb, "🔒 %d\n", s.Level)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderStatus(w models.Wallet, stats models.Statistics, untilRefill time.Duration) string {
	return fmt.Sprintf("🪙 Coins: %d\n❤️ Lives: %d (next in %s)\n💡 Reveal letter: %d\n⏭ Skip word: %d\n\n"+
		"🏁 Levels completed: %d\n⭐ Total score: %d\n⏱ Best time: %ds\n🔥 Streak: %d",
		w.Coins, w.Lives, untilRefill.Truncate(time.Minute), w.Tools.RevealLetter, w.Tools.SkipWord,
		stats.LevelsCompleted, stats.TotalScore, stats.BestTimeSecs, stats.Streak)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
