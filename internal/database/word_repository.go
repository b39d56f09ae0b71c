package database

import (
	"context"
	"database/sql"
	"errors"
	"unicode"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/matcher"
	"github.com/example/wordquest/pkg/models"
)

// SeedResult reports what SeedWords did.
type SeedResult struct {
	Inserted int
	Skipped  int
}

// PickRandomWordOfLength returns a uniformly random corpus word with n letters.
func (s *Store) PickRandomWordOfLength(ctx context.Context, n int) (models.Word, error) {
	var w models.Word
	err := s.db.GetContext(ctx, &w, s.db.Rebind(
		"SELECT id, word, length FROM words WHERE length = ? ORDER BY RANDOM() LIMIT 1"), n)
	if errors.Is(err, sql.ErrNoRows) {
		return w, apperr.ErrNoWordOfLength
	}
	if err != nil {
		return w, apperr.Persistence("pick word", err)
	}
	return w, nil
}

func pickWord(ctx context.Context, tx *sqlx.Tx, n int) (models.Word, error) {
	var w models.Word
	err := tx.GetContext(ctx, &w, tx.Rebind(
		"SELECT id, word, length FROM words WHERE length = ? ORDER BY RANDOM() LIMIT 1"), n)
	if errors.Is(err, sql.ErrNoRows) {
		return w, apperr.ErrNoWordOfLength
	}
	return w, err
}

// SeedWords adds words to the corpus. Seeding is idempotent: words that are
// already present (including ones inserted concurrently) are logged and
// skipped, as are entries that are not a single word of letters.
func (s *Store) SeedWords(ctx context.Context, words []string) (SeedResult, error) {
	var res SeedResult
	query := s.db.Rebind("INSERT INTO words (word, length) VALUES (?, ?)")
	for _, raw := range words {
		w := matcher.Normalize(raw)
		if !isWord(w) {
			s.log.Warn().Str("word", raw).Msg("skipping invalid corpus entry")
			res.Skipped++
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, w, matcher.Length(w)); err != nil {
			if isUniqueViolation(err) {
				s.log.Debug().Str("word", w).Msg("word already seeded")
				res.Skipped++
				continue
			}
			return res, apperr.Persistence("seed words", err)
		}
		res.Inserted++
	}
	return res, nil
}

// CountWords returns the corpus size, optionally restricted to one length.
func (s *Store) CountWords(ctx context.Context, length int) (int, error) {
	var n int
	var err error
	if length > 0 {
		err = s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM words WHERE length = ?"), length)
	} else {
		err = s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words")
	}
	if err != nil {
		return 0, apperr.Persistence("count words", err)
	}
	return n, nil
}

func isWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
