package models

import "time"

// LevelDraft is a progression record that has not been persisted yet.
// If Word is empty the store picks a corpus word of WordLength letters.
type LevelDraft struct {
	UserID      int64
	LevelNumber int
	Word        string
	WordLength  int
}

// LevelProgress is the persisted outcome of a user's relationship to one level.
// Score 0 means the level was reached but not completed.
type LevelProgress struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	LevelNumber   int       `json:"level_number" db:"level_number"`
	Word          string    `json:"word" db:"word"`
	Attempts      int       `json:"attempts" db:"attempts"`
	ElapsedSecs   int       `json:"elapsed_secs" db:"elapsed_secs"`
	Score         int       `json:"score" db:"score"`
	AttemptReward int       `json:"attempt_reward" db:"attempt_reward"` // coins granted for the recorded attempt
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Completed reports whether the level counts as won.
func (p LevelProgress) Completed() bool {
	return p.Score > 0
}

// Elapsed returns the recorded play time.
func (p LevelProgress) Elapsed() time.Duration {
	return time.Duration(p.ElapsedSecs) * time.Second
}
