// Package progression decides which levels a player may enter and runs the
// life, coin and tool economy on top of the store.
package progression

import (
	"github.com/example/wordquest/pkg/models"
)

// Status is the displayed state of a level.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCurrent   Status = "current"
	StatusLocked    Status = "locked"
)

const (
	baseWordLength = 4
	maxWordLength  = 8
	levelsPerStep  = 10
)

// LevelStatus is one entry of the level list.
type LevelStatus struct {
	Level       int
	Status      Status
	Score       int
	ElapsedSecs int
}

// WordLengthForLevel returns how many letters the target of level has.
// It grows by one every ten levels, up to eight.
func WordLengthForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return min(baseWordLength+(level-1)/levelsPerStep, maxWordLength)
}

// NextPlayable is one past the highest completed level.
func NextPlayable(rows []models.LevelProgress) int {
	highest := 0
	for _, r := range rows {
		if r.Completed() && r.LevelNumber > highest {
			highest = r.LevelNumber
		}
	}
	return highest + 1
}

// LevelStatuses derives the status of every level from 1 up to the furthest
// of NextPlayable and the highest stored level. Nothing is stored about
// unlocking: a level is completed only by a row with a positive score, and
// only NextPlayable is current, so gaps in old data show up as locked.
func LevelStatuses(rows []models.LevelProgress) []LevelStatus {
	next := NextPlayable(rows)
	last := next
	byLevel := make(map[int]models.LevelProgress, len(rows))
	for _, r := range rows {
		if prev, ok := byLevel[r.LevelNumber]; !ok || r.Score > prev.Score {
			byLevel[r.LevelNumber] = r
		}
		if r.LevelNumber > last {
			last = r.LevelNumber
		}
	}

	out := make([]LevelStatus, 0, last)
	for level := 1; level <= last; level++ {
		st := LevelStatus{Level: level, Status: StatusLocked}
		r, ok := byLevel[level]
		switch {
		case ok && r.Completed():
			st.Status = StatusCompleted
			st.Score = r.Score
			st.ElapsedSecs = r.ElapsedSecs
		case level == next:
			st.Status = StatusCurrent
		}
		out = append(out, st)
	}
	return out
}

// Playable reports whether level may be entered given rows: the current
// level, or any completed level as a replay. A gap below NextPlayable stays
// locked, the same as LevelStatuses shows it.
func Playable(rows []models.LevelProgress, level int) bool {
	if level < 1 {
		return false
	}
	if level == NextPlayable(rows) {
		return true
	}
	for _, r := range rows {
		if r.LevelNumber == level && r.Completed() {
			return true
		}
	}
	return false
}
