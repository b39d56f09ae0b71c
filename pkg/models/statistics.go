package models

// Statistics summarizes a user's progression.
type Statistics struct {
	UserID          int64 `json:"user_id" db:"user_id"`
	LevelsCompleted int   `json:"levels_completed" db:"levels_completed"`
	TotalScore      int   `json:"total_score" db:"total_score"`
	BestTimeSecs    int   `json:"best_time_secs" db:"best_time_secs"`
	Streak          int   `json:"streak" db:"streak"`
}
