package models

// LifePool is the per-user life counter. LastGrantOn is the local calendar
// date (YYYY-MM-DD) of the most recent scheduled grant.
type LifePool struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"user_id" db:"user_id"`
	Lives       int    `json:"lives" db:"lives"`
	LastGrantOn string `json:"last_grant_on" db:"last_grant_on"`
}
