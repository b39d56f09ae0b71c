package models

import "time"

// User is a registered player. Coins and Streak are owned by the store and
// mutated only through economy and settlement operations.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Coins        int       `json:"coins" db:"coins"`
	Streak       int       `json:"streak" db:"streak"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser carries the fields needed to register a player.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// Starter is the economy seed applied at registration. GrantedOn is the
// local date the starting lives count as granted for.
type Starter struct {
	Coins        int
	Lives        int
	RevealLetter int
	SkipWord     int
	GrantedOn    string
}
