package models

// Word is an entry of the word corpus.
type Word struct {
	ID     int64  `json:"id" db:"id"`
	Text   string `json:"word" db:"word"`
	Length int    `json:"length" db:"length"`
}
