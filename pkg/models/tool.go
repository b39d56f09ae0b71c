package models

import "fmt"

// ToolKind identifies a consumable aid.
type ToolKind string

const (
	ToolSkipWord     ToolKind = "skip-word"
	ToolRevealLetter ToolKind = "reveal-letter"
)

// ParseToolKind validates a tool name.
func ParseToolKind(s string) (ToolKind, error) {
	switch ToolKind(s) {
	case ToolSkipWord, ToolRevealLetter:
		return ToolKind(s), nil
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Column returns the inventory column holding the count for k.
func (k ToolKind) Column() string {
	if k == ToolSkipWord {
		return "skip_word"
	}
	return "reveal_letter"
}

// ToolInventory holds a user's tool counts.
type ToolInventory struct {
	ID           int64 `json:"id" db:"id"`
	UserID       int64 `json:"user_id" db:"user_id"`
	RevealLetter int   `json:"reveal_letter" db:"reveal_letter"`
	SkipWord     int   `json:"skip_word" db:"skip_word"`
}

// Count returns the units held for kind.
func (t ToolInventory) Count(kind ToolKind) int {
	switch kind {
	case ToolSkipWord:
		return t.SkipWord
	case ToolRevealLetter:
		return t.RevealLetter
	}
	return 0
}
