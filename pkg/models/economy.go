package models

import "fmt"

// Item is something that can be bought with coins.
type Item string

const (
	ItemLife         Item = "life"
	ItemRevealLetter Item = Item(ToolRevealLetter)
	ItemSkipWord     Item = Item(ToolSkipWord)
)

// ParseItem validates an item name.
func ParseItem(s string) (Item, error) {
	switch Item(s) {
	case ItemLife, ItemRevealLetter, ItemSkipWord:
		return Item(s), nil
	}
	return "", fmt.Errorf("unknown item %q", s)
}

// Tool returns the tool kind an item credits, if any.
func (i Item) Tool() (ToolKind, bool) {
	switch i {
	case ItemRevealLetter:
		return ToolRevealLetter, true
	case ItemSkipWord:
		return ToolSkipWord, true
	}
	return "", false
}

// Wallet is a snapshot of a user's spendable resources.
type Wallet struct {
	Coins int           `json:"coins"`
	Lives int           `json:"lives"`
	Tools ToolInventory `json:"tools"`
}
