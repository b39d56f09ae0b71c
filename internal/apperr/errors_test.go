package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelKeepsIdentity(t *testing.T) {
	err := fmt.Errorf("update level 3: %w", ErrRecordNotFound)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, CodeRecordNotFound, CodeOf(err))
}

func TestKindOfUnclassifiedIsPersistence(t *testing.T) {
	assert.Equal(t, KindPersistence, KindOf(errors.New("disk on fire")))
}

func TestPersistenceWrapsDriverErrors(t *testing.T) {
	err := Persistence("insert level", sql.ErrConnDone)

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, CodePersistence, CodeOf(err))
	assert.Nil(t, Persistence("noop", nil))
}

func TestPersistenceKeepsClassifiedCause(t *testing.T) {
	err := Persistence("consume tool", ErrToolExhausted)

	assert.ErrorIs(t, err, ErrToolExhausted)
	assert.Equal(t, KindResourceExhausted, KindOf(err))
}

func TestKinds(t *testing.T) {
	cases := map[error]Kind{
		ErrIncompleteGuess:    KindValidation,
		ErrDuplicateEmail:     KindConflict,
		ErrWordUnavailable:    KindNotFound,
		ErrUserNotFound:       KindNotFound,
		ErrLevelLocked:        KindValidation,
		ErrInvalidCredentials: KindValidation,
		ErrNoLivesRemaining:   KindResourceExhausted,
		ErrInsufficientFunds:  KindResourceExhausted,
	}
	for err, want := range cases {
		assert.Equal(t, want, KindOf(err), err.Error())
	}
}
