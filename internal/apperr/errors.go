// Package apperr holds the error taxonomy shared by the game core.
package apperr

import (
	"errors"
	"fmt"
)

// Error is a classified error. Two errors are equal under errors.Is when
// their codes match, so wrapped sentinels keep their identity.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error for code that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Persistence marks a storage failure for op.
func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return fmt.Errorf("%s: %w", op, cause)
	}
	return Wrap(CodePersistence, op, cause)
}

// CodeOf returns the code of the first classified error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// KindOf classifies err. Unclassified errors count as persistence failures.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

var (
	ErrIncompleteGuess = New(CodeIncompleteGuess, "guess does not fill the row")
	ErrMissingField    = New(CodeMissingField, "required field is empty")
	ErrInvalidInput    = New(CodeInvalidInput, "invalid input")
	ErrSessionFinished = New(CodeSessionFinished, "session already finished")
	ErrLivesFull       = New(CodeLivesFull, "lives already at maximum")

	ErrDuplicateEmail    = New(CodeDuplicateEmail, "email already registered")
	ErrDuplicateUsername = New(CodeDuplicateUsername, "username already taken")
	ErrDuplicateLevel    = New(CodeDuplicateLevel, "level progress already exists")
	ErrToolBusy          = New(CodeToolBusy, "another tool is in use")

	ErrRecordNotFound     = New(CodeRecordNotFound, "level progress not found")
	ErrWordUnavailable    = New(CodeWordUnavailable, "no word available for level")
	ErrNoWordOfLength     = New(CodeNoWordOfLength, "no word of requested length")
	ErrUserNotFound       = New(CodeUserNotFound, "user not found")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	ErrLevelLocked        = New(CodeLevelLocked, "level is locked")

	ErrNoLivesRemaining  = New(CodeNoLivesRemaining, "no lives remaining")
	ErrToolExhausted     = New(CodeToolExhausted, "no units of tool left")
	ErrInsufficientFunds = New(CodeInsufficientFunds, "not enough coins")
	ErrNoLettersToReveal = New(CodeNoLettersToReveal, "no letters left to reveal")
)
