package apperr

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeIncompleteGuess Code = "INCOMPLETE_GUESS"
	CodeMissingField    Code = "MISSING_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeSessionFinished Code = "SESSION_FINISHED"
	CodeLivesFull       Code = "LIVES_FULL"
	CodeLevelLocked     Code = "LEVEL_LOCKED"

	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"

	// Conflict
	CodeDuplicateEmail    Code = "DUPLICATE_EMAIL"
	CodeDuplicateUsername Code = "DUPLICATE_USERNAME"
	CodeDuplicateLevel    Code = "DUPLICATE_LEVEL"
	CodeToolBusy          Code = "TOOL_BUSY"

	// Not found
	CodeRecordNotFound  Code = "RECORD_NOT_FOUND"
	CodeWordUnavailable Code = "WORD_UNAVAILABLE"
	CodeNoWordOfLength  Code = "NO_WORD_OF_LENGTH"
	CodeUserNotFound    Code = "USER_NOT_FOUND"

	// Resource exhausted
	CodeNoLivesRemaining  Code = "NO_LIVES_REMAINING"
	CodeToolExhausted     Code = "TOOL_EXHAUSTED"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeNoLettersToReveal Code = "NO_LETTERS_TO_REVEAL"

	CodePersistence Code = "PERSISTENCE_FAILURE"
)

// Kind groups codes by how callers are expected to react.
type Kind int

const (
	KindPersistence Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindResourceExhausted:
		return "resource_exhausted"
	}
	return "persistence"
}

// Kind maps a code to its taxonomy bucket.
func (c Code) Kind() Kind {
	switch c {
	case CodeIncompleteGuess, CodeMissingField, CodeInvalidInput, CodeSessionFinished, CodeLivesFull,
		CodeLevelLocked, CodeInvalidCredentials:
		return KindValidation
	case CodeDuplicateEmail, CodeDuplicateUsername, CodeDuplicateLevel, CodeToolBusy:
		return KindConflict
	case CodeRecordNotFound, CodeWordUnavailable, CodeNoWordOfLength, CodeUserNotFound:
		return KindNotFound
	case CodeNoLivesRemaining, CodeToolExhausted, CodeInsufficientFunds, CodeNoLettersToReveal:
		return KindResourceExhausted
	}
	return KindPersistence
}
