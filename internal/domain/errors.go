package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business failures so transports can map them.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindInternal     ErrorKind = "internal"
)

// Error is a business rule violation with a human readable message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewNotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewValidation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Store level sentinels. Repositories return these so services can phrase
// the conflict for the caller.
var (
	// ErrPointNotClaimable means a conditional point status update matched no row.
	ErrPointNotClaimable = errors.New("charging point is not in a claimable status")

	// ErrDuplicateActive means a partial unique index rejected a second open row.
	ErrDuplicateActive = errors.New("an active row already exists")

	// ErrStaleState means a conditional update found the row in another status.
	ErrStaleState = errors.New("row changed status concurrently")
)
