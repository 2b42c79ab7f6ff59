package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so callers can map it to a transport
// status without parsing messages.
type Kind int

const (
	// KindNotFound means the referenced entity does not exist.
	KindNotFound Kind = iota
	// KindInvalidState means the operation is not permitted given the
	// entity's current status.
	KindInvalidState
	// KindConflict means a concurrency or business conflict distinct from
	// status, such as overlapping dates or a lost optimistic update.
	KindConflict
	// KindInvalidInput means a caller-supplied value fails a domain rule.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is a typed domain error carrying a kind and a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err if it is (or wraps) a domain error.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

func IsNotFound(err error) bool     { return hasKind(err, KindNotFound) }
func IsInvalidState(err error) bool { return hasKind(err, KindInvalidState) }
func IsConflict(err error) bool     { return hasKind(err, KindConflict) }
func IsInvalidInput(err error) bool { return hasKind(err, KindInvalidInput) }

func hasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
