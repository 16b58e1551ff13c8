package sandsh

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure. Each kind carries a default exit code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindParse
	KindUsage
	KindNotFound
	KindTypeMismatch
	KindConflict
	KindUnknownCommand
)

// Exit codes follow conventional shell semantics.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitUnknownCmd = 127
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindUsage:
		return "usage"
	case KindNotFound:
		return "not found"
	case KindTypeMismatch:
		return "type mismatch"
	case KindConflict:
		return "conflict"
	case KindUnknownCommand:
		return "unknown command"
	default:
		return "unexpected"
	}
}

// ExitCode returns the default exit code for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindParse, KindUsage:
		return ExitUsage
	case KindUnknownCommand:
		return ExitUnknownCmd
	default:
		return ExitFailure
	}
}

// CommandError is a designed failure of a command. Its Message is written to
// stderr verbatim (plus a newline).
type CommandError struct {
	Kind    Kind
	Message string
	// Code overrides the kind's default exit code when non-zero.
	Code int
}

func (e *CommandError) Error() string {
	return e.Message
}

// ExitCode returns the exit code reported for this error.
func (e *CommandError) ExitCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.Kind.ExitCode()
}

func newError(kind Kind, format string, args ...any) *CommandError {
	return &CommandError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func usageError(format string, args ...any) error {
	return newError(KindUsage, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func typeMismatchError(format string, args ...any) error {
	return newError(KindTypeMismatch, format, args...)
}

func conflictError(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// ExitCode maps any error to the exit code the dispatcher reports for it.
// nil maps to ExitOK, errors that are not *CommandError map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.ExitCode()
	}
	return ExitFailure
}

// KindOf reports the kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnexpected
}
