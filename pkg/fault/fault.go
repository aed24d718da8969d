package fault

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can react programmatically
// (fix input, give up, retry) without parsing message text.
type Kind string

const (
	// KindPathEscape: a resolved path landed outside the permitted base.
	KindPathEscape Kind = "path_escape"

	// KindNotFound: a referenced file, playbook, inventory, or sample
	// does not exist.
	KindNotFound Kind = "not_found"

	// KindValidation: malformed structured input, a schema violation,
	// or an invalid enumerated choice.
	KindValidation Kind = "validation"

	// KindEncoding: file content is not valid text where text was required.
	KindEncoding Kind = "encoding"

	// KindTimeout: a subprocess exceeded its allotted time.
	KindTimeout Kind = "timeout"

	// KindLaunch: a subprocess could not be started.
	KindLaunch Kind = "launch"

	// KindInternal: anything unexpected.
	KindInternal Kind = "internal"
)

// Error is a kind-tagged error. The kind travels separately from the
// message so transports can surface both. Use the kind constructors
// rather than building Error directly.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func PathEscape(format string, args ...any) *Error {
	return &Error{Kind: KindPathEscape, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Err: fmt.Errorf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func Encoding(format string, args ...any) *Error {
	return &Error{Kind: KindEncoding, Err: fmt.Errorf(format, args...)}
}

func Timeout(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Err: fmt.Errorf(format, args...)}
}

func Launch(format string, args ...any) *Error {
	return &Error{Kind: KindLaunch, Err: fmt.Errorf(format, args...)}
}

func Internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, walking the wrap chain. Errors that
// carry no kind classify as internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Retryable reports whether a failure of the given kind may succeed on
// a plain retry. Only timeouts qualify; every other kind needs a
// changed input or environment first.
func Retryable(kind Kind) bool {
	return kind == KindTimeout
}
