// Package errors is a drop-in replacement for Golang lib 'errors', extended
// with caller tracking and a severity level so the message engine can carry
// both a human-readable chain and a machine-checkable kind.
package errors // import "github.com/jengyic/bind-utils/common/errors"

import (
	"fmt"
	"runtime"
	"strings"
)

const trim = len("github.com/jengyic/bind-utils/")

// Severity orders errors from least to most important, mirroring the levels
// a caller would otherwise send to a logger.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

type hasInnerError interface {
	// Unwrap returns the underlying error of this one.
	Unwrap() error
}

type hasSeverity interface {
	Severity() Severity
}

// Kind classifies an Error into one of the result categories the message
// engine surfaces to callers (see §7 of the design: unexpected-end,
// format-error, no-space, no-memory, not-found, no-record-for-type, no-more).
type Kind int

const (
	KindNone Kind = iota
	KindUnexpectedEnd
	KindFormatError
	KindNoSpace
	KindNoMemory
	KindNotFound
	KindNoRecordForType
	KindNoMore
)

func (k Kind) String() string {
	switch k {
	case KindUnexpectedEnd:
		return "unexpected-end"
	case KindFormatError:
		return "format-error"
	case KindNoSpace:
		return "no-space"
	case KindNoMemory:
		return "no-memory"
	case KindNotFound:
		return "not-found"
	case KindNoRecordForType:
		return "no-record-for-type"
	case KindNoMore:
		return "no-more"
	default:
		return "none"
	}
}

// Error is an error object with an underlying (wrapped) error, a caller
// label, and a severity.
type Error struct {
	message  []interface{}
	caller   string
	inner    error
	severity Severity
	kind     Kind
}

// Error implements error.Error().
func (err *Error) Error() string {
	builder := strings.Builder{}
	if len(err.caller) > 0 {
		builder.WriteString(err.caller)
		builder.WriteString(": ")
	}
	if err.kind != KindNone {
		builder.WriteByte('[')
		builder.WriteString(err.kind.String())
		builder.WriteString("] ")
	}

	builder.WriteString(concat(err.message...))

	if err.inner != nil {
		builder.WriteString(" > ")
		builder.WriteString(err.inner.Error())
	}

	return builder.String()
}

// Unwrap implements hasInnerError.Unwrap()
func (err *Error) Unwrap() error {
	if err.inner == nil {
		return nil
	}
	return err.inner
}

// Base sets the wrapped underlying error.
func (err *Error) Base(e error) *Error {
	err.inner = e
	return err
}

// WithKind tags this error with one of the engine's result kinds.
func (err *Error) WithKind(k Kind) *Error {
	err.kind = k
	return err
}

// Is reports whether this error (or its chain) carries the given kind.
func (err *Error) Is(k Kind) bool {
	for e := err; e != nil; {
		if e.kind == k {
			return true
		}
		inner, ok := e.inner.(*Error)
		if !ok {
			return false
		}
		e = inner
	}
	return false
}

func (err *Error) atSeverity(s Severity) *Error {
	err.severity = s
	return err
}

// Severity returns the effective severity, taking the inner error into
// account when it is itself severity-aware.
func (err *Error) Severity() Severity {
	if err.inner == nil {
		return err.severity
	}
	if s, ok := err.inner.(hasSeverity); ok {
		if as := s.Severity(); as < err.severity {
			return as
		}
	}
	return err.severity
}

// AtDebug sets the severity to debug.
func (err *Error) AtDebug() *Error {
	return err.atSeverity(SeverityDebug)
}

// AtInfo sets the severity to info.
func (err *Error) AtInfo() *Error {
	return err.atSeverity(SeverityInfo)
}

// AtWarning sets the severity to warning.
func (err *Error) AtWarning() *Error {
	return err.atSeverity(SeverityWarning)
}

// AtError sets the severity to error.
func (err *Error) AtError() *Error {
	return err.atSeverity(SeverityError)
}

// String returns the string representation of this error.
func (err *Error) String() string {
	return err.Error()
}

// New returns a new error object with message formed from given arguments.
// The caller's package path (trimmed of the module prefix, without the
// function name) is captured for diagnostics.
func New(msg ...interface{}) *Error {
	pc, _, _, _ := runtime.Caller(1)
	details := runtime.FuncForPC(pc).Name()
	if len(details) >= trim {
		details = details[trim:]
	}
	if i := strings.Index(details, "."); i > 0 {
		details = details[:i]
	}
	return &Error{
		message:  msg,
		severity: SeverityInfo,
		caller:   details,
	}
}

// Cause returns the root cause of this error.
func Cause(err error) error {
	if err == nil {
		return nil
	}
L:
	for {
		switch inner := err.(type) {
		case hasInnerError:
			if inner.Unwrap() == nil {
				break L
			}
			err = inner.Unwrap()
		default:
			break L
		}
	}
	return err
}

// GetSeverity returns the actual severity of the error, including inner errors.
func GetSeverity(err error) Severity {
	if s, ok := err.(hasSeverity); ok {
		return s.Severity()
	}
	return SeverityInfo
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Is(k)
}

func concat(v ...interface{}) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprint(x))
	}
	return strings.Join(parts, "")
}
