// Package evserror implements the error taxonomy used throughout the
// pipeline core: ArgumentError (bad user configuration), SystemError
// (OS/IO failure), InternalError (an invariant was violated — a bug),
// and InterruptError (a clean, requested shutdown).
//
// Each error carries an ordered stack of context strings, pushed as the
// error climbs back up the call stack, and renders as indented lines
// above the final message, mirroring how the original daemon's error
// type prints.
package evserror

import (
	"fmt"
	"strings"
)

// Kind distinguishes the taxonomy members for callers that need to decide
// whether to log-and-continue or log-and-exit.
type Kind int

const (
	KindArgument Kind = iota
	KindSystem
	KindInternal
)

func (k Kind) header() string {
	switch k {
	case KindArgument:
		return "invalid argument"
	case KindSystem:
		return "system error"
	case KindInternal:
		return "internal error"
	default:
		return "error"
	}
}

// Error is a context-stacking error of a given Kind.
type Error struct {
	kind    Kind
	message string
	context []string
}

func new_(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func NewArgument(format string, args ...interface{}) *Error {
	return new_(KindArgument, fmt.Sprintf(format, args...))
}

func NewSystem(format string, args ...interface{}) *Error {
	return new_(KindSystem, fmt.Sprintf(format, args...))
}

func NewInternal(format string, args ...interface{}) *Error {
	return new_(KindInternal, fmt.Sprintf(format, args...))
}

func FromSystemErr(err error) *Error {
	return new_(KindSystem, err.Error())
}

// WithContext pushes a context line onto the error and returns it, so that
// calls can be chained as the error is returned up the stack:
//
//	return nil, evserror.FromSystemErr(err).WithContext("opening " + path)
func (e *Error) WithContext(context string) *Error {
	e.context = append([]string{context}, e.context...)
	return e
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	lines := append(append([]string{}, e.context...), fmt.Sprintf("%s: %s", e.kind.header(), e.message))
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(strings.Repeat("    ", i))
		b.WriteString(line)
		if i != len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// InterruptError signals a clean, requested shutdown (all input devices
// gone, a termination signal arrived). It carries no message: the reason
// is logged separately by whoever detected it.
type InterruptError struct{}

func NewInterrupt() *InterruptError {
	return &InterruptError{}
}

func (*InterruptError) Error() string {
	return "interrupted"
}
