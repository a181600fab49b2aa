// Package xerrors implements the compiler's error taxonomy: a small
// closed set of Kinds that every public API returns.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the reason an operation failed.
type Kind int

const (
	// Memory indicates a host allocation failure.
	Memory Kind = iota + 1
	// System indicates an OS-level failure outside the toolchain run and
	// file I/O (for example, dlclose failing or a loaded module reporting
	// an unexpected version).
	System
	// Argument indicates an invalid argument was passed across the
	// Facade API (nil buffers, wrong-sized buffers, closed handle).
	Argument
	// Software indicates an internal invariant was violated: a missing
	// opcode, an unsupported configuration that reached a stage that
	// assumes validation already happened, or program-capacity overflow.
	// Most Software errors are raised via Panic and recovered once at the
	// top of a command; layout.Check and the emitter's template execution
	// return them as ordinary errors instead.
	Software
	// Syntax indicates malformed DSL source.
	Syntax
	// File indicates a problem reading or writing a file on disk.
	File
	// Jitc indicates the native toolchain (cc) failed to build the
	// emitted source, or the resulting object could not be loaded.
	Jitc
)

func (k Kind) String() string {
	switch k {
	case Memory:
		return "memory"
	case System:
		return "system"
	case Argument:
		return "argument"
	case Software:
		return "software"
	case Syntax:
		return "syntax"
	case File:
		return "file"
	case Jitc:
		return "jitc"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every package in this
// module. It always carries a Kind and, where available, a wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with a stack-trace-capable cause when err is
// non-nil, via github.com/pkg/errors.
func New(kind Kind, op, msg string, err error) *Error {
	var wrapped error
	if err != nil {
		wrapped = errors.WithStack(err)
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: wrapped}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Panic raises a Software-kind invariant violation. Callers never see
// this as a returned error: it is meant to be recovered once at a
// program's top level (see cmd/annc) so a software error is fatal
// without calling os.Exit from inside library code.
func Panic(op, msg string) {
	panic(New(Software, op, msg, nil))
}
