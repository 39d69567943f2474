// Package perror implements the simulator's structured error type (spec
// §7 "Error handling design"): a closed set of error kinds, decorated as
// it unwinds with operation ids and human sim-stack labels, serializable
// as the spec §6 "Error payload" (`{error, id_stack, sim_stack}`).
//
// Grounded on the teacher's internal/errors/errors.go (SentraError):
// same shape (type + message + location + call stack), renamed to this
// domain's closed error-kind set.
package perror

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the closed set of error kinds from spec §7.
type Kind string

const (
	ParseError       Kind = "ParseError"
	TypeMismatch     Kind = "TypeMismatch"
	Overflow         Kind = "Overflow"
	DivByZero        Kind = "DivByZero"
	DomainError      Kind = "DomainError"
	IndexOutOfBounds Kind = "IndexOutOfBounds"
	MemberNotFound   Kind = "MemberNotFound"
	RecursiveType    Kind = "RecursiveType"
	RecursiveTemplate Kind = "RecursiveTemplate"
	ReadOnly         Kind = "ReadOnly"
	WatchdogTimeout  Kind = "WatchdogTimeout"
	InvalidReference Kind = "InvalidReference"
	NotFound         Kind = "NotFound"
	Duplicate        Kind = "Duplicate"
	ManualStop       Kind = "ManualStop"
	Internal         Kind = "Internal"
)

// Trace is a source location, attached when the originating JSON body
// operation carried a `trace` object (spec §6).
type Trace struct {
	File   string
	Line   int
	Column int
}

// PlcError is the simulator's structured error. It implements the error
// interface and accumulates id_stack/sim_stack frames as it unwinds
// through enclosing operations (spec §7 "Propagation").
type PlcError struct {
	Kind     Kind
	Message  string
	Trace    *Trace
	IDStack  []uint64
	SimStack []string
	cause    error
}

// New creates a bare PlcError with no stack frames yet.
func New(kind Kind, message string) *PlcError {
	return &PlcError{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *PlcError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap lifts a foreign error (e.g. encoding/json decode failure) into a
// PlcError of the given kind, preserving the original via Cause().
func Wrap(kind Kind, err error, message string) *PlcError {
	return &PlcError{Kind: kind, Message: message, cause: errors.Wrap(err, message)}
}

// Cause returns the wrapped foreign error, if any (github.com/pkg/errors
// convention — unwraps one level).
func (e *PlcError) Cause() error { return e.cause }

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *PlcError) Unwrap() error { return e.cause }

// WithTrace attaches a source trace.
func (e *PlcError) WithTrace(t Trace) *PlcError {
	e.Trace = &t
	return e
}

// AddFrame decorates the error with an enclosing operation's id and
// human-readable sim-stack label, called by every enclosing context as
// the error unwinds (spec §7 "every operation closure ... decorates the
// error with its sim-label and op-id before re-raising").
func (e *PlcError) AddFrame(opID uint64, label string) *PlcError {
	e.IDStack = append(e.IDStack, opID)
	if label != "" {
		e.SimStack = append(e.SimStack, label)
	}
	return e
}

// Error implements the error interface.
func (e *PlcError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Trace != nil {
		sb.WriteString(fmt.Sprintf(" (at %s:%d:%d)", e.Trace.File, e.Trace.Line, e.Trace.Column))
	}
	if len(e.SimStack) > 0 {
		sb.WriteString("\n  sim stack: ")
		sb.WriteString(strings.Join(e.SimStack, " > "))
	}
	return sb.String()
}

// Payload is the spec §6 "Error payload" wire shape.
type Payload struct {
	Error    string   `json:"error"`
	IDStack  []uint64 `json:"id_stack"`
	SimStack []string `json:"sim_stack"`
}

// ToPayload converts a PlcError (or any error) into the serializable
// error payload.
func ToPayload(err error) Payload {
	if pe, ok := err.(*PlcError); ok {
		return Payload{Error: pe.Error(), IDStack: pe.IDStack, SimStack: pe.SimStack}
	}
	return Payload{Error: err.Error()}
}

// Decorate adds an enclosing operation's frame to err as it unwinds,
// tolerating a foreign error by wrapping it as Internal first (spec §7
// "every operation closure ... decorates the error with its sim-label
// and op-id before re-raising").
func Decorate(err error, opID uint64, label string) error {
	if err == nil {
		return nil
	}
	pe, ok := err.(*PlcError)
	if !ok {
		pe = Wrap(Internal, err, err.Error())
	}
	return pe.AddFrame(opID, label)
}

// Is reports whether err is a *PlcError of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*PlcError)
	return ok && pe.Kind == kind
}
