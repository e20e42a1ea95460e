package errs

import (
	"errors"
	"strings"
)

// Kind is the category of a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConnection
	KindQuery
	KindData
	KindSystem
)

// String returns the lower-case name of the kind, used as a log field value.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindData:
		return "data"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Kind templates for errors.Is.
//
//	if errors.Is(err, errs.ErrQuery) { ... }
var (
	ErrConnection = &Error{Kind: KindConnection}
	ErrQuery      = &Error{Kind: KindQuery}
	ErrData       = &Error{Kind: KindData}
	ErrSystem     = &Error{Kind: KindSystem}
)

// Error is the main error type of the project.
//
// Fields:
//   - Kind: which category the failure belongs to.
//   - Op: the operation that failed (e.g. "add_order").
//   - Code: machine-friendly code (e.g. "USER_NOT_FOUND"), optional.
//   - Message: human-friendly message, optional. Falls back to Err.
//   - Err: the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Code    string
	Message string
	Err     error
}

// Error makes *Error satisfy the built-in `error` interface.
//
// The output reads "<op>: <message>" so a printed error says both what was
// being attempted and why it failed.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String() + " error")
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is customizes how errors.Is(...) treats *Error.
//
// A target matches when it is an *Error of the same Kind. If the target also
// carries a Code, the codes must be equal too. Op and Message are ignored,
// which is what makes the Err* templates above usable.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// New wraps err into an *Error of the given kind.
// A nil err yields nil so callers can wrap unconditionally.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Data builds a KindData error carrying a fixed message.
func Data(op, message string) error {
	return &Error{Kind: KindData, Op: op, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
