package object

import (
	"fmt"
	"loquora/internal/token"
)

type ErrorKind int

const (
	Custom ErrorKind = iota
	UndefinedVariable
	UndefinedTool
	UndefinedType
	TypeMismatch
	FieldNotFound
	RequiredFieldMissing
	NotAnObject
	NotCallable
	InvalidArguments
	DivisionByZero
	BreakOutsideLoop
	ContinueOutsideLoop
	ReturnOutsideTool
	EmptyPath
)

var kindNames = map[ErrorKind]string{
	Custom:               "error",
	UndefinedVariable:    "undefined variable",
	UndefinedTool:        "undefined tool",
	UndefinedType:        "undefined type",
	TypeMismatch:         "type mismatch",
	FieldNotFound:        "field not found",
	RequiredFieldMissing: "required field missing",
	NotAnObject:          "not an object",
	NotCallable:          "not callable",
	InvalidArguments:     "invalid arguments",
	DivisionByZero:       "division by zero",
	BreakOutsideLoop:     "break outside loop",
	ContinueOutsideLoop:  "continue outside loop",
	ReturnOutsideTool:    "return outside tool",
	EmptyPath:            "empty assignment path",
}

func (k ErrorKind) String() string { return kindNames[k] }

// Sentinels for errors.Is; a RuntimeError matches the sentinel of its kind.
var (
	ErrUndefinedVariable    = &RuntimeError{Kind: UndefinedVariable}
	ErrUndefinedTool        = &RuntimeError{Kind: UndefinedTool}
	ErrUndefinedType        = &RuntimeError{Kind: UndefinedType}
	ErrTypeMismatch         = &RuntimeError{Kind: TypeMismatch}
	ErrFieldNotFound        = &RuntimeError{Kind: FieldNotFound}
	ErrRequiredFieldMissing = &RuntimeError{Kind: RequiredFieldMissing}
	ErrNotAnObject          = &RuntimeError{Kind: NotAnObject}
	ErrNotCallable          = &RuntimeError{Kind: NotCallable}
	ErrInvalidArguments     = &RuntimeError{Kind: InvalidArguments}
	ErrDivisionByZero       = &RuntimeError{Kind: DivisionByZero}
	ErrBreakOutsideLoop     = &RuntimeError{Kind: BreakOutsideLoop}
	ErrContinueOutsideLoop  = &RuntimeError{Kind: ContinueOutsideLoop}
	ErrReturnOutsideTool    = &RuntimeError{Kind: ReturnOutsideTool}
	ErrEmptyPath            = &RuntimeError{Kind: EmptyPath}
	ErrCustom               = &RuntimeError{Kind: Custom}
)

type StackFrame struct {
	Tool string
	Pos  token.Span
}

// RuntimeError is every failure raised while evaluating a program.
type RuntimeError struct {
	Kind     ErrorKind
	Name     string // the variable, tool, type or field involved
	Expected string // TypeMismatch only
	Actual   string // TypeMismatch only
	Message  string
	Cause    error

	Pos        *token.Span  // innermost node being evaluated when raised
	StackTrace []StackFrame // tool calls unwound, innermost first
}

func (re *RuntimeError) Error() string {
	switch re.Kind {
	case Custom:
		return re.Message
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, got %s", re.Expected, re.Actual)
	case BreakOutsideLoop, ContinueOutsideLoop, ReturnOutsideTool, EmptyPath, DivisionByZero:
		return re.Kind.String()
	}
	msg := re.Kind.String()
	if re.Name != "" {
		msg += ": " + re.Name
	}
	if re.Message != "" {
		msg += " (" + re.Message + ")"
	}
	return msg
}

func (re *RuntimeError) Unwrap() error { return re.Cause }

func (re *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Kind == re.Kind && t.Name == "" && t.Message == "" && t.Cause == nil
}

// At records pos if no position has been recorded yet.
func (re *RuntimeError) At(pos token.Span) *RuntimeError {
	if re.Pos == nil {
		re.Pos = &pos
	}
	return re
}

func NewError(kind ErrorKind, name string) *RuntimeError {
	return &RuntimeError{Kind: kind, Name: name}
}

func NewTypeMismatch(expected, actual string) *RuntimeError {
	return &RuntimeError{Kind: TypeMismatch, Expected: expected, Actual: actual}
}

func NewInvalidArguments(format string, a ...any) *RuntimeError {
	return &RuntimeError{Kind: InvalidArguments, Message: fmt.Sprintf(format, a...)}
}

func NewCustomError(format string, a ...any) *RuntimeError {
	return &RuntimeError{Kind: Custom, Message: fmt.Sprintf(format, a...)}
}

// WrapError turns a failure from outside the evaluator (module loading,
// I/O) into a RuntimeError that keeps the cause reachable.
func WrapError(err error) *RuntimeError {
	if re, ok := err.(*RuntimeError); ok {
		return re
	}
	return &RuntimeError{Kind: Custom, Message: err.Error(), Cause: err}
}
