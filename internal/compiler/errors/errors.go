// Package errors implements the shared error taxonomy used by every
// compiler stage: a stable code, a human-readable (Latin-flavored)
// message, and an optional source span. Parse and semantic errors are
// Go error values returned up through the pipeline; runtime error codes
// are exported as plain string constants because the runtime error type
// itself lives only in the emitted target program (see
// internal/compiler/emitter), never inside the compiler process.
package errors

import "fmt"

// Span is a 1-based line/column location, zero-valued when unknown.
// Equality is not part of any invariant; it exists purely for
// diagnostics.
type Span struct {
	Line int
	Col  int
}

// Code is a stable, public identifier from one of three families:
// Parse ("P...."), Semantic ("E...."), Runtime ("R....").
type Code string

// Parse error codes.
const (
	PMainSubjectoRequired Code = "P0010_MAIN_SUBJECTO_REQUIRED"
	PMainNihilRequired    Code = "P0011_MAIN_NIHIL_REQUIRED"
	PExpectedToken        Code = "P0001_EXPECTED_TOKEN"
	PUnexpectedToken      Code = "P0002_UNEXPECTED_TOKEN"
	PUnsupportedSyntax    Code = "P0020_UNSUPPORTED_SYNTAX"
	PInvalidMove          Code = "P0021_INVALID_MOVE"
	PUnknownLoopHeader    Code = "P0030_UNKNOWN_LOOP_HEADER"
	PLoopPropositioReq    Code = "P0031_LOOP_PROPOSITIO_REQUIRED"
	PNihilNotExpr         Code = "P0040_NIHIL_NOT_EXPR"
	PInternal             Code = "P0099_INTERNAL"
)

// Semantic error codes.
const (
	EBreakOutsideLoop    Code = "E0101_BREAK_OUTSIDE_LOOP"
	EContinueOutsideLoop Code = "E0102_CONTINUE_OUTSIDE_LOOP"
	ELoopNestTooDeep     Code = "E0103_LOOP_NEST_TOO_DEEP"
	ELoopStepNotPositive Code = "E0110_LOOP_STEP_NOT_POSITIVE"
	ELoopQuotaInvalid    Code = "E0111_LOOP_QUOTA_INVALID"
	ENihilNotExpr        Code = "E0202_NIHIL_NOT_EXPR"
	EArgCountMismatch    Code = "ARG_COUNT_MISMATCH"
	ETypeMismatch        Code = "TYPE_MISMATCH"
)

// Runtime error code. Embedded verbatim into every emission's prologue;
// never constructed as a Go error by the compiler itself.
const (
	RVeritatemNonAttigi Code = "R0100_VERITATEM_NON_ATTIGI"
)

// ArcanaError is satisfied by ParseError and SemanticError, the two
// families that actually propagate as Go errors inside the compiler.
type ArcanaError interface {
	error
	ErrCode() Code
	ErrSpan() (Span, bool)
}

func format(code Code, message string, span Span, hasSpan bool) string {
	if hasSpan {
		return fmt.Sprintf("[%s] %s (at %d:%d)", code, message, span.Line, span.Col)
	}
	return fmt.Sprintf("[%s] %s", code, message)
}

// ParseError is raised by the parser, and by the pipeline driver for
// internal failures; the lexer never raises one (it emits MISMATCH
// tokens instead). It is fatal: the first one aborts compilation.
type ParseError struct {
	Code    Code
	Message string
	Span    Span
	HasSpan bool
}

func (e *ParseError) Error() string       { return format(e.Code, e.Message, e.Span, e.HasSpan) }
func (e *ParseError) ErrCode() Code       { return e.Code }
func (e *ParseError) ErrSpan() (Span, bool) { return e.Span, e.HasSpan }

// NewParseError builds a ParseError at a known span.
func NewParseError(code Code, message string, span Span) *ParseError {
	return &ParseError{Code: code, Message: message, Span: span, HasSpan: true}
}

// NewParseErrorNoSpan builds a ParseError with no span attached (used
// by the pipeline driver when wrapping an unexpected failure).
func NewParseErrorNoSpan(code Code, message string) *ParseError {
	return &ParseError{Code: code, Message: message}
}

// SemanticError is raised by the semantic analyzer. It is fatal: the
// first one aborts compilation before emission.
type SemanticError struct {
	Code    Code
	Message string
	Span    Span
	HasSpan bool
}

func (e *SemanticError) Error() string       { return format(e.Code, e.Message, e.Span, e.HasSpan) }
func (e *SemanticError) ErrCode() Code       { return e.Code }
func (e *SemanticError) ErrSpan() (Span, bool) { return e.Span, e.HasSpan }

// NewSemanticError builds a SemanticError at a known span.
func NewSemanticError(code Code, message string, span Span) *SemanticError {
	return &SemanticError{Code: code, Message: message, Span: span, HasSpan: true}
}

// List collects multiple compile errors. The pipeline never needs more
// than one (every stage aborts on first error), but this mirrors the
// teacher's accumulation idiom; nothing outside this package's own
// tests uses it.
type List struct {
	Errors []ArcanaError
}

func NewList() *List {
	return &List{}
}

func (l *List) Add(err ArcanaError) {
	l.Errors = append(l.Errors, err)
}

func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

func (l *List) String() string {
	s := ""
	for _, e := range l.Errors {
		s += e.Error() + "\n"
	}
	return s
}
