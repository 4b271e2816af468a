// Package compileerr defines the fatal error kinds the compiler can
// raise. Every error carries the source location it was detected at,
// where one is known, and a Kind for callers that want to branch on
// the failure category. The CLI prints the error and exits with status
// 1 whatever its Kind.
package compileerr

import (
	"fmt"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
)

// Kind tags the category of compile failure.
type Kind string

const (
	// KindParseFailure is malformed source, surfaced from the parser.
	KindParseFailure Kind = "ParseFailure"
	// KindUnsupportedConstruct is a source construct outside the
	// accepted subset: for loops, multiple-target assignment, an
	// unknown keyword on a Call, an expression in a green context
	// that survived lifting unlifted.
	KindUnsupportedConstruct Kind = "UnsupportedConstruct"
	// KindMalformedExceptionFlow is break outside a loop, return
	// outside a function, or a try with finally/else.
	KindMalformedExceptionFlow Kind = "MalformedExceptionFlow"
	// KindEdgeTargetMissing is a next/choice/catch reference naming
	// no state, found during WIR validation.
	KindEdgeTargetMissing Kind = "EdgeTargetMissing"
	// KindPlaceholderElisionFailure is pass elimination unable to
	// remove a RemovablePass because a Break or choice rule depended
	// on it and no replacement target existed. This kind indicates a
	// compiler bug, not a problem with the input source.
	KindPlaceholderElisionFailure Kind = "PlaceholderElisionFailure"
)

// CompileError is the single error type every compiler pass returns.
// It implements error and carries enough context for the CLI to print
// a useful diagnostic.
type CompileError struct {
	Kind    Kind
	Message string
	Loc     ast.SourceLocation
	HasLoc  bool
}

func (e *CompileError) Error() string {
	if e.HasLoc {
		return fmt.Sprintf("%s: %s (line %d, col %d)", e.Kind, e.Message, e.Loc.Line, e.Loc.Col)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func at(kind Kind, loc ast.SourceLocation, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc, HasLoc: true}
}

func without(kind Kind, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewParseFailure reports malformed source at a token position.
func NewParseFailure(loc ast.SourceLocation, format string, args ...interface{}) *CompileError {
	return at(KindParseFailure, loc, format, args...)
}

// NewUnsupportedConstruct reports a source construct outside the
// accepted subset.
func NewUnsupportedConstruct(loc ast.SourceLocation, format string, args ...interface{}) *CompileError {
	return at(KindUnsupportedConstruct, loc, format, args...)
}

// NewMalformedExceptionFlow reports break outside a loop, return
// outside a function, or finally/else on a try.
func NewMalformedExceptionFlow(loc ast.SourceLocation, format string, args ...interface{}) *CompileError {
	return at(KindMalformedExceptionFlow, loc, format, args...)
}

// NewEdgeTargetMissing reports a next/choice/catch reference to a
// nonexistent state, found during WIR validation. No source location
// is available at this stage — states are identified by name only.
func NewEdgeTargetMissing(format string, args ...interface{}) *CompileError {
	return without(KindEdgeTargetMissing, format, args...)
}

// NewPlaceholderElisionFailure reports a compiler-internal invariant
// failure during pass elimination.
func NewPlaceholderElisionFailure(format string, args ...interface{}) *CompileError {
	return without(KindPlaceholderElisionFailure, format, args...)
}

// AsKind reports whether err is a *CompileError of the given kind.
// CompileError has no Is method, so errors.Is cannot match on Kind.
func AsKind(err error, kind Kind) bool {
	ce, ok := err.(*CompileError)
	return ok && ce.Kind == kind
}
