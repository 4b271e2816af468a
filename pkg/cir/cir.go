// Package cir implements the control-flow intermediate representation:
// a tree that sits between the lifted/rewritten source AST and the
// flat workflow IR. Green control-flow survives as its own CIR
// variant; a contiguous run of blue statements is packed into an
// opaque RawBlock leaf awaiting extraction into a helper function
// (see Extract).
//
// This is the Go analog of cast.py's CAST: a tagged sum with one
// variant per construct instead of a class hierarchy, so a type
// switch over Node is exhaustive and a missing case is a compile-time
// (or at least immediate panic-time) signal rather than a silent
// isinstance fallthrough.
package cir

import "github.com/cohesion-lang/cohesionc/pkg/ast"

// Node is the sealed interface implemented by every CIR variant.
type Node interface {
	Loc() ast.SourceLocation
	// LocEnd is the end of this node's source range when it spans
	// more than one location (e.g. a RawBlock); the zero value means
	// "no range, just Loc".
	LocEnd() (ast.SourceLocation, bool)
	cirNode()
}

type base struct {
	loc    ast.SourceLocation
	locEnd ast.SourceLocation
	hasEnd bool
}

func (b base) Loc() ast.SourceLocation { return b.loc }
func (b base) LocEnd() (ast.SourceLocation, bool) {
	return b.locEnd, b.hasEnd
}

func newBase(loc ast.SourceLocation) base { return base{loc: loc} }

func newRangeBase(start, end ast.SourceLocation) base {
	return base{loc: start, locEnd: end, hasEnd: true}
}

// Module is the root CIR node: one FunctionDef per green top-level
// def (a blue def never appears — only green defs reach CIR build,
// see Build).
type Module struct {
	base
	Defs []*FunctionDef
}

// FunctionDef is a workflow function definition.
type FunctionDef struct {
	base
	Name   string
	Params []string
	Body   []Node
}

// RawBlock is a contiguous run of blue source-AST statements awaiting
// helper extraction. Its only operations, per SPEC_FULL's "embedding
// foreign AST fragments" design note, are "print as source" (see
// pkg/emit) and "wrap in a helper function with a given name" (see
// Extract in this package) — nothing else should inspect Stmts.
type RawBlock struct {
	base
	Stmts []ast.Stmt
}

// RetryRule is one element of a Call's retry list.
type RetryRule struct {
	ErrorEquals   []string
	IntervalSec   int
	MaxAttempts   int
	BackoffRate   float64
}

// Call is a remote-task/helper invocation. Callee is the dotted
// source string exactly as written (e.g. "cohesion.Lambda.foo" or a
// bare helper name); Args are variable names only, guaranteed by
// pkg/lift before CIR build ever sees them.
type Call struct {
	base
	Callee        string
	Args          []string
	HasTimeout    bool
	TimeoutSec    int
	HasHeartbeat  bool
	HeartbeatSec  int
	Retry         []RetryRule
}

// Assign is `target = Call(...)`. The right-hand side of every CIR
// Assign is a Call — spec.md invariant (c).
type Assign struct {
	base
	Target string
	Value  *Call
}

// If is `if (testVar) { Then } else { Else }`.
type If struct {
	base
	TestVar string
	Then    []Node
	Else    []Node
}

// WhileLoop is `while (true) { Body }`. By the time CIR build sees a
// While, pkg/lift has already guaranteed the test is the literal
// `true` — see SPEC_FULL §4.6 / REDESIGN FLAG (c). Build rejects any
// other test, so WhileLoop carries no test at all.
type WhileLoop struct {
	base
	Body []Node
}

// Break exits the innermost enclosing WhileLoop.
type Break struct {
	base
}

// Return optionally carries a variable name.
type Return struct {
	base
	VarName string
	HasVar  bool
}

// Handler is one `except (Types...) as bind { Body }` clause.
type Handler struct {
	ErrorTypes []string
	BindName   string
	Body       []Node
}

// Try is `try { Body } except ... except ...`.
type Try struct {
	base
	Body     []Node
	Handlers []Handler
}

func (*Module) cirNode()    {}
func (*FunctionDef) cirNode() {}
func (*RawBlock) cirNode()  {}
func (*Call) cirNode()      {}
func (*Assign) cirNode()    {}
func (*If) cirNode()        {}
func (*WhileLoop) cirNode() {}
func (*Break) cirNode()     {}
func (*Return) cirNode()    {}
func (*Try) cirNode()       {}
