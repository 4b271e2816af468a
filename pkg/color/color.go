// Package color implements the blue/green coloring analysis: it
// marks which statements and expressions participate in the
// workflow-visible layer (green) versus ordinary helper code (blue).
//
// A Call is green if its callee is rooted at the name "cohesion" (a
// direct task invocation) or targets another function already known
// to be green (a call to a workflow-visible helper). Coloring a Call
// green colors every statement on the path from the enclosing
// FunctionDef down to that call — an If branch, a While body, a Try
// block or handler — so that the lifter and CIR builder can later
// walk only the green skeleton and leave blue runs opaque.
//
// Because a function can be discovered to be green only after seeing
// a green call inside it, and other functions may call that function
// before it was known to be green, the analysis runs to a fixpoint:
// repeat the walk until a full pass makes no further coloring
// changes. spec.md's invariant 8 (coloring is confluent) falls out of
// this loop terminating with the same green set regardless of walk
// order, since green-ness only ever turns on, never off.
//
// Break and return are a deliberate exception to the ancestor-path
// rule above: they are green iff their directly enclosing loop or
// function is green, even when their own statement has no call in it
// (a bare `return x` or a `break` with nothing else in its branch).
// applyBreakReturnRule applies that rule once the fixpoint settles.
package color

import (
	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
)

// Run colors m in place and returns the set of function names found
// to be green, keyed by name for O(1) lookup by later passes.
func Run(m *ast.Module) (map[string]bool, error) {
	greenFuncs := make(map[string]bool)

	for {
		changed := false
		for _, def := range m.Defs {
			w := &walker{greenFuncs: greenFuncs}
			w.visitBlock(def.Body, []ast.Node{def})
			if w.changed {
				changed = true
			}
			if w.sawGreen && !greenFuncs[def.Name] {
				greenFuncs[def.Name] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	applyBreakReturnRule(m)

	if err := validateBreaksAndReturns(m); err != nil {
		return nil, err
	}

	return greenFuncs, nil
}

// applyBreakReturnRule implements spec.md §4.1's explicit exception to
// the ancestor-path rule: break and return are green iff their
// directly enclosing loop or function (respectively) is green, full
// stop, regardless of whether their own value expression happens to
// contain a call. Without this, `return x` for a plain name x, or a
// break with no call anywhere in its own statement, would never be
// colored even inside an otherwise green function or loop.
//
// This runs once, after the fixpoint above has settled every
// FunctionDef's and While's own green flag, since it only adds green
// marks to Break/Return nodes themselves and never to their
// ancestors, so it cannot perturb that fixpoint.
func applyBreakReturnRule(m *ast.Module) {
	for _, def := range m.Defs {
		if def.Colored().Green {
			markBreakReturn(def.Body, false)
		}
	}
}

func markBreakReturn(stmts []ast.Stmt, inGreenLoop bool) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.Return:
			n.Colored().Green = true
		case *ast.Break:
			if inGreenLoop {
				n.Colored().Green = true
			}
		case *ast.If:
			markBreakReturn(n.Then, inGreenLoop)
			markBreakReturn(n.Else, inGreenLoop)
		case *ast.While:
			markBreakReturn(n.Body, n.Colored().Green)
		case *ast.Try:
			markBreakReturn(n.Body, inGreenLoop)
			for _, h := range n.Handlers {
				markBreakReturn(h.Body, inGreenLoop)
			}
		}
	}
}

type walker struct {
	greenFuncs map[string]bool
	changed    bool
	sawGreen   bool
}

func (w *walker) markGreen(ancestors []ast.Node) {
	w.sawGreen = true
	for _, a := range ancestors {
		c := a.Colored()
		if !c.Green {
			c.Green = true
			w.changed = true
		}
	}
}

func (w *walker) visitBlock(stmts []ast.Stmt, ancestors []ast.Node) {
	for _, s := range stmts {
		w.visitStmt(s, ancestors)
	}
}

func (w *walker) visitStmt(s ast.Stmt, ancestors []ast.Node) {
	path := make([]ast.Node, len(ancestors), len(ancestors)+1)
	copy(path, ancestors)
	path = append(path, s)
	switch n := s.(type) {
	case *ast.Assign:
		w.visitExpr(n.Value, path)
	case *ast.ExprStmt:
		w.visitExpr(n.Value, path)
	case *ast.If:
		w.visitExpr(n.Test, path)
		w.visitBlock(n.Then, path)
		w.visitBlock(n.Else, path)
	case *ast.While:
		w.visitExpr(n.Test, path)
		w.visitBlock(n.Body, path)
	case *ast.Break:
	case *ast.Return:
		if n.HasValue {
			w.visitExpr(n.Value, path)
		}
	case *ast.Try:
		w.visitBlock(n.Body, path)
		for _, h := range n.Handlers {
			w.visitBlock(h.Body, path)
		}
	}
}

func (w *walker) visitExpr(e ast.Expr, ancestors []ast.Node) {
	switch n := e.(type) {
	case *ast.Call:
		for _, arg := range n.Args {
			w.visitExpr(arg, ancestors)
		}
		for _, kw := range n.Keywords {
			w.visitExpr(kw.Value, ancestors)
		}
		if isCohesionCall(n.Callee) || isGreenFunctionCall(n.Callee, w.greenFuncs) {
			path := append(ancestors, n)
			w.markGreen(path)
		}
	case *ast.BinaryOp:
		w.visitExpr(n.Left, ancestors)
		w.visitExpr(n.Right, ancestors)
	case *ast.UnaryOp:
		w.visitExpr(n.Operand, ancestors)
	case *ast.Tuple:
		for _, el := range n.Elements {
			w.visitExpr(el, ancestors)
		}
	case *ast.List:
		for _, el := range n.Elements {
			w.visitExpr(el, ancestors)
		}
	case *ast.Dict:
		for _, entry := range n.Entries {
			w.visitExpr(entry.Value, ancestors)
		}
	}
}

// isCohesionCall reports whether the callee expression is a dotted
// chain rooted at the identifier "cohesion", e.g.
// cohesion.Lambda.getData or cohesion.sleep.
func isCohesionCall(callee ast.Expr) bool {
	for {
		switch n := callee.(type) {
		case *ast.Attribute:
			callee = n.Value
		case *ast.Name:
			return n.Id == "cohesion"
		default:
			return false
		}
	}
}

// isGreenFunctionCall reports whether the callee is a bare name
// referring to a function already known to be green.
func isGreenFunctionCall(callee ast.Expr, greenFuncs map[string]bool) bool {
	name, ok := callee.(*ast.Name)
	if !ok {
		return false
	}
	return greenFuncs[name.Id]
}

// validateBreaksAndReturns walks the module once more, now purely for
// well-formedness: every Break must have an enclosing While, and
// every Return must have an enclosing FunctionDef (trivially true at
// the top level of this grammar, since there is no script scope
// outside a def, but the check stays here so a future relaxation of
// the grammar can't silently skip it).
func validateBreaksAndReturns(m *ast.Module) error {
	for _, def := range m.Defs {
		if err := checkBlock(def.Body, true, false); err != nil {
			return err
		}
	}
	return nil
}

func checkBlock(stmts []ast.Stmt, inFunction, inLoop bool) error {
	for _, s := range stmts {
		if err := checkStmt(s, inFunction, inLoop); err != nil {
			return err
		}
	}
	return nil
}

func checkStmt(s ast.Stmt, inFunction, inLoop bool) error {
	switch n := s.(type) {
	case *ast.If:
		if err := checkBlock(n.Then, inFunction, inLoop); err != nil {
			return err
		}
		return checkBlock(n.Else, inFunction, inLoop)
	case *ast.While:
		return checkBlock(n.Body, inFunction, true)
	case *ast.Break:
		if !inLoop {
			return compileerr.NewMalformedExceptionFlow(n.Loc(), "break outside a loop")
		}
	case *ast.Return:
		if !inFunction {
			return compileerr.NewMalformedExceptionFlow(n.Loc(), "return outside a function")
		}
	case *ast.Try:
		if err := checkBlock(n.Body, inFunction, inLoop); err != nil {
			return err
		}
		for _, h := range n.Handlers {
			if err := checkBlock(h.Body, inFunction, inLoop); err != nil {
				return err
			}
		}
	}
	return nil
}
