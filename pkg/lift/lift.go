// Package lift normalizes every green call so that CIR build never
// has to reason about nested expressions: arguments become
// variable-only, a call is always a standalone statement (the target
// of an Assign or the whole of an ExprStmt), and tests on If/While
// become a single boolean variable reference. A While whose test
// isn't already the literal `true` is rewritten to `while (true) { ...
// }` with the real test negated into an explicit leading break, so
// every while loop reaching CIR build has exactly one shape to
// handle.
//
// Only green statements are touched. Blue statements pass through
// untouched — they will be packed into opaque raw blocks by pkg/cir —
// but new blue statements (the extracted argument/test temporaries)
// are freely interleaved around the green calls they feed, exactly
// where lift.py's pre_statements list would have put them.
package lift

import (
	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
)

// Run lifts every green function in m in place.
func Run(m *ast.Module, greenFuncs map[string]bool, table *gensym.Table) error {
	l := &lifter{table: table}
	for _, def := range m.Defs {
		if !greenFuncs[def.Name] {
			continue
		}
		body, err := l.liftSequence(def.Body)
		if err != nil {
			return err
		}
		def.Body = body
	}
	return nil
}

type lifter struct {
	table *gensym.Table
}

// liftSequence lifts a list of statements, threading extracted
// pre-statements into the output in source order.
func (l *lifter) liftSequence(stmts []ast.Stmt) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, s := range stmts {
		lifted, err := l.liftStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lifted...)
	}
	return out, nil
}

func (l *lifter) liftStmt(s ast.Stmt) ([]ast.Stmt, error) {
	if !s.Colored().Green {
		return []ast.Stmt{s}, nil
	}

	switch n := s.(type) {
	case *ast.Assign:
		call, ok := n.Value.(*ast.Call)
		if !ok {
			return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "assignment of a green call result must assign the call directly")
		}
		pre, call, err := l.liftCall(call)
		if err != nil {
			return nil, err
		}
		n.Value = call
		return append(pre, n), nil

	case *ast.ExprStmt:
		call, ok := n.Value.(*ast.Call)
		if !ok {
			return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "a green expression statement must be a bare call")
		}
		pre, call, err := l.liftCall(call)
		if err != nil {
			return nil, err
		}
		n.Value = call
		return append(pre, n), nil

	case *ast.If:
		pre, testName, err := l.liftTest(n.Test)
		if err != nil {
			return nil, err
		}
		n.Test = testName
		then, err := l.liftSequence(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := l.liftSequence(n.Else)
		if err != nil {
			return nil, err
		}
		n.Then = then
		n.Else = els
		return append(pre, n), nil

	case *ast.While:
		return l.liftWhile(n)

	case *ast.Break:
		return []ast.Stmt{n}, nil

	case *ast.Return:
		if !n.HasValue {
			return []ast.Stmt{n}, nil
		}
		if name, ok := n.Value.(*ast.Name); ok {
			_ = name
			return []ast.Stmt{n}, nil
		}
		var pre []ast.Stmt
		if call, ok := n.Value.(*ast.Call); ok && call.Colored().Green {
			callPre, lifted, err := l.liftCall(call)
			if err != nil {
				return nil, err
			}
			pre = callPre
			n.Value = lifted
		}
		resultVar := l.table.Sym("resultVar")
		assign := ast.NewNamedAssign(n.Loc().Line, n.Loc().Col, resultVar, n.Value)
		if call, ok := n.Value.(*ast.Call); ok && call.Colored().Green {
			assign.Colored().Green = true
		}
		n.Value = ast.NewName(n.Loc().Line, n.Loc().Col, resultVar)
		return append(pre, assign, n), nil

	case *ast.Try:
		body, err := l.liftSequence(n.Body)
		if err != nil {
			return nil, err
		}
		n.Body = body
		for i := range n.Handlers {
			hbody, err := l.liftSequence(n.Handlers[i].Body)
			if err != nil {
				return nil, err
			}
			n.Handlers[i].Body = hbody
		}
		return []ast.Stmt{n}, nil

	default:
		return []ast.Stmt{s}, nil
	}
}

// liftWhile rewrites a While so that exactly one shape reaches CIR
// build: `while (true) { body }`, where any real test condition has
// already been turned into a leading `if (testVar) { break }` guard.
func (l *lifter) liftWhile(n *ast.While) ([]ast.Stmt, error) {
	lit, isLit := n.Test.(*ast.Literal)
	alreadyTrue := isLit && lit.Kind == ast.LitBool && lit.Bool

	var guard []ast.Stmt
	if !alreadyTrue {
		pre, testExpr, err := l.liftRawTest(n.Test)
		if err != nil {
			return nil, err
		}

		if call, ok := testExpr.(*ast.Call); ok && call.Colored().Green {
			callVar := l.table.Sym("testVar")
			callAssign := ast.NewNamedAssign(n.Loc().Line, n.Loc().Col, callVar, call)
			callAssign.Colored().Green = true
			pre = append(pre, callAssign)
			testExpr = ast.NewName(n.Loc().Line, n.Loc().Col, callVar)
		}

		notVar := l.table.Sym("testVar")
		notAssign := ast.NewNamedAssign(n.Loc().Line, n.Loc().Col, notVar,
			ast.NewUnaryOp(n.Loc().Line, n.Loc().Col, "not", testExpr))

		syntheticBreak := ast.NewBreak(n.Loc().Line, n.Loc().Col)
		syntheticBreak.Colored().Green = true

		breakIf := ast.NewIf(n.Loc().Line, n.Loc().Col, ast.NewName(n.Loc().Line, n.Loc().Col, notVar))
		breakIf.Then = []ast.Stmt{syntheticBreak}
		breakIf.Colored().Green = true
		notAssign.Colored().Green = false

		guard = append(pre, notAssign, breakIf)
		n.Test = ast.NewBoolLiteral(n.Loc().Line, n.Loc().Col, true)
	}

	body, err := l.liftSequence(n.Body)
	if err != nil {
		return nil, err
	}
	n.Body = append(guard, body...)
	return []ast.Stmt{n}, nil
}

// liftTest normalizes an If's test expression into a bare boolean
// Name, extracting a fresh testVar assignment when the test is
// anything other than already a Name.
func (l *lifter) liftTest(test ast.Expr) ([]ast.Stmt, ast.Expr, error) {
	if name, ok := test.(*ast.Name); ok {
		return nil, name, nil
	}
	pre, normalized, err := l.liftRawTest(test)
	if err != nil {
		return nil, nil, err
	}
	testVar := l.table.Sym("testVar")
	assign := ast.NewNamedAssign(test.Loc().Line, test.Loc().Col, testVar, normalized)
	if call, ok := normalized.(*ast.Call); ok && call.Colored().Green {
		assign.Colored().Green = true
	}
	pre = append(pre, assign)
	return pre, ast.NewName(test.Loc().Line, test.Loc().Col, testVar), nil
}

// liftRawTest lifts call arguments inside a test expression without
// forcing the whole expression into a Name yet; used both for If
// tests and for the negated test in a rewritten While.
func (l *lifter) liftRawTest(test ast.Expr) ([]ast.Stmt, ast.Expr, error) {
	if call, ok := test.(*ast.Call); ok && call.Colored().Green {
		pre, lifted, err := l.liftCall(call)
		if err != nil {
			return nil, nil, err
		}
		return pre, lifted, nil
	}
	if hasNestedGreenCall(test) {
		return nil, nil, compileerr.NewUnsupportedConstruct(test.Loc(),
			"a task call nested inside a compound test expression is not supported; assign its result to a variable first")
	}
	return nil, test, nil
}

// hasNestedGreenCall reports whether a green Call appears anywhere
// below test other than as test's own top-level expression —
// liftRawTest above only knows how to lift a bare Call there, so a
// call embedded in e.g. a comparison's operand (`f() == 3`) must be
// rejected rather than silently packed into a blue helper.
func hasNestedGreenCall(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Call:
		return n.Colored().Green
	case *ast.BinaryOp:
		return hasNestedGreenCall(n.Left) || hasNestedGreenCall(n.Right)
	case *ast.UnaryOp:
		return hasNestedGreenCall(n.Operand)
	case *ast.Tuple:
		for _, el := range n.Elements {
			if hasNestedGreenCall(el) {
				return true
			}
		}
	case *ast.List:
		for _, el := range n.Elements {
			if hasNestedGreenCall(el) {
				return true
			}
		}
	case *ast.Dict:
		for _, entry := range n.Entries {
			if hasNestedGreenCall(entry.Value) {
				return true
			}
		}
	}
	return false
}

// liftCall normalizes a call's arguments to be variable-only,
// returning any pre-statements needed to compute the non-trivial ones
// first.
func (l *lifter) liftCall(call *ast.Call) ([]ast.Stmt, *ast.Call, error) {
	var pre []ast.Stmt

	for i, arg := range call.Args {
		if _, ok := arg.(*ast.Name); ok {
			continue
		}
		argVar := l.table.Sym("argVar")
		pre = append(pre, ast.NewNamedAssign(arg.Loc().Line, arg.Loc().Col, argVar, arg))
		call.Args[i] = ast.NewName(arg.Loc().Line, arg.Loc().Col, argVar)
	}

	for i, kw := range call.Keywords {
		if _, ok := kw.Value.(*ast.Name); ok {
			continue
		}
		if isLiteralKeywordValue(kw.Value) {
			// Retry/timeout keyword literals are compiled directly
			// into WIR fields rather than threaded through env, so
			// they are left as literals rather than lifted into a
			// temp variable.
			continue
		}
		argVar := l.table.Sym("argVar")
		pre = append(pre, ast.NewNamedAssign(kw.Value.Loc().Line, kw.Value.Loc().Col, argVar, kw.Value))
		call.Keywords[i].Value = ast.NewName(kw.Value.Loc().Line, kw.Value.Loc().Col, argVar)
	}

	return pre, call, nil
}

func isLiteralKeywordValue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Literal, *ast.Dict, *ast.List:
		return true
	default:
		return false
	}
}
