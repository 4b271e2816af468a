// Package rewrite turns every Name load and store inside a green
// function into an EnvRef: a reference into the single env map that
// flows between states in the compiled workflow and between the
// prologue/epilogue of every extracted helper lambda.
//
// Once a function is green — meaning it contains a call into the
// task module somewhere in its body — its entire body rewrites, not
// just the statements coloring marked green. A blue run inside a
// green function still becomes its own helper lambda, and that
// lambda's prologue/epilogue copy env in and out (see pkg/emit's
// calling convention), so every local variable a blue run touches
// needs to resolve through env just as much as a green call's
// arguments do. That is the reading behind spec.md's invariant 6
// ("in every green function, every Name load and store has been
// replaced by a subscript into env") — it is a property of the whole
// function, not of the individual green/blue statements inside it.
//
// The one exception is a Call's Callee: a call's own name (or dotted
// chain) identifies which function or task to invoke, not a variable
// to read, so it is left untouched exactly as the original
// implementation skips node.func.
package rewrite

import "github.com/cohesion-lang/cohesionc/pkg/ast"

// Run rewrites every green function in m in place. It is idempotent:
// running it again on an already-rewritten tree is a no-op, since it
// only ever touches *ast.Name nodes and produces *ast.EnvRef in their
// place.
func Run(m *ast.Module, greenFuncs map[string]bool) {
	for _, def := range m.Defs {
		if !greenFuncs[def.Name] {
			continue
		}
		for i, s := range def.Body {
			def.Body[i] = rewriteStmt(s)
		}
	}
}

func rewriteStmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Assign:
		n.Target = rewriteExpr(n.Target)
		n.Value = rewriteExpr(n.Value)
		return n
	case *ast.ExprStmt:
		n.Value = rewriteExpr(n.Value)
		return n
	case *ast.If:
		n.Test = rewriteExpr(n.Test)
		rewriteBlock(n.Then)
		rewriteBlock(n.Else)
		return n
	case *ast.While:
		n.Test = rewriteExpr(n.Test)
		rewriteBlock(n.Body)
		return n
	case *ast.Break:
		return n
	case *ast.Return:
		if n.HasValue {
			n.Value = rewriteExpr(n.Value)
		}
		return n
	case *ast.Try:
		rewriteBlock(n.Body)
		for i := range n.Handlers {
			rewriteBlock(n.Handlers[i].Body)
		}
		return n
	default:
		return n
	}
}

func rewriteBlock(stmts []ast.Stmt) {
	for i, s := range stmts {
		stmts[i] = rewriteStmt(s)
	}
}

func rewriteExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Name:
		return ast.NewEnvRef(n.Loc().Line, n.Loc().Col, n.Id)
	case *ast.EnvRef:
		return n
	case *ast.Attribute:
		n.Value = rewriteExpr(n.Value)
		return n
	case *ast.Call:
		// node.func (the callee) is intentionally left untouched.
		for i, a := range n.Args {
			n.Args[i] = rewriteExpr(a)
		}
		for i, kw := range n.Keywords {
			n.Keywords[i].Value = rewriteExpr(kw.Value)
		}
		return n
	case *ast.UnaryOp:
		n.Operand = rewriteExpr(n.Operand)
		return n
	case *ast.BinaryOp:
		n.Left = rewriteExpr(n.Left)
		n.Right = rewriteExpr(n.Right)
		return n
	case *ast.Tuple:
		for i, el := range n.Elements {
			n.Elements[i] = rewriteExpr(el)
		}
		return n
	case *ast.Dict:
		for i, entry := range n.Entries {
			n.Entries[i].Value = rewriteExpr(entry.Value)
		}
		return n
	case *ast.List:
		for i, el := range n.Elements {
			n.Elements[i] = rewriteExpr(el)
		}
		return n
	default:
		return e
	}
}
