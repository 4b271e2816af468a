// Package gensym supplies deterministic fresh names for the lifting
// and helper-extraction passes. Determinism here is what makes
// compiling the same input twice byte-identical: a given AST always
// walks in the same order, so the same prefix is always handed out
// the same suffix.
package gensym

import (
	"fmt"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
)

// Table tracks every identifier already in use in a module so that
// Sym never hands out a name that collides with source-level code.
type Table struct {
	used map[string]bool
}

// NewTable builds a Table by walking every Name reference and every
// FunctionDef name in m, mirroring the original collector that seeded
// its used-name set from the same two node kinds.
func NewTable(m *ast.Module) *Table {
	t := &Table{used: make(map[string]bool)}
	for _, def := range m.Defs {
		t.used[def.Name] = true
		for _, p := range def.Params {
			t.used[p.Name] = true
		}
		for _, s := range def.Body {
			t.walkStmt(s)
		}
	}
	return t
}

func (t *Table) walkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		t.walkExpr(n.Target)
		t.walkExpr(n.Value)
	case *ast.ExprStmt:
		t.walkExpr(n.Value)
	case *ast.If:
		t.walkExpr(n.Test)
		for _, st := range n.Then {
			t.walkStmt(st)
		}
		for _, st := range n.Else {
			t.walkStmt(st)
		}
	case *ast.While:
		t.walkExpr(n.Test)
		for _, st := range n.Body {
			t.walkStmt(st)
		}
	case *ast.Break:
	case *ast.Return:
		if n.HasValue {
			t.walkExpr(n.Value)
		}
	case *ast.Try:
		for _, st := range n.Body {
			t.walkStmt(st)
		}
		for _, h := range n.Handlers {
			if h.As != "" {
				t.used[h.As] = true
			}
			for _, st := range h.Body {
				t.walkStmt(st)
			}
		}
	}
}

func (t *Table) walkExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Name:
		t.used[n.Id] = true
	case *ast.EnvRef:
		t.used[n.Key] = true
	case *ast.Attribute:
		t.walkExpr(n.Value)
	case *ast.Call:
		t.walkExpr(n.Callee)
		for _, a := range n.Args {
			t.walkExpr(a)
		}
		for _, k := range n.Keywords {
			t.walkExpr(k.Value)
		}
	case *ast.UnaryOp:
		t.walkExpr(n.Operand)
	case *ast.BinaryOp:
		t.walkExpr(n.Left)
		t.walkExpr(n.Right)
	case *ast.Tuple:
		for _, el := range n.Elements {
			t.walkExpr(el)
		}
	case *ast.Dict:
		for _, entry := range n.Entries {
			t.walkExpr(entry.Value)
		}
	case *ast.List:
		for _, el := range n.Elements {
			t.walkExpr(el)
		}
	}
}

// Sym returns the smallest-numbered "prefix_N" (N starting at 1) not
// already in use, and marks it used.
func (t *Table) Sym(prefix string) string {
	n := 1
	for {
		candidate := fmt.Sprintf("%s_%d", prefix, n)
		if !t.used[candidate] {
			t.used[candidate] = true
			return candidate
		}
		n++
	}
}

// Reserve marks name as used without generating anything, for
// callers that need to pre-claim a name coming from outside the walk
// (e.g. a router function name fixed by config).
func (t *Table) Reserve(name string) {
	t.used[name] = true
}
