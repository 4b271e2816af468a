package cir

import (
	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
)

// Helper is a small ordinary-code function produced by Extract from a
// RawBlock. Its body is raw source-AST statements that operate on a
// shared `env` map; pkg/emit supplies the (event, context) prologue
// and {'env': env} epilogue described in spec.md §4.6/§4.8 — Extract
// itself only severs the RawBlock from the CIR and names it.
type Helper struct {
	Name string
	Body []ast.Stmt
	Loc  ast.SourceLocation
}

// Extract walks m and replaces every RawBlock with a Call to a freshly
// named helper, returning the extracted helpers in the order their
// RawBlocks were encountered (the Go analog of cast.py's
// PythonASTLifter, a CASTTransformer visiting PythonAST nodes).
//
// After Extract, m satisfies CIR invariant (a): no RawBlock remains.
func Extract(m *Module, table *gensym.Table) []*Helper {
	var helpers []*Helper
	for _, def := range m.Defs {
		e := &extractor{table: table, enclosing: def.Name}
		def.Body = e.rewriteSequence(def.Body)
		helpers = append(helpers, e.helpers...)
	}
	return helpers
}

type extractor struct {
	table     *gensym.Table
	enclosing string
	helpers   []*Helper
}

func (e *extractor) rewriteSequence(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = e.rewriteNode(n)
	}
	return out
}

func (e *extractor) rewriteNode(n Node) Node {
	switch v := n.(type) {
	case *RawBlock:
		name := e.table.Sym(e.enclosing)
		e.helpers = append(e.helpers, &Helper{Name: name, Body: v.Stmts, Loc: v.Loc()})
		return &Call{base: v.base, Callee: name}
	case *If:
		v.Then = e.rewriteSequence(v.Then)
		v.Else = e.rewriteSequence(v.Else)
		return v
	case *WhileLoop:
		v.Body = e.rewriteSequence(v.Body)
		return v
	case *Try:
		v.Body = e.rewriteSequence(v.Body)
		for i := range v.Handlers {
			v.Handlers[i].Body = e.rewriteSequence(v.Handlers[i].Body)
		}
		return v
	default:
		return n
	}
}
