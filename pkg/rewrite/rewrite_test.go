package rewrite_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/color"
	"github.com/cohesion-lang/cohesionc/pkg/rewrite"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
)

func TestRunRewritesNamesInGreenFunction(t *testing.T) {
	mod, err := sourcelang.Parse(`
def f() {
	x = cohesion.Lambda.foo()
	return x
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	greenFuncs, err := color.Run(mod)
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	rewrite.Run(mod, greenFuncs)

	def := mod.Defs[0]
	assign, ok := def.Body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected an Assign, got %T", def.Body[0])
	}
	ref, ok := assign.Target.(*ast.EnvRef)
	if !ok {
		t.Fatalf("expected assignment target to become an EnvRef, got %T", assign.Target)
	}
	if ref.Key != "x" {
		t.Errorf("expected EnvRef key %q, got %q", "x", ref.Key)
	}

	ret, ok := def.Body[1].(*ast.Return)
	if !ok {
		t.Fatalf("expected a Return, got %T", def.Body[1])
	}
	retRef, ok := ret.Value.(*ast.EnvRef)
	if !ok {
		t.Fatalf("expected return value to become an EnvRef, got %T", ret.Value)
	}
	if retRef.Key != "x" {
		t.Errorf("expected EnvRef key %q, got %q", "x", retRef.Key)
	}
}

func TestRunLeavesCalleeUntouched(t *testing.T) {
	mod, err := sourcelang.Parse(`
def f() {
	cohesion.Lambda.foo()
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	greenFuncs, err := color.Run(mod)
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	rewrite.Run(mod, greenFuncs)

	stmt, ok := mod.Defs[0].Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt, got %T", mod.Defs[0].Body[0])
	}
	call, ok := stmt.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected a Call, got %T", stmt.Value)
	}
	attr, ok := call.Callee.(*ast.Attribute)
	if !ok {
		t.Fatalf("expected callee to remain an Attribute chain, got %T", call.Callee)
	}
	if attr.Attr != "foo" {
		t.Errorf("expected leaf attribute %q, got %q", "foo", attr.Attr)
	}
	inner, ok := attr.Value.(*ast.Attribute)
	if !ok {
		t.Fatalf("expected inner callee to remain an Attribute, got %T", attr.Value)
	}
	root, ok := inner.Value.(*ast.Name)
	if !ok {
		t.Fatalf("expected callee root to remain a Name, got %T", inner.Value)
	}
	if root.Id != "cohesion" {
		t.Errorf("expected callee root %q, got %q", "cohesion", root.Id)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	mod, err := sourcelang.Parse(`
def f() {
	x = cohesion.Lambda.foo()
	return x
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	greenFuncs, err := color.Run(mod)
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	rewrite.Run(mod, greenFuncs)

	before := mod.Defs[0].Body[1].(*ast.Return).Value.(*ast.EnvRef)
	rewrite.Run(mod, greenFuncs)
	after := mod.Defs[0].Body[1].(*ast.Return).Value.(*ast.EnvRef)

	if before.Key != after.Key {
		t.Errorf("second Run changed the EnvRef key: %q -> %q", before.Key, after.Key)
	}
}

func TestRunSkipsBlueFunctions(t *testing.T) {
	mod, err := sourcelang.Parse(`
def f() {
	x = 1
	return x
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	greenFuncs, err := color.Run(mod)
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	if greenFuncs["f"] {
		t.Fatalf("f should not be green: it never calls into cohesion")
	}
	rewrite.Run(mod, greenFuncs)

	assign := mod.Defs[0].Body[0].(*ast.Assign)
	if _, ok := assign.Target.(*ast.Name); !ok {
		t.Errorf("blue function's Name targets must not be rewritten, got %T", assign.Target)
	}
}
