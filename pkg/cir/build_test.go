package cir_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/cir"
	"github.com/cohesion-lang/cohesionc/pkg/color"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
	"github.com/cohesion-lang/cohesionc/pkg/lift"
	"github.com/cohesion-lang/cohesionc/pkg/rewrite"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
)

func frontend(t *testing.T, src string) (*ast.Module, map[string]bool) {
	t.Helper()
	mod, err := sourcelang.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	greenFuncs, err := color.Run(mod)
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	table := gensym.NewTable(mod)
	if err := lift.Run(mod, greenFuncs, table); err != nil {
		t.Fatalf("lift: %v", err)
	}
	rewrite.Run(mod, greenFuncs)
	return mod, greenFuncs
}

func TestBuildSimpleActivityCall(t *testing.T) {
	mod, greenFuncs := frontend(t, `
def activityWorkflow() {
	data = cohesion.activity.getData(timeoutSeconds=120)
	return data
}
`)

	m, err := cir.Build(mod, greenFuncs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(m.Defs))
	}
	def := m.Defs[0]
	if def.Name != "activityWorkflow" {
		t.Fatalf("unexpected def name %q", def.Name)
	}
	if len(def.Body) != 2 {
		t.Fatalf("expected 2 body nodes, got %d", len(def.Body))
	}

	assign, ok := def.Body[0].(*cir.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", def.Body[0])
	}
	if assign.Target != "data" {
		t.Errorf("target = %q, want data", assign.Target)
	}
	if assign.Value.Callee != "cohesion.activity.getData" {
		t.Errorf("callee = %q", assign.Value.Callee)
	}
	if !assign.Value.HasTimeout || assign.Value.TimeoutSec != 120 {
		t.Errorf("timeout not captured: %+v", assign.Value)
	}

	ret, ok := def.Body[1].(*cir.Return)
	if !ok {
		t.Fatalf("expected Return, got %T", def.Body[1])
	}
	if !ret.HasVar || ret.VarName != "data" {
		t.Errorf("unexpected return: %+v", ret)
	}
}

func TestBuildPacksBlueAssignIntoRawBlock(t *testing.T) {
	mod, greenFuncs := frontend(t, `
def f() {
	x = cohesion.activity.a()
	y = x
	return y
}
`)
	// y = x touches no cohesion call and guards no green statement, so
	// it stays blue and should be packed into a RawBlock rather than
	// translated as a CIR Assign.
	m, err := cir.Build(mod, greenFuncs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	body := m.Defs[0].Body
	if len(body) != 3 {
		t.Fatalf("expected 3 body nodes, got %d", len(body))
	}
	if _, ok := body[0].(*cir.Assign); !ok {
		t.Fatalf("expected Assign first, got %T", body[0])
	}
	raw, ok := body[1].(*cir.RawBlock)
	if !ok {
		t.Fatalf("expected RawBlock second, got %T", body[1])
	}
	if len(raw.Stmts) != 1 {
		t.Fatalf("expected 1 raw stmt, got %d", len(raw.Stmts))
	}
	if _, ok := body[2].(*cir.Return); !ok {
		t.Fatalf("expected Return third, got %T", body[2])
	}
}

func TestBuildIfAndTry(t *testing.T) {
	mod, greenFuncs := frontend(t, `
def f() {
	ok = cohesion.activity.check()
	if (ok) {
		try {
			cohesion.activity.doWork()
		} except (WorkError) as e {
			cohesion.activity.cleanup()
		}
	}
	return ok
}
`)
	m, err := cir.Build(mod, greenFuncs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	body := m.Defs[0].Body
	ifNode, ok := body[1].(*cir.If)
	if !ok {
		t.Fatalf("expected If, got %T", body[1])
	}
	if ifNode.TestVar != "ok" {
		t.Errorf("test var = %q", ifNode.TestVar)
	}
	if len(ifNode.Then) != 1 {
		t.Fatalf("expected 1 then node, got %d", len(ifNode.Then))
	}
	tryNode, ok := ifNode.Then[0].(*cir.Try)
	if !ok {
		t.Fatalf("expected Try, got %T", ifNode.Then[0])
	}
	if len(tryNode.Handlers) != 1 || tryNode.Handlers[0].ErrorTypes[0] != "WorkError" {
		t.Fatalf("unexpected handlers: %+v", tryNode.Handlers)
	}
}
