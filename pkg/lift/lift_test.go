package lift_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/color"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
	"github.com/cohesion-lang/cohesionc/pkg/lift"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
)

func liftSource(t *testing.T, src string) *ast.Module {
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
	return mod
}

func TestLiftExtractsNonNameCallArgument(t *testing.T) {
	mod := liftSource(t, `
def f() {
	x = cohesion.activity.process(1 + 2)
	return x
}
`)
	body := mod.Defs[0].Body
	if len(body) != 3 {
		t.Fatalf("expected 3 statements (argVar assign, call assign, return), got %d", len(body))
	}
	argAssign, ok := body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected first statement to be an Assign, got %T", body[0])
	}
	callAssign, ok := body[1].(*ast.Assign)
	if !ok {
		t.Fatalf("expected second statement to be an Assign, got %T", body[1])
	}
	call, ok := callAssign.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected call assign's value to be a Call, got %T", callAssign.Value)
	}
	argName, ok := call.Args[0].(*ast.Name)
	if !ok {
		t.Fatalf("expected call argument to be lifted to a Name, got %T", call.Args[0])
	}
	target, ok := argAssign.Target.(*ast.Name)
	if !ok || target.Id != argName.Id {
		t.Errorf("lifted argument variable mismatch: assign target %v, call arg %v", argAssign.Target, argName)
	}
}

func TestLiftRewritesWhileTestToLiteralTrue(t *testing.T) {
	mod := liftSource(t, `
def f() {
	keepGoing = cohesion.activity.check()
	while (keepGoing) {
		cohesion.activity.step()
	}
	return 1
}
`)
	var whileStmt *ast.While
	for _, s := range mod.Defs[0].Body {
		if w, ok := s.(*ast.While); ok {
			whileStmt = w
		}
	}
	if whileStmt == nil {
		t.Fatalf("expected a While statement in the lifted body")
	}
	lit, ok := whileStmt.Test.(*ast.Literal)
	if !ok || lit.Kind != ast.LitBool || !lit.Bool {
		t.Errorf("expected while test to be rewritten to literal true, got %#v", whileStmt.Test)
	}

	guardIf, ok := whileStmt.Body[1].(*ast.If)
	if !ok {
		t.Fatalf("expected the while body's second statement (after the negated-test assign) to be a guard If, got %T", whileStmt.Body[1])
	}
	if _, ok := guardIf.Then[0].(*ast.Break); !ok {
		t.Errorf("expected guard If to break, got %T", guardIf.Then[0])
	}
}

func TestLiftLeavesDiscardedReturnUntouched(t *testing.T) {
	mod := liftSource(t, `
def f() {
	return
}
`)
	ret, ok := mod.Defs[0].Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", mod.Defs[0].Body[0])
	}
	if ret.HasValue {
		t.Errorf("bare return should have HasValue=false")
	}
}
