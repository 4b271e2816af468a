package cir_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/cir"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
)

func TestExtractReplacesRawBlockWithHelperCall(t *testing.T) {
	mod, greenFuncs := frontend(t, `
def f() {
	x = cohesion.activity.a()
	y = x + 1
	z = cohesion.activity.b()
	return z
}
`)
	m, err := cir.Build(mod, greenFuncs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	table := gensym.NewTable(mod)
	helpers := cir.Extract(m, table)
	if len(helpers) != 1 {
		t.Fatalf("expected 1 helper, got %d", len(helpers))
	}
	if helpers[0].Name == "" {
		t.Errorf("helper has no name")
	}

	body := m.Defs[0].Body
	if len(body) != 4 {
		t.Fatalf("expected 4 body nodes after extraction, got %d", len(body))
	}
	call, ok := body[1].(*cir.Call)
	if !ok {
		t.Fatalf("expected extracted Call at index 1, got %T", body[1])
	}
	if call.Callee != helpers[0].Name {
		t.Errorf("call callee %q does not match helper name %q", call.Callee, helpers[0].Name)
	}
	if len(call.Args) != 0 {
		t.Errorf("expected helper call with no args, got %v", call.Args)
	}
}
