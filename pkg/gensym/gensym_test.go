package gensym_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/gensym"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
)

func TestSymAvoidsCollisionsWithSourceNames(t *testing.T) {
	mod, err := sourcelang.Parse(`
def f() {
	helper_1 = 1
	return helper_1
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table := gensym.NewTable(mod)

	got := table.Sym("helper")
	if got != "helper_2" {
		t.Errorf("Sym(\"helper\") = %q, want helper_2 (helper_1 already used)", got)
	}
}

func TestSymReturnsFreshNameEachCall(t *testing.T) {
	mod, err := sourcelang.Parse(`def f() { return 1 }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table := gensym.NewTable(mod)

	first := table.Sym("tmp")
	second := table.Sym("tmp")
	if first == second {
		t.Errorf("successive Sym calls returned the same name: %q", first)
	}
}

func TestReservePreventsReuse(t *testing.T) {
	mod, err := sourcelang.Parse(`def f() { return 1 }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table := gensym.NewTable(mod)
	table.Reserve("router_1")

	got := table.Sym("router")
	if got == "router_1" {
		t.Errorf("Sym returned a name already claimed via Reserve")
	}
}
