// Package compiler wires the full pipeline together: parse, color,
// lift, rewrite, CIR build, helper extraction, WIR build, pass
// elimination, and validation, mirroring the stage order ASFAST's
// compiler_tests.py drives end to end.
package compiler

import (
	"log"

	"github.com/cohesion-lang/cohesionc/pkg/cir"
	"github.com/cohesion-lang/cohesionc/pkg/color"
	"github.com/cohesion-lang/cohesionc/pkg/config"
	"github.com/cohesion-lang/cohesionc/pkg/emit"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
	"github.com/cohesion-lang/cohesionc/pkg/lift"
	"github.com/cohesion-lang/cohesionc/pkg/rewrite"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
	"github.com/cohesion-lang/cohesionc/pkg/wir"
)

// Debug gates the per-pass trace logging the original disabled in
// production by commenting out its debug dump calls.
var Debug = false

func debugf(format string, args ...interface{}) {
	if Debug {
		log.Printf(format, args...)
	}
}

// Output is everything one compile run produces, keyed the way it
// should land on disk: one workflow JSON and graph JSON per workflow
// plus a single shared helper module.
type Output struct {
	Workflows    map[string][]byte // <name>.sfn.json
	Graphs       map[string][]byte // <name>.graph.json
	HelperModule []byte            // functions.py
}

// Compile runs source through every pass and renders the emit-ready
// artifacts. cfg.Region/AccountID/UseRouterFunc drive resource-ARN
// construction and the optional router dispatch (spec.md §6).
func Compile(source string, cfg *config.Config) (*Output, error) {
	mod, err := sourcelang.Parse(source)
	if err != nil {
		return nil, err
	}
	debugf("parsed %d top-level def(s)", len(mod.Defs))

	greenFuncs, err := color.Run(mod)
	if err != nil {
		return nil, err
	}
	debugf("colored %d green function(s)", len(greenFuncs))

	table := gensym.NewTable(mod)

	if err := lift.Run(mod, greenFuncs, table); err != nil {
		return nil, err
	}

	rewrite.Run(mod, greenFuncs)

	cirMod, err := cir.Build(mod, greenFuncs)
	if err != nil {
		return nil, err
	}

	helpers := cir.Extract(cirMod, table)
	debugf("extracted %d helper(s)", len(helpers))

	// generate_router_func's own guard (SPEC_FULL §7): no router is
	// synthesized when routing is off, or when there are zero helpers
	// to dispatch to.
	router := ""
	if cfg.UseRouterFunc && len(helpers) > 0 {
		router = table.Sym("router")
	}
	wirCfg := wir.Config{Region: cfg.Region, AccountID: cfg.AccountID, RouterFuncName: router}

	wirMod, err := wir.Build(cirMod, wirCfg)
	if err != nil {
		return nil, err
	}

	if err := wir.Eliminate(wirMod); err != nil {
		return nil, err
	}

	if err := wir.Validate(wirMod); err != nil {
		return nil, err
	}

	out := &Output{
		Workflows: make(map[string][]byte, len(wirMod.Workflows)),
		Graphs:    make(map[string][]byte, len(wirMod.Workflows)),
	}
	for _, wf := range wirMod.Workflows {
		wfJSON, err := emit.Workflow(wf)
		if err != nil {
			return nil, err
		}
		out.Workflows[wf.Name] = wfJSON

		graph := wir.BuildGraph(wf)
		graphJSON, err := emit.Graph(graph)
		if err != nil {
			return nil, err
		}
		out.Graphs[wf.Name] = graphJSON
	}

	module := emit.HelperModule(helpers)
	if router != "" {
		names := make([]string, len(helpers))
		for i, h := range helpers {
			names[i] = h.Name
		}
		if module != "" {
			module += "\n"
		}
		module += emit.RouterHelper(router, names)
	}
	out.HelperModule = []byte(module)
	return out, nil
}
