package wir_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/cir"
	"github.com/cohesion-lang/cohesionc/pkg/color"
	"github.com/cohesion-lang/cohesionc/pkg/gensym"
	"github.com/cohesion-lang/cohesionc/pkg/lift"
	"github.com/cohesion-lang/cohesionc/pkg/rewrite"
	"github.com/cohesion-lang/cohesionc/pkg/sourcelang"
	"github.com/cohesion-lang/cohesionc/pkg/wir"
)

func buildCIR(t *testing.T, src string) *cir.Module {
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
	m, err := cir.Build(mod, greenFuncs)
	if err != nil {
		t.Fatalf("cir.Build: %v", err)
	}
	cir.Extract(m, table)
	return m
}

func defaultConfig() wir.Config {
	return wir.Config{Region: "us-east-1", AccountID: "000000000000"}
}

func TestBuildSimpleActivityTask(t *testing.T) {
	m := buildCIR(t, `
def activityWorkflow() {
	data = cohesion.activity.getData(timeoutSeconds=120)
	return data
}
`)
	out, err := wir.Build(m, defaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := wir.Eliminate(out); err != nil {
		t.Fatalf("Eliminate: %v", err)
	}
	if err := wir.Validate(out); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(out.Workflows) != 1 {
		t.Fatalf("expected 1 workflow, got %d", len(out.Workflows))
	}
	wf := out.Workflows[0]

	init := wf.ByName(wf.StartState)
	if init == nil {
		t.Fatalf("start state %q not found", wf.StartState)
	}
	next, ok := init.Next()
	if !ok {
		t.Fatalf("init state has no next")
	}
	task, ok := wf.ByName(next).(*wir.TaskState)
	if !ok {
		t.Fatalf("expected TaskState after init, got %T", wf.ByName(next))
	}
	if task.IsLambda {
		t.Errorf("expected an activity task to use Lambda=false")
	}
	if task.Resource != "arn:aws:states:us-east-1:000000000000:activity:getData" {
		t.Errorf("unexpected resource ARN: %s", task.Resource)
	}
	if task.ResultPath != "$.env.data" {
		t.Errorf("result path = %q, want $.env.data", task.ResultPath)
	}
	if !task.HasTimeout || task.TimeoutSec != 120 {
		t.Errorf("timeout not applied: %+v", task)
	}

	retName, ok := task.Next()
	if !ok {
		t.Fatalf("task has no next")
	}
	ret, ok := wf.ByName(retName).(*wir.PassState)
	if !ok {
		t.Fatalf("expected terminal Pass, got %T", wf.ByName(retName))
	}
	if ret.InputPath != "$.env.data" {
		t.Errorf("return input path = %q", ret.InputPath)
	}
	if !ret.End() {
		t.Errorf("terminal return pass should be marked End")
	}
}

func TestBuildIfEliminatesChoiceJoin(t *testing.T) {
	m := buildCIR(t, `
def f() {
	ok = cohesion.activity.check()
	if (ok) {
		cohesion.activity.onTrue()
	} else {
		cohesion.activity.onFalse()
	}
	return ok
}
`)
	out, err := wir.Build(m, defaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := wir.Eliminate(out); err != nil {
		t.Fatalf("Eliminate: %v", err)
	}
	if err := wir.Validate(out); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	wf := out.Workflows[0]
	for _, s := range wf.States {
		if ps, ok := s.(*wir.PassState); ok && ps.Removable {
			t.Fatalf("RemovablePass %q survived elimination", ps.Name())
		}
	}

	var choice *wir.ChoiceState
	for _, s := range wf.States {
		if c, ok := s.(*wir.ChoiceState); ok {
			choice = c
		}
	}
	if choice == nil {
		t.Fatalf("expected a ChoiceState in the workflow")
	}
	if wf.ByName(choice.Default) == nil {
		t.Errorf("choice default %q does not resolve to a real state", choice.Default)
	}
	for _, c := range choice.Choices {
		if wf.ByName(c.Next) == nil {
			t.Errorf("choice rule target %q does not resolve to a real state", c.Next)
		}
	}
}

func TestBuildWhileBreak(t *testing.T) {
	m := buildCIR(t, `
def f() {
	keepGoing = cohesion.activity.check()
	while (true) {
		if (keepGoing) {
			break
		}
		keepGoing = cohesion.activity.check()
	}
	return keepGoing
}
`)
	out, err := wir.Build(m, defaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := wir.Eliminate(out); err != nil {
		t.Fatalf("Eliminate: %v", err)
	}
	if err := wir.Validate(out); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuildTryCatch(t *testing.T) {
	m := buildCIR(t, `
def f() {
	try {
		cohesion.activity.risky()
	} except (WorkError) as e {
		cohesion.activity.cleanup()
	}
	return 1
}
`)
	out, err := wir.Build(m, defaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := wir.Eliminate(out); err != nil {
		t.Fatalf("Eliminate: %v", err)
	}
	if err := wir.Validate(out); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	wf := out.Workflows[0]
	var found bool
	for _, s := range wf.States {
		task, ok := s.(*wir.TaskState)
		if !ok {
			continue
		}
		for _, c := range task.Catch {
			found = true
			if wf.ByName(c.Next) == nil {
				t.Errorf("catch target %q does not resolve", c.Next)
			}
		}
	}
	if !found {
		t.Fatalf("expected at least one Task with a Catch rule")
	}
}
