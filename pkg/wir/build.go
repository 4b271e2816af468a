package wir

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/cir"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
	"github.com/cohesion-lang/cohesionc/pkg/layout"
)

// Config carries the per-compilation settings the build pass needs
// that aren't visible from the CIR alone: the account/region used to
// build resource ARNs, and the name of the already-allocated router
// helper (empty when routing is disabled or there are no helpers to
// route to — see SPEC_FULL §7 "router function generation skipped
// when zero helpers exist").
type Config struct {
	Region         string
	AccountID      string
	RouterFuncName string
}

// Build translates a CIR module into a WIR module, the Go analog of
// aws/asfast.py's build(). Every CIR FunctionDef becomes one Workflow
// whose first state initializes env from the function's parameters.
func Build(m *cir.Module, cfg Config) (*Module, error) {
	out := &Module{}
	for _, def := range m.Defs {
		wf, err := buildWorkflow(def, cfg)
		if err != nil {
			return nil, err
		}
		out.Workflows = append(out.Workflows, wf)
	}
	return out, nil
}

func buildWorkflow(def *cir.FunctionDef, cfg Config) (*Workflow, error) {
	b := &builder{
		arn:    arnBuilder{region: cfg.Region, account: cfg.AccountID},
		router: cfg.RouterFuncName,
		names:  newNameGen(),
		layout: layout.New(),
	}

	initState := NewPass(b.names.gen("env_init"), def.Loc())
	envParams := make(map[string]interface{}, len(def.Params))
	for _, p := range def.Params {
		envParams[p+".$"] = "$." + p
	}
	initState.HasParams = true
	initState.Parameters = map[string]interface{}{"env": envParams}
	initState.SetLayout(b.layout.Get())

	states := []State{initState}
	if len(def.Body) == 0 {
		initState.SetEnd(true)
	} else {
		body, err := b.transformSeq(def.Body, "", nil)
		if err != nil {
			return nil, err
		}
		initState.SetNext(body[0].Name())
		states = append(states, body...)
	}

	return &Workflow{Name: def.Name, StartState: initState.Name(), States: states}, nil
}

// builder holds the mutable, function-scoped state the translation
// needs to advance across sibling statements: state naming and
// layout position. Control-flow context (the innermost break target,
// the currently-effective catch map) is threaded as plain parameters
// instead, since it nests with Go's call stack rather than needing to
// survive across siblings.
type builder struct {
	arn    arnBuilder
	router string
	names  *nameGen
	layout *layout.State
}

// transformSeq translates a CIR sequence into a flat WIR state list,
// wiring Next between consecutive results and marking the last state
// terminal (a ChoiceState is never last — If always trails a
// RemovablePass — so SetEnd is always meaningful here).
func (b *builder) transformSeq(nodes []cir.Node, breakTo string, catch map[string]string) ([]State, error) {
	if len(nodes) == 0 {
		return nil, compileerr.NewUnsupportedConstruct(ast.SourceLocation{}, "empty block")
	}
	var result []State
	for _, n := range nodes {
		out, err := b.transformNode(n, breakTo, catch)
		if err != nil {
			return nil, err
		}
		if len(result) > 0 {
			result[len(result)-1].SetNext(out[0].Name())
		}
		result = append(result, out...)
	}
	result[len(result)-1].SetEnd(true)
	return result, nil
}

func (b *builder) transformNode(n cir.Node, breakTo string, catch map[string]string) ([]State, error) {
	switch v := n.(type) {
	case *cir.Assign:
		return b.transformCall(v.Value, v.Target, true, catch)
	case *cir.Call:
		return b.transformCall(v, "", false, catch)
	case *cir.If:
		return b.transformIf(v, breakTo, catch)
	case *cir.WhileLoop:
		return b.transformWhile(v, catch)
	case *cir.Return:
		return b.transformReturn(v)
	case *cir.Break:
		return b.transformBreak(v, breakTo)
	case *cir.Try:
		return b.transformTry(v, breakTo, catch)
	default:
		return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "unhandled CIR node in workflow build")
	}
}

// transformCall dispatches a Call on its callee's dotted prefix,
// mirroring aws/asfast.py's transform_cast_call.
func (b *builder) transformCall(call *cir.Call, target string, hasTarget bool, catch map[string]string) ([]State, error) {
	parts := strings.Split(call.Callee, ".")
	if len(parts) > 1 {
		return b.transformResourceCall(call, parts, target, hasTarget, catch)
	}
	return b.transformHelperCall(call)
}

func (b *builder) transformResourceCall(call *cir.Call, parts []string, target string, hasTarget bool, catch map[string]string) ([]State, error) {
	leaf := parts[len(parts)-1]
	switch parts[1] {
	case "sleep":
		var secondsPath string
		if len(call.Args) > 0 {
			secondsPath = "$.env." + call.Args[0]
		}
		s := NewSleep(b.names.gen("sleep"), call.Loc(), secondsPath)
		s.SetLayout(b.layout.Get())
		return []State{s}, nil

	case "Lambda", "activity":
		isLambda := parts[1] == "Lambda"
		var resource string
		if isLambda {
			resource = b.arn.lambdaARN(leaf)
		} else {
			resource = b.arn.activityARN(leaf)
		}
		task := NewTask(b.names.gen(leaf), call.Loc(), isLambda, resource)
		if hasTarget {
			task.ResultPath = "$.env." + target
		} else {
			task.ResultPath = "$.env.discard"
			if len(call.Args) == 1 {
				task.InputPath = "$.env." + call.Args[0]
			} else if len(call.Args) == 0 {
				task.HasParams = true
				task.Parameters = map[string]interface{}{}
			}
		}
		if call.HasTimeout {
			task.HasTimeout = true
			task.TimeoutSec = call.TimeoutSec
		}
		if call.HasHeartbeat {
			task.HasHeartbeat = true
			task.HeartbeatSec = call.HeartbeatSec
		}
		for _, r := range call.Retry {
			task.Retry = append(task.Retry, RetryRule{
				ErrorEquals:     r.ErrorEquals,
				IntervalSeconds: r.IntervalSec,
				MaxAttempts:     r.MaxAttempts,
				BackoffRate:     r.BackoffRate,
			})
		}
		task.Catch = catchRules(catch)
		task.SetLayout(b.layout.Get())
		return []State{task}, nil

	default:
		return nil, compileerr.NewUnsupportedConstruct(call.Loc(), "unknown resource call %q", call.Callee)
	}
}

// transformHelperCall invokes a helper extracted from a blue block
// (or, for the recursive-call edge case, another green function) as
// a Lambda, optionally indirected through the router function. Per
// aws/asfast.py, the result/input path rules that apply to resource
// calls do not apply here: a helper always receives and returns the
// whole env, so the default "$" input/result path is left untouched.
func (b *builder) transformHelperCall(call *cir.Call) ([]State, error) {
	var task *TaskState
	if b.router != "" {
		task = NewTask(b.names.gen(call.Callee), call.Loc(), true, b.arn.lambdaARN(b.router))
		task.HasParams = true
		task.Parameters = map[string]interface{}{"env": "$.env", "func": call.Callee}
	} else {
		task = NewTask(b.names.gen(call.Callee), call.Loc(), true, b.arn.lambdaARN(call.Callee))
	}
	task.SetLayout(b.layout.Get())
	return []State{task}, nil
}

// transformIf builds a ChoiceState plus both arms plus a trailing
// RemovablePass both arms converge on, matching
// aws/asfast.py's transform_cast_if layout handling: the arms share a
// column push and the cursor's row is raised to whichever arm went
// deeper before the join Pass claims the next row.
func (b *builder) transformIf(n *cir.If, breakTo string, catch map[string]string) ([]State, error) {
	choice := NewChoice(b.names.gen("choice"), n.Loc())
	choice.SetLayout(b.layout.Get())

	b.layout.PushColumn()
	thenStates, err := b.transformSeq(n.Then, breakTo, catch)
	if err != nil {
		return nil, err
	}
	thenRow := b.layout.Peek().Row
	if err := b.layout.Pop(); err != nil {
		return nil, err
	}

	var elseStates []State
	if len(n.Else) > 0 {
		b.layout.PushColumn()
		elseStates, err = b.transformSeq(n.Else, breakTo, catch)
		if err != nil {
			return nil, err
		}
		elseRow := b.layout.Peek().Row
		if err := b.layout.Pop(); err != nil {
			return nil, err
		}
		if elseRow > thenRow {
			thenRow = elseRow
		}
	}
	b.layout.UpdateRow(thenRow)

	join := NewRemovablePass(b.names.gen("endif"), n.Loc())
	join.SetLayout(b.layout.Get())

	choice.Choices = []ChoiceRule{{Variable: "$.env." + n.TestVar, BooleanEquals: true, Next: thenStates[0].Name()}}
	thenStates[len(thenStates)-1].SetNext(join.Name())
	if len(elseStates) > 0 {
		choice.Default = elseStates[0].Name()
		elseStates[len(elseStates)-1].SetNext(join.Name())
	} else {
		choice.Default = join.Name()
	}

	states := []State{choice}
	states = append(states, thenStates...)
	states = append(states, elseStates...)
	states = append(states, join)
	return states, nil
}

// transformWhile brackets the loop body between two RemovablePass
// placeholders: loop_start (what a `continue` would target, were it
// supported — it isn't, see SPEC_FULL Non-goals) and loop_end (what
// Break targets). The body's last state loops back to loop_start. The elimination
// pass replaces loop_start's incoming references with the body's
// first state and removes both placeholders.
func (b *builder) transformWhile(n *cir.WhileLoop, catch map[string]string) ([]State, error) {
	start := NewRemovablePass(b.names.gen("loop_start"), n.Loc())
	start.SetLayout(b.layout.Get())
	end := NewRemovablePass(b.names.gen("loop_end"), n.Loc())

	body, err := b.transformSeq(n.Body, end.Name(), catch)
	if err != nil {
		return nil, err
	}
	start.SetNext(body[0].Name())
	body[len(body)-1].SetNext(start.Name())

	end.SetLayout(b.layout.Get())

	states := []State{start}
	states = append(states, body...)
	states = append(states, end)
	return states, nil
}

func (b *builder) transformReturn(n *cir.Return) ([]State, error) {
	p := NewPass(b.names.gen("return"), n.Loc())
	if n.HasVar {
		p.InputPath = "$.env." + n.VarName
	}
	p.SetLayout(b.layout.Get())
	p.SetEnd(true)
	return []State{p}, nil
}

// transformBreak builds a Pass pinned to the enclosing loop's exit —
// the only construct whose successor is fixed at construction instead
// of wired by the sequence it's embedded in, see NewBreak.
func (b *builder) transformBreak(n *cir.Break, breakTo string) ([]State, error) {
	if breakTo == "" {
		return nil, compileerr.NewMalformedExceptionFlow(n.Loc(), "break outside a loop")
	}
	p := NewBreak(b.names.gen("break"), n.Loc(), breakTo)
	p.SetLayout(b.layout.Get())
	return []State{p}, nil
}

// transformTry translates a Try: handler bodies are placed in columns
// to the right of the guarded body, starting one row below it — hence
// the handler column layout is finalized only once the body's row
// depth is known, via MoveDown. The currently-effective catch map for
// the guarded body is this try's own handler map (first handler wins
// on a type listed by more than one handler, see SPEC_FULL §8)
// layered over the enclosing catch map (so the innermost applicable
// try always wins); handler bodies themselves run with the enclosing
// map, since a try never catches its own handlers' exceptions.
func (b *builder) transformTry(n *cir.Try, breakTo string, catch map[string]string) ([]State, error) {
	endTry := NewRemovablePass(b.names.gen("endtry"), n.Loc())

	top := b.layout.Peek()
	var handlerStates [][]State
	for i, h := range n.Handlers {
		b.layout.Push(layout.Position{Row: top.Row + 1, Column: top.Column + 1 + i})
		hs, err := b.transformSeq(h.Body, breakTo, catch)
		if err != nil {
			return nil, err
		}
		hs[len(hs)-1].SetNext(endTry.Name())
		if err := b.layout.Pop(); err != nil {
			return nil, err
		}
		handlerStates = append(handlerStates, hs)
	}

	own := map[string]string{}
	for i := len(n.Handlers) - 1; i >= 0; i-- {
		h := n.Handlers[i]
		for _, t := range h.ErrorTypes {
			own[t] = handlerStates[i][0].Name()
		}
	}
	effective := make(map[string]string, len(catch)+len(own))
	for t, name := range catch {
		effective[t] = name
	}
	for t, name := range own {
		effective[t] = name
	}

	body, err := b.transformSeq(n.Body, breakTo, effective)
	if err != nil {
		return nil, err
	}
	bodyRow := b.layout.Peek().Row
	body[len(body)-1].SetNext(endTry.Name())

	for _, hs := range handlerStates {
		for _, s := range hs {
			if pos, ok := s.Layout(); ok {
				s.SetLayout(pos.MoveDown(bodyRow - top.Row))
			}
		}
	}
	b.layout.UpdateRow(bodyRow)
	endTry.SetLayout(b.layout.Get())

	states := append([]State{}, body...)
	for _, hs := range handlerStates {
		states = append(states, hs...)
	}
	states = append(states, endTry)
	return states, nil
}

// catchRules groups the effective catch map by target state and
// sorts both the group order and each group's ErrorEquals list
// lexically. The map loses the handlers' declaration order, so exact
// source order can't be reconstructed here; sorting instead keeps
// output deterministic across runs on the same input, which is what
// spec.md §5/§8 actually require (byte-identical golden output).
func catchRules(catch map[string]string) []CatchRule {
	if len(catch) == 0 {
		return nil
	}
	byTarget := map[string][]string{}
	for errType, target := range catch {
		byTarget[target] = append(byTarget[target], errType)
	}
	targets := make([]string, 0, len(byTarget))
	for target, types := range byTarget {
		sort.Strings(types)
		targets = append(targets, target)
	}
	sort.Strings(targets)
	rules := make([]CatchRule, 0, len(targets))
	for _, target := range targets {
		rules = append(rules, CatchRule{ErrorEquals: byTarget[target], Next: target})
	}
	return rules
}

// arnBuilder constructs Lambda/activity resource ARNs from a short
// name, passing already-qualified "arn:..." strings through unchanged
// and mapping underscores to dashes otherwise (spec.md §4.6).
type arnBuilder struct {
	region  string
	account string
}

func (a arnBuilder) lambdaARN(name string) string {
	if strings.HasPrefix(name, "arn:") {
		return name
	}
	return "arn:aws:lambda:" + a.region + ":" + a.account + ":function:" + dashed(name)
}

func (a arnBuilder) activityARN(name string) string {
	if strings.HasPrefix(name, "arn:") {
		return name
	}
	return "arn:aws:states:" + a.region + ":" + a.account + ":activity:" + dashed(name)
}

func dashed(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// nameGen allocates unique state names, a namespace distinct from
// pkg/gensym's source-variable names (aws/asfast.py's GenStateName).
type nameGen struct {
	used map[string]bool
}

func newNameGen() *nameGen { return &nameGen{used: map[string]bool{}} }

func (g *nameGen) gen(prefix string) string {
	if !g.used[prefix] {
		g.used[prefix] = true
		return prefix
	}
	for i := 1; ; i++ {
		candidate := prefix + "_" + strconv.Itoa(i)
		if !g.used[candidate] {
			g.used[candidate] = true
			return candidate
		}
	}
}
