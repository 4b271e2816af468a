// Package wir implements the workflow intermediate representation: a
// flat, per-workflow list of named states connected by string
// references (never pointers — see SPEC_FULL §9 "cycles and
// back-edges"). This is the Go analog of ASFAST (aws/asfast.py):
// Task, Lambda, Sleep, Choice, Pass, Break and RemovablePass are all
// modeled here by four concrete types behind a sealed State interface:
// TaskState (Task and Lambda), SleepState, ChoiceState and PassState
// (Pass, Break and RemovablePass).
package wir

import (
	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/layout"
)

// StateKind is the kind a state reports through Kind(). Lambda
// shares Task's kind (it is a Task specialization, spec.md §3); Break
// and RemovablePass share Pass's kind. pkg/emit renders a Lambda
// TaskState's JSON "Type" as "Lambda" rather than its Kind.
type StateKind string

const (
	KindTask   StateKind = "Task"
	KindChoice StateKind = "Choice"
	KindPass   StateKind = "Pass"
	KindWait   StateKind = "Wait"
)

// Position is the (row, column) layout cell a state occupies in the
// visualization graph. It carries no execution semantics. It is the
// same type pkg/layout tracks while the builder places states.
type Position = layout.Position

// RetryRule is one Step-Functions-style retry rule.
type RetryRule struct {
	ErrorEquals     []string
	IntervalSeconds int
	MaxAttempts     int
	BackoffRate     float64
}

// CatchRule routes a named error to a successor state.
type CatchRule struct {
	ErrorEquals []string
	Next        string
}

// State is the sealed interface every WIR state variant implements.
type State interface {
	Name() string
	Kind() StateKind
	Comment() string
	Loc() ast.SourceLocation
	LocEnd() (ast.SourceLocation, bool)
	Layout() (Position, bool)
	SetLayout(Position)
	// Next returns this state's forward successor, if one is set.
	// A Choice state always returns ("", false) — its flow continues
	// through Choices/Default instead.
	Next() (string, bool)
	// SetNext retargets the forward successor. A Break ignores this:
	// its target is pinned at construction (spec.md §4.6).
	SetNext(name string)
	// End reports whether this state terminates the workflow.
	End() bool
	// SetEnd marks this state terminal. A Break ignores this.
	SetEnd(end bool)
	wirNode()
}

// base is embedded by every state variant to supply the shared
// name/location/layout/comment bookkeeping.
type base struct {
	name    string
	comment string
	loc     ast.SourceLocation
	locEnd  ast.SourceLocation
	hasEnd  bool
	layout  Position
	hasLay  bool
}

func (b *base) Name() string    { return b.name }
func (b *base) Comment() string { return b.comment }
func (b *base) Loc() ast.SourceLocation { return b.loc }
func (b *base) LocEnd() (ast.SourceLocation, bool) { return b.locEnd, b.hasEnd }
func (b *base) Layout() (Position, bool)           { return b.layout, b.hasLay }
func (b *base) SetLayout(p Position)               { b.layout = p; b.hasLay = true }

func newBase(name string, loc ast.SourceLocation) base {
	return base{name: name, loc: loc}
}

// flow is embedded by every forward-flowing (non-Choice) state to
// supply Next/End, with a `fixed` escape hatch for Break.
type flow struct {
	next    string
	hasNext bool
	end     bool
	fixed   bool
}

func (f *flow) Next() (string, bool) { return f.next, f.hasNext }
func (f *flow) SetNext(name string) {
	if f.fixed {
		return
	}
	f.next = name
	f.hasNext = true
	f.end = false
}
func (f *flow) End() bool { return f.end }
func (f *flow) SetEnd(end bool) {
	if f.fixed {
		return
	}
	f.end = end
	if end {
		f.next = ""
		f.hasNext = false
	}
}

// TaskState is a Task or Lambda state: invokes a remote resource and
// feeds its result back into env.
type TaskState struct {
	base
	flow
	IsLambda     bool
	Resource     string
	InputPath    string
	Parameters   map[string]interface{}
	HasParams    bool
	ResultPath   string
	OutputPath   string
	HasTimeout   bool
	TimeoutSec   int
	HasHeartbeat bool
	HeartbeatSec int
	Retry        []RetryRule
	Catch        []CatchRule
}

func (s *TaskState) Kind() StateKind { return KindTask }
func (*TaskState) wirNode()          {}

// SleepState is a Wait state: `cohesion.sleep(d)`.
type SleepState struct {
	base
	flow
	SecondsPath string
}

func (s *SleepState) Kind() StateKind { return KindWait }
func (*SleepState) wirNode()          {}

// ChoiceRule is one branch of a ChoiceState.
type ChoiceRule struct {
	Variable      string
	BooleanEquals bool
	Next          string
}

// ChoiceState is the translation of an If: exactly one boolean test
// plus a default.
type ChoiceState struct {
	base
	Choices []ChoiceRule
	Default string
}

func (s *ChoiceState) Kind() StateKind       { return KindChoice }
func (s *ChoiceState) Next() (string, bool)  { return "", false }
func (s *ChoiceState) SetNext(string)        {}
func (s *ChoiceState) End() bool             { return false }
func (s *ChoiceState) SetEnd(bool)           {}
func (*ChoiceState) wirNode()                {}

// PassState covers plain Pass, RemovablePass, and Break (a Pass
// specialization whose successor is pinned — spec.md §4.6).
type PassState struct {
	base
	flow
	InputPath  string
	Parameters map[string]interface{}
	HasParams  bool
	OutputPath string
	// Removable marks a RemovablePass placeholder the elimination
	// pass must delete before emission.
	Removable bool
}

func (s *PassState) Kind() StateKind { return KindPass }
func (*PassState) wirNode()          {}

// NewTask constructs a Task/Lambda state with the spec.md §4.6
// defaults (InputPath "$", OutputPath "$", ResultPath "$").
func NewTask(name string, loc ast.SourceLocation, isLambda bool, resource string) *TaskState {
	return &TaskState{
		base:       newBase(name, loc),
		IsLambda:   isLambda,
		Resource:   resource,
		InputPath:  "$",
		ResultPath: "$",
		OutputPath: "$",
	}
}

// NewSleep constructs a Wait state.
func NewSleep(name string, loc ast.SourceLocation, secondsPath string) *SleepState {
	return &SleepState{base: newBase(name, loc), SecondsPath: secondsPath}
}

// NewChoice constructs a Choice state.
func NewChoice(name string, loc ast.SourceLocation) *ChoiceState {
	return &ChoiceState{base: newBase(name, loc)}
}

// NewPass constructs a plain, terminal-capable Pass state.
func NewPass(name string, loc ast.SourceLocation) *PassState {
	return &PassState{base: newBase(name, loc), OutputPath: "$"}
}

// NewRemovablePass constructs a placeholder Pass the elimination pass
// will delete, mirroring ASFAST's RemovablePass.
func NewRemovablePass(name string, loc ast.SourceLocation) *PassState {
	p := NewPass(name, loc)
	p.Removable = true
	return p
}

// NewBreak constructs a Break: a Pass whose Next is pinned to target
// and cannot be changed by SetNext/SetEnd.
func NewBreak(name string, loc ast.SourceLocation, target string) *PassState {
	p := NewPass(name, loc)
	p.flow.fixed = true
	p.flow.next = target
	p.flow.hasNext = true
	return p
}

// Workflow is one compiled `def` — spec.md's per-workflow WIR.
type Workflow struct {
	Name         string
	StartState   string
	States       []State
	HasTimeout   bool
	TimeoutSec   int
}

// Module holds every workflow compiled from one source file.
type Module struct {
	Workflows []*Workflow
}

// ByName returns the state named n, or nil if none exists.
func (w *Workflow) ByName(n string) State {
	for _, s := range w.States {
		if s.Name() == n {
			return s
		}
	}
	return nil
}
