package wir

import "github.com/cohesion-lang/cohesionc/pkg/compileerr"

// Validate checks every workflow's structural invariants after pass
// elimination: the start state and every next/choice/default/catch
// edge names a state that actually exists, and no state claims to be
// both terminal and forward-flowing at once. Name membership is
// checked against a set of state names built fresh for each workflow,
// not by comparing state objects — a workflow can otherwise validate
// successfully even after RemovablePass states were replaced by new
// objects with the same name during elimination.
func Validate(m *Module) error {
	for _, wf := range m.Workflows {
		if err := validateWorkflow(wf); err != nil {
			return err
		}
	}
	return nil
}

func validateWorkflow(wf *Workflow) error {
	names := make(map[string]bool, len(wf.States))
	for _, s := range wf.States {
		names[s.Name()] = true
	}

	if !names[wf.StartState] {
		return compileerr.NewEdgeTargetMissing("workflow %q start state %q does not exist", wf.Name, wf.StartState)
	}

	for _, s := range wf.States {
		if next, ok := s.Next(); ok {
			if s.End() {
				return compileerr.NewEdgeTargetMissing("state %q in %q is marked both next and end", s.Name(), wf.Name)
			}
			if !names[next] {
				return compileerr.NewEdgeTargetMissing("state %q in %q references missing state %q", s.Name(), wf.Name, next)
			}
		}

		switch v := s.(type) {
		case *ChoiceState:
			for _, c := range v.Choices {
				if !names[c.Next] {
					return compileerr.NewEdgeTargetMissing("choice rule in %q references missing state %q", s.Name(), c.Next)
				}
			}
			if !names[v.Default] {
				return compileerr.NewEdgeTargetMissing("default branch of %q references missing state %q", s.Name(), v.Default)
			}
		case *TaskState:
			for _, c := range v.Catch {
				if !names[c.Next] {
					return compileerr.NewEdgeTargetMissing("catch rule in %q references missing state %q", s.Name(), c.Next)
				}
			}
		}
	}
	return nil
}
