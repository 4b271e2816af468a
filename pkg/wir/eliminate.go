package wir

import "github.com/cohesion-lang/cohesionc/pkg/compileerr"

// Eliminate deletes every RemovablePass placeholder a workflow's
// build pass left behind, retargeting every next/choice-next/default/
// catch reference that pointed through one. This is the Go analog of
// aws/asfast.py's remove_pass/remove_state_refs.
func Eliminate(m *Module) error {
	for _, wf := range m.Workflows {
		if err := eliminateWorkflow(wf); err != nil {
			return err
		}
	}
	return nil
}

func eliminateWorkflow(wf *Workflow) error {
	states := make(map[string]State, len(wf.States))
	for _, s := range wf.States {
		states[s.Name()] = s
	}

	startName, startEnd, err := resolveTarget(states, wf.StartState)
	if err != nil {
		return err
	}
	if startEnd {
		return compileerr.NewPlaceholderElisionFailure("workflow %q has no executable states", wf.Name)
	}
	wf.StartState = startName

	var kept []State
	var removedRows []int
	for _, s := range wf.States {
		ps, ok := s.(*PassState)
		if ok && ps.Removable {
			if pos, hasPos := ps.Layout(); hasPos {
				removedRows = append(removedRows, pos.Row)
			}
			continue
		}
		kept = append(kept, s)
	}

	for _, s := range kept {
		switch v := s.(type) {
		case *TaskState:
			if err := retargetFlow(&v.flow, states); err != nil {
				return err
			}
			if err := retargetCatch(v, states); err != nil {
				return err
			}
		case *SleepState:
			if err := retargetFlow(&v.flow, states); err != nil {
				return err
			}
		case *PassState:
			// v.flow.fixed marks a Break. A chain that bottoms out at
			// "end" means the loop this break exits has nothing after
			// it in the enclosing sequence (e.g. `while (true) { ...
			// break }` as a function's last statement): there is no
			// further state to retarget through, so the break becomes
			// the workflow's own terminal state instead of failing —
			// see retargetBreak.
			if v.flow.fixed {
				if err := retargetBreak(v, states); err != nil {
					return err
				}
			} else if err := retargetFlow(&v.flow, states); err != nil {
				return err
			}
		case *ChoiceState:
			if err := retargetChoice(v, states); err != nil {
				return err
			}
		}
	}

	wf.States = kept
	repairLayout(kept, removedRows)
	return nil
}

// resolveTarget follows a chain of RemovablePass states until it
// reaches a real state, returning (name, false, nil). If the chain
// ends without a further successor — the removed states were the
// workflow's tail — it returns ("", true, nil). Whether that is a
// legitimate termination (a Task/Pass/Sleep/Break can end the
// workflow) or a failure (a Choice rule or Catch rule cannot) is the
// caller's call. A reference to a name with no matching state is a
// dangling edge, reported distinctly from an exhausted placeholder
// chain.
func resolveTarget(states map[string]State, start string) (name string, isEnd bool, err error) {
	seen := map[string]bool{}
	cur := start
	for {
		if seen[cur] {
			return "", false, compileerr.NewPlaceholderElisionFailure("placeholder cycle at %q", cur)
		}
		seen[cur] = true
		s, ok := states[cur]
		if !ok {
			return "", false, compileerr.NewEdgeTargetMissing("reference to undefined state %q", cur)
		}
		ps, isPass := s.(*PassState)
		if !isPass || !ps.Removable {
			return cur, false, nil
		}
		next, hasNext := ps.Next()
		if !hasNext {
			return "", true, nil
		}
		cur = next
	}
}

func retargetFlow(f *flow, states map[string]State) error {
	if !f.hasNext {
		return nil
	}
	name, isEnd, err := resolveTarget(states, f.next)
	if err != nil {
		return err
	}
	if isEnd {
		f.next = ""
		f.hasNext = false
		f.end = true
	} else {
		f.next = name
	}
	return nil
}

// retargetChoice resolves Choice rule and Default targets. Unlike a
// Task/Pass's Next, a Choice cannot itself terminate a workflow (Step
// Functions requires every rule and the default to name a real
// state), so a chain that bottoms out at "end" here is a genuine
// placeholder-elision failure rather than a valid termination.
func retargetChoice(v *ChoiceState, states map[string]State) error {
	for i := range v.Choices {
		name, isEnd, err := resolveTarget(states, v.Choices[i].Next)
		if err != nil {
			return err
		}
		if isEnd {
			return compileerr.NewPlaceholderElisionFailure("choice rule in %q has no reachable successor", v.Name())
		}
		v.Choices[i].Next = name
	}
	name, isEnd, err := resolveTarget(states, v.Default)
	if err != nil {
		return err
	}
	if isEnd {
		return compileerr.NewPlaceholderElisionFailure("default branch of %q has no reachable successor", v.Name())
	}
	v.Default = name
	return nil
}

// retargetBreak resolves a Break's pinned target directly, bypassing
// the fixed-flow guard (SetNext/SetEnd refuse to touch a Break; the
// elimination pass still must, since the RemovablePass it originally
// pointed at is being deleted). A break whose target placeholder has
// nothing beyond it becomes the workflow's own terminal state: there
// is no loop-exit tail left to retarget through, e.g. `while (true) {
// ...; break }` as a function's last statement (spec.md §8 scenario 5).
func retargetBreak(v *PassState, states map[string]State) error {
	name, isEnd, err := resolveTarget(states, v.flow.next)
	if err != nil {
		return err
	}
	if isEnd {
		v.flow.next = ""
		v.flow.hasNext = false
		v.flow.end = true
		return nil
	}
	v.flow.next = name
	return nil
}

func retargetCatch(v *TaskState, states map[string]State) error {
	for i := range v.Catch {
		name, isEnd, err := resolveTarget(states, v.Catch[i].Next)
		if err != nil {
			return err
		}
		if isEnd {
			return compileerr.NewPlaceholderElisionFailure("catch rule in %q has no reachable successor", v.Name())
		}
		v.Catch[i].Next = name
	}
	return nil
}

// repairLayout shifts every kept state's row up by the number of
// removed rows strictly above it, closing the gaps RemovablePass
// deletion leaves in the visualization grid.
func repairLayout(kept []State, removedRows []int) {
	if len(removedRows) == 0 {
		return
	}
	for _, s := range kept {
		pos, ok := s.Layout()
		if !ok {
			continue
		}
		shift := 0
		for _, r := range removedRows {
			if pos.Row > r {
				shift++
			}
		}
		if shift > 0 {
			s.SetLayout(Position{Row: pos.Row - shift, Column: pos.Column})
		}
	}
}
