package emit

import (
	"encoding/json"

	"github.com/cohesion-lang/cohesionc/pkg/wir"
)

// workflowDoc mirrors the canonical state-machine JSON shape from
// spec.md §6. Only TimeoutSeconds is omitempty; the states themselves
// are rendered separately by stateDoc.
type workflowDoc struct {
	StartAt        string                 `json:"StartAt"`
	TimeoutSeconds int                    `json:"TimeoutSeconds,omitempty"`
	States         map[string]interface{} `json:"States"`
}

// Workflow renders a workflow's eliminated, validated state list into
// the canonical JSON document, keyed by <name>.sfn.json per spec.md
// §6. Layout metadata never appears here; it belongs to Graph.
func Workflow(wf *wir.Workflow) ([]byte, error) {
	doc := workflowDoc{
		StartAt: wf.StartState,
		States:  make(map[string]interface{}, len(wf.States)),
	}
	if wf.HasTimeout {
		doc.TimeoutSeconds = wf.TimeoutSec
	}
	for _, s := range wf.States {
		doc.States[s.Name()] = stateDoc(s)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func stateDoc(s wir.State) map[string]interface{} {
	m := map[string]interface{}{"Type": string(s.Kind())}
	if c := s.Comment(); c != "" {
		m["Comment"] = c
	}

	switch v := s.(type) {
	case *wir.TaskState:
		kind := "Task"
		if v.IsLambda {
			kind = "Lambda"
		}
		m["Type"] = kind
		m["Resource"] = v.Resource
		if v.InputPath != "" {
			m["InputPath"] = v.InputPath
		}
		if v.HasParams {
			m["Parameters"] = v.Parameters
		}
		m["OutputPath"] = v.OutputPath
		m["ResultPath"] = v.ResultPath
		if v.HasTimeout {
			m["TimeoutSeconds"] = v.TimeoutSec
		}
		if v.HasHeartbeat {
			m["HeartbeatSeconds"] = v.HeartbeatSec
		}
		if len(v.Retry) > 0 {
			m["Retry"] = retryDocs(v.Retry)
		}
		if len(v.Catch) > 0 {
			m["Catch"] = catchDocs(v.Catch)
		}
		setFlow(m, v)

	case *wir.SleepState:
		m["SecondsPath"] = v.SecondsPath
		setFlow(m, v)

	case *wir.ChoiceState:
		choices := make([]map[string]interface{}, len(v.Choices))
		for i, c := range v.Choices {
			choices[i] = map[string]interface{}{
				"Variable":      c.Variable,
				"BooleanEquals": c.BooleanEquals,
				"Next":          c.Next,
			}
		}
		m["Choices"] = choices
		m["Default"] = v.Default

	case *wir.PassState:
		if v.InputPath != "" {
			m["InputPath"] = v.InputPath
		}
		if v.HasParams {
			m["Parameters"] = v.Parameters
		}
		if v.OutputPath != "" {
			m["OutputPath"] = v.OutputPath
		}
		setFlow(m, v)
	}

	return m
}

// setFlow writes Next or End for any non-Choice state (Choice routes
// flow through Choices/Default instead and never reaches here).
func setFlow(m map[string]interface{}, s wir.State) {
	if next, ok := s.Next(); ok {
		m["Next"] = next
		return
	}
	m["End"] = s.End()
}

func retryDocs(rules []wir.RetryRule) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rules))
	for i, r := range rules {
		d := map[string]interface{}{"ErrorEquals": r.ErrorEquals}
		if r.IntervalSeconds > 0 {
			d["IntervalSeconds"] = r.IntervalSeconds
		}
		if r.MaxAttempts > 0 {
			d["MaxAttempts"] = r.MaxAttempts
		}
		if r.BackoffRate > 0 {
			d["BackoffRate"] = r.BackoffRate
		}
		out[i] = d
	}
	return out
}

func catchDocs(rules []wir.CatchRule) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rules))
	for i, c := range rules {
		out[i] = map[string]interface{}{"ErrorEquals": c.ErrorEquals, "Next": c.Next}
	}
	return out
}
