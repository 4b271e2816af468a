package wir

import "github.com/cohesion-lang/cohesionc/pkg/ast"

// EdgeKind labels why two states are connected, for the
// visualization graph emitted alongside the workflow JSON.
type EdgeKind string

const (
	EdgeNext    EdgeKind = "next"
	EdgeChoice  EdgeKind = "choice"
	EdgeDefault EdgeKind = "default"
	EdgeCatch   EdgeKind = "catch"
)

// GraphNode is one state's visualization entry.
type GraphNode struct {
	Name    string
	Kind    StateKind
	Row     int
	Column  int
	Loc     ast.SourceLocation
	LocEnd  ast.SourceLocation
	HasLocEnd bool
}

// GraphEdge is one connection between two states.
type GraphEdge struct {
	From  string
	To    string
	Kind  EdgeKind
	Label string
}

// Graph is the visualization of one workflow: every state as a node
// and every next/choice/default/catch connection as a labeled edge.
type Graph struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// BuildGraph renders a workflow's state list as a graph, the Go
// analog of aws/asfast.py's build_graphs. It must run after
// Eliminate (so placeholders are gone) and should run after Validate
// (so every edge it walks is known to resolve).
func BuildGraph(wf *Workflow) *Graph {
	g := &Graph{}
	for _, s := range wf.States {
		pos, _ := s.Layout()
		locEnd, hasLocEnd := s.LocEnd()
		g.Nodes = append(g.Nodes, GraphNode{
			Name:      s.Name(),
			Kind:      s.Kind(),
			Row:       pos.Row,
			Column:    pos.Column,
			Loc:       s.Loc(),
			LocEnd:    locEnd,
			HasLocEnd: hasLocEnd,
		})

		if next, ok := s.Next(); ok {
			g.Edges = append(g.Edges, GraphEdge{From: s.Name(), To: next, Kind: EdgeNext})
		}

		switch v := s.(type) {
		case *ChoiceState:
			for _, c := range v.Choices {
				g.Edges = append(g.Edges, GraphEdge{From: s.Name(), To: c.Next, Kind: EdgeChoice, Label: c.Variable})
			}
			g.Edges = append(g.Edges, GraphEdge{From: s.Name(), To: v.Default, Kind: EdgeDefault})
		case *TaskState:
			for _, c := range v.Catch {
				for _, errType := range c.ErrorEquals {
					g.Edges = append(g.Edges, GraphEdge{From: s.Name(), To: c.Next, Kind: EdgeCatch, Label: errType})
				}
			}
		}
	}
	return g
}
