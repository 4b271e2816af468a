package emit

import (
	"encoding/json"

	"github.com/cohesion-lang/cohesionc/pkg/wir"
)

type graphDoc struct {
	Nodes map[string]graphNodeDoc `json:"nodes"`
	Edges []graphEdgeDoc          `json:"edges"`
}

type graphNodeDoc struct {
	Row    int           `json:"row"`
	Column int           `json:"column"`
	Srcmap graphSrcmap   `json:"srcmap"`
}

type graphSrcmap struct {
	Loc    [2]int  `json:"loc"`
	LocEnd *[2]int `json:"locEnd,omitempty"`
}

type graphEdgeDoc struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type,omitempty"`
}

// Graph renders a wir.Graph as the visualization JSON from spec.md §6,
// keyed by <name>.graph.json.
func Graph(g *wir.Graph) ([]byte, error) {
	doc := graphDoc{Nodes: make(map[string]graphNodeDoc, len(g.Nodes))}
	for _, n := range g.Nodes {
		nd := graphNodeDoc{
			Row:    n.Row,
			Column: n.Column,
			Srcmap: graphSrcmap{Loc: [2]int{n.Loc.Line, n.Loc.Col}},
		}
		if n.HasLocEnd {
			end := [2]int{n.LocEnd.Line, n.LocEnd.Col}
			nd.Srcmap.LocEnd = &end
		}
		doc.Nodes[n.Name] = nd
	}
	for _, e := range g.Edges {
		ed := graphEdgeDoc{From: e.From, To: e.To}
		if e.Kind != wir.EdgeNext {
			ed.Type = string(e.Kind)
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return json.MarshalIndent(doc, "", "  ")
}
