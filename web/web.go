// Package web serves a read-only viewer for compiled bundles: given a
// bundle ID, it renders the emitted graph JSON as a node/edge list.
// The teacher's version parsed its pages from go:embed'd template
// files; this viewer is small enough to keep as a single inline
// html/template, so there is no templates/ directory to embed.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/cohesion-lang/cohesionc/pkg/store"
)

var pageTmpl = template.Must(template.New("bundle").Parse(`<!DOCTYPE html>
<html>
<head><title>cohesionc bundle {{.ID}}</title></head>
<body>
<h1>Bundle {{.ID}}</h1>
{{if .NotFound}}
<p>Not Found</p>
{{else}}
<p>Compiled {{.CreateTime}}</p>
<ul>
{{range .Graphs}}
<li>
<h2>{{.Name}}</h2>
<h3>Nodes</h3>
<ul>
{{range .Nodes}}<li>{{.Name}} ({{.Kind}}) row={{.Row}} col={{.Column}}</li>
{{end}}</ul>
<h3>Edges</h3>
<ul>
{{range .Edges}}<li>{{.From}} &rarr; {{.To}}{{if .Type}} [{{.Type}}]{{end}}</li>
{{end}}</ul>
</li>
{{end}}
</ul>
{{end}}
</body>
</html>
`))

// Handler serves the bundle viewer.
type Handler struct {
	store *store.Store
}

// New creates a new viewer handler backed by s.
func New(s *store.Store) *Handler {
	return &Handler{store: s}
}

// Register adds the viewer routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui/bundles/:id", h.bundleDetail)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui/bundles")
	})
}

type graphView struct {
	Name  string
	Nodes []nodeView
	Edges []edgeView
}

type nodeView struct {
	Name   string
	Kind   string
	Row    int
	Column int
}

type edgeView struct {
	From string
	To   string
	Type string
}

type pageData struct {
	ID         string
	CreateTime string
	NotFound   bool
	Graphs     []graphView
}

func (h *Handler) bundleDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	b, err := h.store.Get(id)
	if err != nil {
		return render(c, pageData{ID: id, NotFound: true})
	}

	var names []string
	for name := range b.Files {
		if hasSuffix(name, ".graph.json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	pd := pageData{ID: b.ID, CreateTime: b.CreateTime.Format("2006-01-02 15:04:05")}
	for _, name := range names {
		var doc struct {
			Nodes map[string]struct {
				Row    int `json:"row"`
				Column int `json:"column"`
			} `json:"nodes"`
			Edges []struct {
				From string `json:"from"`
				To   string `json:"to"`
				Type string `json:"type,omitempty"`
			} `json:"edges"`
		}
		if err := json.Unmarshal([]byte(b.Files[name]), &doc); err != nil {
			continue
		}

		gv := graphView{Name: name}
		for n, pos := range doc.Nodes {
			gv.Nodes = append(gv.Nodes, nodeView{Name: n, Row: pos.Row, Column: pos.Column})
		}
		sort.Slice(gv.Nodes, func(i, j int) bool {
			if gv.Nodes[i].Row != gv.Nodes[j].Row {
				return gv.Nodes[i].Row < gv.Nodes[j].Row
			}
			return gv.Nodes[i].Column < gv.Nodes[j].Column
		})
		for _, e := range doc.Edges {
			gv.Edges = append(gv.Edges, edgeView{From: e.From, To: e.To, Type: e.Type})
		}
		pd.Graphs = append(pd.Graphs, gv)
	}

	return render(c, pd)
}

func render(c *fiber.Ctx, pd pageData) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
