package web

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/cohesion-lang/cohesionc/pkg/compiler"
	"github.com/cohesion-lang/cohesionc/pkg/config"
	"github.com/cohesion-lang/cohesionc/pkg/store"
)

func setupTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	s := store.New()
	h := New(s)
	app := fiber.New()
	h.Register(app)
	return app, s
}

func putTestBundle(t *testing.T, s *store.Store) string {
	t.Helper()
	out, err := compiler.Compile(`
def hello() {
	greeting = cohesion.activity.sayHello()
	return greeting
}
`, config.Default())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	files := map[string]string{}
	for name, data := range out.Graphs {
		files[name+".graph.json"] = string(data)
	}
	b := s.Put(files)
	return b.ID
}

func TestBundleDetail(t *testing.T) {
	app, s := setupTestApp(t)
	id := putTestBundle(t, s)

	req := httptest.NewRequest("GET", "/ui/bundles/"+id, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	if !containsStr(html, "hello") {
		t.Error("expected workflow name hello in response")
	}
}

func TestBundleDetailNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/ui/bundles/nonexistent", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	if !containsStr(html, "Not Found") {
		t.Error("expected not found message")
	}
}

func TestRootRedirect(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
}

func containsStr(s, substr string) bool {
	return len(s) >= len(substr) && stringContains(s, substr)
}

func stringContains(s, sub string) bool {
	for i := 0; i <= len(s)-len(sub); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
