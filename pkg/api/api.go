// Package api implements a small REST surface over the compiler: a
// single compile-and-return endpoint plus retrieval of a previously
// compiled bundle, the Go analog of deployer.py's deploy_handler.
package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cohesion-lang/cohesionc/pkg/compiler"
	"github.com/cohesion-lang/cohesionc/pkg/config"
	"github.com/cohesion-lang/cohesionc/pkg/store"
)

// Server is the compiler's HTTP API.
type Server struct {
	app   *fiber.App
	store *store.Store
}

// New creates a new API server backed by s.
func New(s *store.Store) *Server {
	srv := &Server{store: s}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Use(cors)

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/v1/compile", srv.compile)
	app.Get("/v1/bundles/:id", srv.getBundle)

	srv.app = app
	return srv
}

// cors mirrors deployer.py's cors_ok headers on every response,
// wide open since this endpoint has no notion of an authenticated
// origin.
func cors(c *fiber.Ctx) error {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Headers", "*")
	c.Set("Access-Control-Allow-Methods", "*")
	return c.Next()
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// compileRequest is the "filesystem in a dictionary" shape deployer.py
// uses: source file contents keyed by path, plus an optional inline
// config.
type compileRequest struct {
	Files  map[string]string `json:"files"`
	Config *config.Config    `json:"config"`
}

func (s *Server) compile(c *fiber.Ctx) error {
	var req compileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, fmt.Sprintf("invalid request body: %v", err))
	}
	if len(req.Files) == 0 {
		return badRequest(c, "files is required and must be non-empty")
	}

	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}

	files := make(map[string]string, len(req.Files))
	for path, source := range req.Files {
		out, err := compiler.Compile(source, cfg)
		if err != nil {
			return badRequest(c, fmt.Sprintf("%s: %v", path, err))
		}
		for name, data := range out.Workflows {
			files[name+".sfn.json"] = string(data)
		}
		for name, data := range out.Graphs {
			files[name+".graph.json"] = string(data)
		}
		if len(out.HelperModule) > 0 {
			files["functions.py"] = string(out.HelperModule)
		}
	}

	b := s.store.Put(files)
	return c.JSON(fiber.Map{"id": b.ID, "files": files})
}

func (s *Server) getBundle(c *fiber.Ctx) error {
	b, err := s.store.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{"code": 404, "message": err.Error()},
		})
	}
	return c.JSON(fiber.Map{
		"id":         b.ID,
		"createTime": b.CreateTime.Format(time.RFC3339),
		"files":      b.Files,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"code": 400, "message": message},
	})
}
