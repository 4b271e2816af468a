// Package main is the cohesionc command-line compiler.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cohesion-lang/cohesionc/pkg/api"
	"github.com/cohesion-lang/cohesionc/pkg/compiler"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
	"github.com/cohesion-lang/cohesionc/pkg/config"
	"github.com/cohesion-lang/cohesionc/pkg/store"
	"github.com/cohesion-lang/cohesionc/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "cohesionc source",
	Short:         "Compile a cohesion source file into a state-machine workflow",
	Args:          cobra.ExactArgs(1),
	RunE:          runCompile,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the compile-as-a-service HTTP API and bundle viewer",
	RunE:  runServe,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("cohesionc version {{.Version}}\n")

	rootCmd.Flags().StringP("config", "c", "./config.json", "path to JSON config")
	rootCmd.Flags().StringP("output", "o", "build", "output directory")
	rootCmd.Flags().Bool("debug", false, "log each compiler pass")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8080, env PORT)")
	serveCmd.Flags().String("host", "", "bind address (default 0.0.0.0, env HOST)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	source := args[0]
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output")
	debug, _ := cmd.Flags().GetBool("debug")
	compiler.Debug = debug

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}

	out, err := compiler.Compile(string(data), cfg)
	if err != nil {
		printCompileError(err)
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}

	for name, doc := range out.Workflows {
		path := filepath.Join(outputDir, name+".sfn.json")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}
	for name, doc := range out.Graphs {
		path := filepath.Join(outputDir, name+".graph.json")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}
	if len(out.HelperModule) > 0 {
		path := filepath.Join(outputDir, "functions.py")
		if err := os.WriteFile(path, out.HelperModule, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}

	return nil
}

func printCompileError(err error) {
	if ce, ok := err.(*compileerr.CompileError); ok {
		fmt.Fprintf(os.Stderr, "cohesionc: %s\n", ce.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "cohesionc: %v\n", err)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8080")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}
	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	s := store.New()
	server := api.New(s)
	web.New(s).Register(server.App())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}()

	log.Printf("cohesionc API listening on %s", addr)
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
