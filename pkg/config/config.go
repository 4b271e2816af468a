// Package config loads the compiler's JSON configuration and parses
// the optional YAML bundle manifest, matching config.py's Config.get/defaults pattern
// (load a JSON object, fall back to hard-coded defaults field by
// field) but with the static fields spec.md §6 names instead of a
// free-form dict.
package config

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the recognized compiler options from spec.md §6.
type Config struct {
	Region       string `json:"region"`
	AccountID    string `json:"account_id"`
	UseRouterFunc bool  `json:"use_router_func"`
}

// Default returns the configuration used when no config file exists,
// matching config.py's built-in defaults.
func Default() *Config {
	return &Config{
		Region:        "us-east-1",
		AccountID:     "000000000000",
		UseRouterFunc: false,
	}
}

// Load reads a JSON config file at path, overlaying it onto Default().
// A missing file is not an error — the CLI's default path is
// "./config.json", which many invocations won't have, matching the
// original's tolerant Config.__init__.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bundle is a multi-file compile manifest: the Go analog of
// deployer.py's `{"files": {...}}` shape, listing source files with
// per-file output names. LoadBundle only parses the manifest; the
// cohesionc CLI does not read bundles and compiles the single source
// file named on its command line.
type Bundle struct {
	Config *Config      `yaml:"config"`
	Files  []BundleFile `yaml:"files"`
}

// BundleFile names one source file to compile and the base name its
// emitted artifacts should use. LoadBundle leaves Name empty when the
// manifest omits it.
type BundleFile struct {
	Path string `yaml:"path"`
	Name string `yaml:"name,omitempty"`
}

// LoadBundle reads a YAML bundle manifest from path.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b := &Bundle{}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, err
	}
	if b.Config == nil {
		b.Config = Default()
	}
	return b, nil
}
