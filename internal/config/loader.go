package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the daemon-level settings for cmd/modeld, as opposed
// to the per-model configs internal/poller decodes out of each repository
// entry. Zero values mean "unspecified"; main.go's flags take precedence
// over whatever a loaded file sets.
type ServerConfig struct {
	Addr                   string   `json:"addr" yaml:"addr" toml:"addr" hcl:"addr,optional"`
	Repos                  []string `json:"repos" yaml:"repos" toml:"repos" hcl:"repos,optional"`
	PollIntervalSeconds    int      `json:"poll_interval_seconds" yaml:"poll_interval_seconds" toml:"poll_interval_seconds" hcl:"poll_interval_seconds,optional"`
	EnableModelNamespacing bool     `json:"enable_model_namespacing" yaml:"enable_model_namespacing" toml:"enable_model_namespacing" hcl:"enable_model_namespacing,optional"`
	StrictModelConfig      bool     `json:"strict_model_config" yaml:"strict_model_config" toml:"strict_model_config" hcl:"strict_model_config,optional"`
	MinComputeCapability   int      `json:"min_compute_capability" yaml:"min_compute_capability" toml:"min_compute_capability" hcl:"min_compute_capability,optional"`
	SchedulerConcurrency   int      `json:"scheduler_concurrency" yaml:"scheduler_concurrency" toml:"scheduler_concurrency" hcl:"scheduler_concurrency,optional"`
}

// Load reads a daemon config file based on its extension.
// Supports: .yaml/.yml, .json, .toml, .hcl
func Load(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".hcl":
		parser := hclparse.NewParser()
		f, diags := parser.ParseHCL(b, path)
		if diags.HasErrors() {
			return cfg, fmt.Errorf("parse hcl: %s", diags.Error())
		}
		if diags := gohcl.DecodeBody(f.Body, &hcl.EvalContext{}, &cfg); diags.HasErrors() {
			return cfg, fmt.Errorf("decode hcl: %s", diags.Error())
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
