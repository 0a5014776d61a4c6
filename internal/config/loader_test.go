package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nrepos:\n  - /srv/models/a\n  - /srv/models/b\nscheduler_concurrency: 7\nenable_model_namespacing: true\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || len(cfg.Repos) != 2 || cfg.SchedulerConcurrency != 7 || !cfg.EnableModelNamespacing {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","repos":["/m"],"strict_model_config":true,"min_compute_capability":5}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || len(cfg.Repos) != 1 || !cfg.StrictModelConfig || cfg.MinComputeCapability != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nrepos=[\"/x\"]\npoll_interval_seconds=10\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || len(cfg.Repos) != 1 || cfg.PollIntervalSeconds != 10 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadHCL(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.hcl", `
addr                  = ":9090"
repos                 = ["/srv/models/a", "/srv/models/b"]
scheduler_concurrency = 4
strict_model_config   = true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || len(cfg.Repos) != 2 || cfg.SchedulerConcurrency != 4 || !cfg.StrictModelConfig {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
