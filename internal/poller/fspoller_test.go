package poller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modelrepomgr/pkg/types"
)

func writeModelDir(t *testing.T, repoDir, name, configBody, configName string, versions []string) string {
	t.Helper()
	modelDir := filepath.Join(repoDir, name)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(modelDir, configName), []byte(configBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, v := range versions {
		if err := os.MkdirAll(filepath.Join(modelDir, v), 0o755); err != nil {
			t.Fatalf("mkdir version: %v", err)
		}
	}
	return modelDir
}

func TestFilesystemPollerAddedModifiedDeleted(t *testing.T) {
	repoDir := t.TempDir()
	writeModelDir(t, repoDir, "leaf", "platform: llama.cpp\n", "config.yaml", []string{"1", "2"})

	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(repoDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	id := types.NewIdentifier("leaf")
	if !res.Added.has(id) {
		t.Fatalf("expected leaf in added set, got %+v", res.Added)
	}
	info, ok := res.Infos[id]
	if !ok {
		t.Fatalf("expected info for leaf")
	}
	if len(info.AgentModelList) != 2 {
		t.Fatalf("expected 2 versions, got %v", info.AgentModelList)
	}

	// Second poll with nothing changed: unmodified.
	res2, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll2: %v", err)
	}
	if !res2.Unmodified.has(id) {
		t.Fatalf("expected leaf unmodified on second poll, got %+v", res2)
	}

	// Touch the config file to bump its mtime: modified.
	future := time.Now().Add(time.Minute)
	configPath := filepath.Join(repoDir, "leaf", "config.yaml")
	if err := os.Chtimes(configPath, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	res3, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll3: %v", err)
	}
	if !res3.Modified.has(id) {
		t.Fatalf("expected leaf modified after touch, got %+v", res3)
	}

	// Remove the model directory entirely: deleted.
	if err := os.RemoveAll(filepath.Join(repoDir, "leaf")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	res4, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll4: %v", err)
	}
	if !res4.Deleted.has(id) {
		t.Fatalf("expected leaf deleted, got %+v", res4)
	}
}

func TestFilesystemPollerDetectsSizeChangeWithSameModTime(t *testing.T) {
	repoDir := t.TempDir()
	writeModelDir(t, repoDir, "leaf", "platform: llama.cpp\n", "config.yaml", []string{"1"})

	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(repoDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := p.PollModels(context.Background(), nil); err != nil {
		t.Fatalf("poll: %v", err)
	}

	configPath := filepath.Join(repoDir, "leaf", "config.yaml")
	fi, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	pinned := fi.ModTime()
	if err := os.WriteFile(configPath, []byte("platform: llama.cpp\nversion_policy: all\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := os.Chtimes(configPath, pinned, pinned); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	res, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll2: %v", err)
	}
	id := types.NewIdentifier("leaf")
	if !res.Modified.has(id) {
		t.Fatalf("expected leaf modified on size change despite unchanged mtime, got %+v", res)
	}
}

func TestFilesystemPollerSkipsDirWithoutConfig(t *testing.T) {
	repoDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repoDir, "not-a-model"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(repoDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(res.Added) != 0 {
		t.Fatalf("expected no models discovered, got %+v", res.Added)
	}
}

func TestFilesystemPollerNamespacingByDir(t *testing.T) {
	root := t.TempDir()
	teamDir := filepath.Join(root, "team-a")
	if err := os.MkdirAll(teamDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeModelDir(t, teamDir, "m", "platform: llama.cpp\n", "config.yaml", []string{"1"})

	p := NewFilesystemPoller(true)
	if err := p.RegisterRepository(teamDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := p.PollModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	want := types.ModelIdentifier{Namespace: "team-a", Name: "m"}
	if !res.Added.has(want) {
		t.Fatalf("expected namespaced id %v in added set, got %+v", want, res.Added)
	}
}

func TestFilesystemPollerDuplicateAcrossRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeModelDir(t, rootA, "dup", "platform: llama.cpp\n", "config.yaml", []string{"1"})
	writeModelDir(t, rootB, "dup", "platform: llama.cpp\n", "config.yaml", []string{"1"})

	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(rootA, nil); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := p.RegisterRepository(rootB, nil); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if _, err := p.PollModels(context.Background(), nil); err != nil {
		t.Fatalf("poll: %v", err)
	}
	dups := p.DuplicateModels()
	id := types.NewIdentifier("dup")
	if len(dups[id]) != 2 {
		t.Fatalf("expected dup registered under 2 roots, got %+v", dups)
	}
}

func TestFilesystemPollerRegisterDuplicateRepository(t *testing.T) {
	repoDir := t.TempDir()
	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(repoDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.RegisterRepository(repoDir, nil); err == nil {
		t.Fatalf("expected error registering the same repository twice")
	}
}

func TestFilesystemPollerUnregisterRepository(t *testing.T) {
	repoDir := t.TempDir()
	p := NewFilesystemPoller(false)
	if err := p.RegisterRepository(repoDir, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.UnregisterRepository(repoDir); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if len(p.Repositories()) != 0 {
		t.Fatalf("expected no repositories left, got %v", p.Repositories())
	}
	if err := p.UnregisterRepository(repoDir); err == nil {
		t.Fatalf("expected error unregistering an already-removed repository")
	}
}

func (s IDSet) has(id types.ModelIdentifier) bool {
	_, ok := s[id]
	return ok
}
