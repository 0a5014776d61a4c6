package lifecycle

import (
	"context"
	"errors"
	"testing"

	"modelrepomgr/pkg/types"
)

func TestMemoryLifecycleLoadUnload(t *testing.T) {
	m := NewMemoryLifecycle()
	id := types.NewIdentifier("m")

	st, err := m.Load(context.Background(), id, 1, types.ModelConfig{Platform: "llama.cpp"})
	if err != nil || !st.IsOK() {
		t.Fatalf("load: st=%v err=%v", st, err)
	}

	vs, err := m.ModelState("m", 1)
	if err != nil {
		t.Fatalf("model state: %v", err)
	}
	if vs.State != types.ModelStateReady {
		t.Fatalf("expected ready, got %v", vs.State)
	}

	handle, err := m.GetModel(id, 1)
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	if handle.Version != 1 {
		t.Fatalf("unexpected handle %+v", handle)
	}

	if _, err := m.Unload(context.Background(), id, 1); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if _, err := m.GetModel(id, 1); !IsNotFound(err) {
		t.Fatalf("expected not found after unload, got %v", err)
	}
}

func TestMemoryLifecycleFailLoad(t *testing.T) {
	m := NewMemoryLifecycle()
	m.FailLoad = func(id types.ModelIdentifier, version int64) error {
		return errors.New("boom")
	}
	id := types.NewIdentifier("m")

	st, err := m.Load(context.Background(), id, 1, types.ModelConfig{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if st.Kind != types.StatusDependencyFailed {
		t.Fatalf("expected DEPENDENCY_FAILED, got %v", st)
	}

	_, err = m.GetModel(id, 1)
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestMemoryLifecycleStrictFiltersFailedVersions(t *testing.T) {
	m := NewMemoryLifecycle()
	id := types.NewIdentifier("m")
	m.FailLoad = func(types.ModelIdentifier, int64) error { return errors.New("boom") }
	if _, err := m.Load(context.Background(), id, 1, types.ModelConfig{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	states, err := m.LiveModelStates(true)
	if err != nil {
		t.Fatalf("live model states: %v", err)
	}
	if _, ok := states[id.String()]; ok {
		t.Fatalf("expected strict mode to omit failed version, got %+v", states)
	}

	statesLoose, err := m.LiveModelStates(false)
	if err != nil {
		t.Fatalf("live model states loose: %v", err)
	}
	if _, ok := statesLoose[id.String()]; !ok {
		t.Fatalf("expected non-strict mode to include failed version")
	}
}

func TestMemoryLifecycleInflight(t *testing.T) {
	m := NewMemoryLifecycle()
	id := types.NewIdentifier("m")
	m.BeginInflight(id, 1)
	m.BeginInflight(id, 1)
	entries := m.InflightStatus()
	if len(entries) != 1 || entries[0].Count != 2 {
		t.Fatalf("expected 1 entry with count 2, got %+v", entries)
	}
	m.EndInflight(id, 1)
	entries = m.InflightStatus()
	if len(entries) != 1 || entries[0].Count != 1 {
		t.Fatalf("expected count 1 after end, got %+v", entries)
	}
}

func TestMemoryLifecycleStopAllModels(t *testing.T) {
	m := NewMemoryLifecycle()
	id := types.NewIdentifier("m")
	if _, err := m.Load(context.Background(), id, 1, types.ModelConfig{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.StopAllModels(context.Background()); err != nil {
		t.Fatalf("stop all: %v", err)
	}
	if _, err := m.GetModel(id, 1); !IsNotFound(err) {
		t.Fatalf("expected not found after StopAllModels, got %v", err)
	}
}

func TestMemoryLifecycleVersionStatesNotFound(t *testing.T) {
	m := NewMemoryLifecycle()
	if _, err := m.VersionStates("ghost"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
