package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"modelrepomgr/pkg/types"
)

type memoryEntry struct {
	id      types.ModelIdentifier
	version int64
	state   types.ModelReadyState
	status  types.Status
	cfg     types.ModelConfig
}

// MemoryLifecycle is an in-memory ModelLifecycle: Load/Unload complete
// synchronously and just flip bookkeeping state, with no actual model
// bytes ever touched. It backs the manager's own tests and any caller
// that wants dependency-graph behavior without a real runtime.
type MemoryLifecycle struct {
	mu       sync.Mutex
	entries  map[types.ModelIdentifier]map[int64]*memoryEntry
	inflight map[types.ModelIdentifier]map[int64]int
	// FailLoad, when non-nil, is consulted on every Load call; returning a
	// non-nil error makes that version land in ModelStateUnavailable
	// instead of ModelStateReady. Exists for tests that exercise
	// StatusDependencyFailed propagation without a real backend.
	FailLoad func(id types.ModelIdentifier, version int64) error
}

// NewMemoryLifecycle constructs an empty MemoryLifecycle.
func NewMemoryLifecycle() *MemoryLifecycle {
	return &MemoryLifecycle{
		entries:  make(map[types.ModelIdentifier]map[int64]*memoryEntry),
		inflight: make(map[types.ModelIdentifier]map[int64]int),
	}
}

func (m *MemoryLifecycle) Load(ctx context.Context, id types.ModelIdentifier, version int64, cfg types.ModelConfig) (types.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		m.entries[id] = make(map[int64]*memoryEntry)
	}
	e := &memoryEntry{id: id, version: version, cfg: cfg}
	if m.FailLoad != nil {
		if err := m.FailLoad(id, version); err != nil {
			e.state = types.ModelStateUnavailable
			e.status = types.NewStatus(types.StatusDependencyFailed, err.Error())
			m.entries[id][version] = e
			return e.status, nil
		}
	}
	e.state = types.ModelStateReady
	e.status = types.OK
	m.entries[id][version] = e
	return types.OK, nil
}

func (m *MemoryLifecycle) Unload(ctx context.Context, id types.ModelIdentifier, version int64) (types.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.entries[id]
	if !ok {
		return types.OK, nil
	}
	delete(versions, version)
	if len(versions) == 0 {
		delete(m.entries, id)
	}
	return types.OK, nil
}

func (m *MemoryLifecycle) LiveModelStates(strict bool) (types.ModelStateMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(types.ModelStateMap)
	for id, versions := range m.entries {
		vm := make(types.VersionStateMap)
		for v, e := range versions {
			if strict && !e.status.IsOK() {
				continue
			}
			vm[v] = types.VersionState{Version: v, State: e.state, Status: e.status}
		}
		if len(vm) > 0 {
			out[id.String()] = vm
		}
	}
	return out, nil
}

func (m *MemoryLifecycle) ModelStates() (types.ModelStateMap, error) {
	return m.LiveModelStates(false)
}

func (m *MemoryLifecycle) VersionStates(name string) (types.VersionStateMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, versions := range m.entries {
		if id.String() != name && id.Name != name {
			continue
		}
		vm := make(types.VersionStateMap, len(versions))
		for v, e := range versions {
			vm[v] = types.VersionState{Version: v, State: e.state, Status: e.status}
		}
		return vm, nil
	}
	return nil, ErrNotFound(name)
}

func (m *MemoryLifecycle) ModelState(name string, version int64) (types.VersionState, error) {
	vm, err := m.VersionStates(name)
	if err != nil {
		return types.VersionState{}, err
	}
	vs, ok := vm[version]
	if !ok {
		return types.VersionState{}, ErrNotFound(fmt.Sprintf("%s:%d", name, version))
	}
	return vs, nil
}

func (m *MemoryLifecycle) GetModel(id types.ModelIdentifier, version int64) (ModelHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.entries[id]
	if !ok {
		return ModelHandle{}, ErrNotFound(id.String())
	}
	e, ok := versions[version]
	if !ok {
		return ModelHandle{}, ErrNotFound(fmt.Sprintf("%s:%d", id.String(), version))
	}
	if e.state != types.ModelStateReady {
		return ModelHandle{}, ErrUnavailable(fmt.Sprintf("%s:%d", id.String(), version))
	}
	return ModelHandle{ID: id, Version: version, Backend: e}, nil
}

func (m *MemoryLifecycle) StopAllModels(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[types.ModelIdentifier]map[int64]*memoryEntry)
	m.inflight = make(map[types.ModelIdentifier]map[int64]int)
	return nil
}

func (m *MemoryLifecycle) InflightStatus() []types.InflightEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.InflightEntry
	for id, versions := range m.inflight {
		for v, count := range versions {
			if count == 0 {
				continue
			}
			out = append(out, types.InflightEntry{Name: id.String(), Version: v, Count: count})
		}
	}
	return out
}

// BeginInflight/EndInflight let tests simulate requests in flight against
// a loaded version, as reported by InflightStatus.
func (m *MemoryLifecycle) BeginInflight(id types.ModelIdentifier, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inflight[id]; !ok {
		m.inflight[id] = make(map[int64]int)
	}
	m.inflight[id][version]++
}

func (m *MemoryLifecycle) EndInflight(id types.ModelIdentifier, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if versions, ok := m.inflight[id]; ok && versions[version] > 0 {
		versions[version]--
	}
}
