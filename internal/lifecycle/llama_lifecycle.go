//go:build llama

package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"modelrepomgr/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama.cpp
// support; cmd/modeld reads it through LlamaBuilt to pick its lifecycle.
var llamaBuilt = true

// LlamaBuilt reports whether this binary was compiled with the 'llama'
// build tag.
func LlamaBuilt() bool { return llamaBuilt }

type llamaEntry struct {
	model   *llama.LLama
	version int64
}

// LlamaLifecycle is the go-llama.cpp-backed ModelLifecycle: Load blocks on
// llama.New(...) for the configured model path, Unload frees the
// underlying model. Instances are keyed by (identifier, version) since a
// repository can serve several versions of the same model concurrently.
type LlamaLifecycle struct {
	mu        sync.Mutex
	ctxSize   int
	threads   int
	instances map[types.ModelIdentifier]map[int64]*llamaEntry
	inflight  map[types.ModelIdentifier]map[int64]int
}

// NewLlamaLifecycle constructs a LlamaLifecycle with the given default
// context size and thread count. A model's Parameters["ctx_size"] overrides
// the context size at Load time; the thread count is stored but not used.
func NewLlamaLifecycle(ctxSize, threads int) *LlamaLifecycle {
	return &LlamaLifecycle{
		ctxSize:   ctxSize,
		threads:   threads,
		instances: make(map[types.ModelIdentifier]map[int64]*llamaEntry),
		inflight:  make(map[types.ModelIdentifier]map[int64]int),
	}
}

func (l *LlamaLifecycle) Load(ctx context.Context, id types.ModelIdentifier, version int64, cfg types.ModelConfig) (types.Status, error) {
	if cfg.Path == "" {
		st := types.NewStatus(types.StatusInvalidArg, "model path is empty")
		return st, nil
	}
	ctxSize := l.ctxSize
	if v, ok := cfg.Parameters["ctx_size"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ctxSize = n
		}
	}

	model, err := llama.New(cfg.Path, llama.SetContext(ctxSize))
	if err != nil {
		st := types.NewStatus(types.StatusDependencyFailed, fmt.Sprintf("llama.New: %v", err))
		return st, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.instances[id]; !ok {
		l.instances[id] = make(map[int64]*llamaEntry)
	}
	l.instances[id][version] = &llamaEntry{model: model, version: version}
	return types.OK, nil
}

func (l *LlamaLifecycle) Unload(ctx context.Context, id types.ModelIdentifier, version int64) (types.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	versions, ok := l.instances[id]
	if !ok {
		return types.OK, nil
	}
	if e, ok := versions[version]; ok && e.model != nil {
		e.model.Free()
	}
	delete(versions, version)
	if len(versions) == 0 {
		delete(l.instances, id)
	}
	return types.OK, nil
}

func (l *LlamaLifecycle) LiveModelStates(strict bool) (types.ModelStateMap, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(types.ModelStateMap)
	for id, versions := range l.instances {
		vm := make(types.VersionStateMap, len(versions))
		for v := range versions {
			vm[v] = types.VersionState{Version: v, State: types.ModelStateReady, Status: types.OK}
		}
		if len(vm) > 0 {
			out[id.String()] = vm
		}
	}
	return out, nil
}

func (l *LlamaLifecycle) ModelStates() (types.ModelStateMap, error) {
	return l.LiveModelStates(false)
}

func (l *LlamaLifecycle) VersionStates(name string) (types.VersionStateMap, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, versions := range l.instances {
		if id.String() != name && id.Name != name {
			continue
		}
		vm := make(types.VersionStateMap, len(versions))
		for v := range versions {
			vm[v] = types.VersionState{Version: v, State: types.ModelStateReady, Status: types.OK}
		}
		return vm, nil
	}
	return nil, ErrNotFound(name)
}

func (l *LlamaLifecycle) ModelState(name string, version int64) (types.VersionState, error) {
	vm, err := l.VersionStates(name)
	if err != nil {
		return types.VersionState{}, err
	}
	vs, ok := vm[version]
	if !ok {
		return types.VersionState{}, ErrNotFound(fmt.Sprintf("%s:%d", name, version))
	}
	return vs, nil
}

func (l *LlamaLifecycle) GetModel(id types.ModelIdentifier, version int64) (ModelHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	versions, ok := l.instances[id]
	if !ok {
		return ModelHandle{}, ErrNotFound(id.String())
	}
	e, ok := versions[version]
	if !ok {
		return ModelHandle{}, ErrNotFound(fmt.Sprintf("%s:%d", id.String(), version))
	}
	return ModelHandle{ID: id, Version: version, Backend: e.model}, nil
}

func (l *LlamaLifecycle) StopAllModels(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, versions := range l.instances {
		for _, e := range versions {
			if e.model != nil {
				e.model.Free()
			}
		}
	}
	l.instances = make(map[types.ModelIdentifier]map[int64]*llamaEntry)
	l.inflight = make(map[types.ModelIdentifier]map[int64]int)
	return nil
}

func (l *LlamaLifecycle) InflightStatus() []types.InflightEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []types.InflightEntry
	for id, versions := range l.inflight {
		for v, count := range versions {
			if count == 0 {
				continue
			}
			out = append(out, types.InflightEntry{Name: id.String(), Version: v, Count: count})
		}
	}
	return out
}
