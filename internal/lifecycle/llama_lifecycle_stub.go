//go:build !llama

package lifecycle

import (
	"context"

	"modelrepomgr/pkg/types"
)

// llamaBuilt indicates this binary was compiled without real llama.cpp
// support, i.e. without CGO and the "llama" build tag.
var llamaBuilt = false

// LlamaBuilt reports whether this binary was compiled with the 'llama'
// build tag. Callers use this to decide whether NewLlamaLifecycle returns
// a working adapter or the stub.
func LlamaBuilt() bool { return llamaBuilt }

// LlamaLifecycle is a stub that satisfies ModelLifecycle but refuses to
// load anything without the 'llama' build tag. This keeps default builds
// and CI CGO-free while still letting callers wire a LlamaLifecycle value
// into the manager unconditionally.
type LlamaLifecycle struct{}

// NewLlamaLifecycle returns a stub LlamaLifecycle; ctxSize/threads are
// accepted for interface parity with the real build and otherwise unused.
func NewLlamaLifecycle(ctxSize, threads int) *LlamaLifecycle { return &LlamaLifecycle{} }

func (l *LlamaLifecycle) Load(ctx context.Context, id types.ModelIdentifier, version int64, cfg types.ModelConfig) (types.Status, error) {
	return types.NewStatus(types.StatusDependencyFailed, "llama support not built (missing 'llama' build tag)"), nil
}

func (l *LlamaLifecycle) Unload(ctx context.Context, id types.ModelIdentifier, version int64) (types.Status, error) {
	return types.OK, nil
}

func (l *LlamaLifecycle) LiveModelStates(strict bool) (types.ModelStateMap, error) {
	return types.ModelStateMap{}, nil
}

func (l *LlamaLifecycle) ModelStates() (types.ModelStateMap, error) { return types.ModelStateMap{}, nil }

func (l *LlamaLifecycle) VersionStates(name string) (types.VersionStateMap, error) {
	return nil, ErrNotFound(name)
}

func (l *LlamaLifecycle) ModelState(name string, version int64) (types.VersionState, error) {
	return types.VersionState{}, ErrNotFound(name)
}

func (l *LlamaLifecycle) GetModel(id types.ModelIdentifier, version int64) (ModelHandle, error) {
	return ModelHandle{}, ErrUnavailable("llama support not built (missing 'llama' build tag)")
}

func (l *LlamaLifecycle) StopAllModels(ctx context.Context) error { return nil }

func (l *LlamaLifecycle) InflightStatus() []types.InflightEntry { return nil }
