package lifecycle

import (
	"context"

	"modelrepomgr/pkg/types"
)

// ModelHandle is the opaque result of a successful GetModel call. The
// manager never inspects it; it only ever hands it back out over the API
// boundary (or, in tests, asserts identity).
type ModelHandle struct {
	ID      types.ModelIdentifier
	Version int64
	Backend any
}

// ModelLifecycle is the manager's only collaborator for doing real work:
// everything dependency-graph-shaped (what depends on what, what order to
// load in) lives in internal/graph and internal/manager; this interface
// is strictly "load/unload this version, tell me what's loaded".
//
// Load and Unload are synchronous from the caller's perspective. An
// implementation may return immediately and report ModelStateLoading
// until a later call observes completion; the scheduler parallelizes
// calls across a worker pool rather than relying on async callbacks.
type ModelLifecycle interface {
	Load(ctx context.Context, id types.ModelIdentifier, version int64, cfg types.ModelConfig) (types.Status, error)
	Unload(ctx context.Context, id types.ModelIdentifier, version int64) (types.Status, error)

	// LiveModelStates reports every (name, version) currently tracked. In
	// strict mode, a version whose status is not OK is omitted entirely
	// rather than reported with its error status.
	LiveModelStates(strict bool) (types.ModelStateMap, error)
	ModelStates() (types.ModelStateMap, error)
	VersionStates(name string) (types.VersionStateMap, error)
	ModelState(name string, version int64) (types.VersionState, error)

	GetModel(id types.ModelIdentifier, version int64) (ModelHandle, error)

	StopAllModels(ctx context.Context) error
	InflightStatus() []types.InflightEntry
}
