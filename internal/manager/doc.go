// Package manager implements the Model Repository Manager: it drives the
// dependency graph (internal/graph) to a fixed point against whatever the
// poller or an explicit load/unload request reports, delegating the
// actual load/unload work to a ModelLifecycle collaborator
// (internal/lifecycle).
//
// Structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies them.
//   - errors.go: Status-kind error helpers (IsNotFound, IsAlreadyExists, ...).
//   - events.go / eventpub_memory.go: lifecycle event bus + in-memory recorder.
//   - poll.go: PollAndUpdate (polling mode entry point).
//   - loadunload.go: LoadUnloadModel, Register/UnregisterModelRepository (explicit mode).
//   - graph_update.go: updateDependencyGraph, the InfoSource adapter.
//   - scheduler.go: loadModelByDependency, the fixed-point load scheduler.
//   - read_api.go: LiveModelStates/ModelStates/VersionStates/ModelState/GetModel/RepositoryIndex.
//   - metrics.go: Prometheus counters/gauges for graph and scheduler activity.
//
// All write operations serialize on one mutex (pollMu); read operations
// that only consult the lifecycle collaborator (LiveModelStates,
// ModelStates, VersionStates, ModelState) bypass it entirely, while
// GetModel, RepositoryIndex and ListModels take it briefly to read the graph.
package manager
