package manager

import (
	"sync"

	"modelrepomgr/internal/graph"
	"modelrepomgr/internal/lifecycle"
	"modelrepomgr/internal/poller"
	"modelrepomgr/pkg/types"
)

// Manager is the Model Repository Manager: it owns the dependency graph
// and the per-model info snapshots the poller last reported, and drives
// both to a fixed point against the lifecycle collaborator.
//
// pollMu serializes every write operation and every graph mutation;
// reads that only consult the lifecycle collaborator (ModelStates,
// VersionStates, ...) bypass it entirely. GetModel, RepositoryIndex and
// ListModels hold it only while reading the graph.
type Manager struct {
	pollMu sync.Mutex

	graph *graph.Graph
	infos map[types.ModelIdentifier]types.ModelInfo

	poller    poller.RepositoryPoller
	lifecycle lifecycle.ModelLifecycle
	publisher EventPublisher

	pollingEnabled       bool
	modelControlEnabled  bool
	namespacingEnabled   bool
	minComputeCapability int
	schedulerConcurrency int

	// draining is set by StopAllModels once it starts refusing new write
	// operations while in-flight lifecycle calls finish. Guarded by pollMu.
	draining bool
}

func newManager(cfg ManagerConfig) *Manager {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = noopPublisher{}
	}
	concurrency := cfg.SchedulerConcurrency
	if concurrency <= 0 {
		concurrency = defaultSchedulerConcurrency
	}
	return &Manager{
		graph:                graph.New(),
		infos:                make(map[types.ModelIdentifier]types.ModelInfo),
		poller:                cfg.Poller,
		lifecycle:             cfg.Lifecycle,
		publisher:             publisher,
		pollingEnabled:        cfg.PollingEnabled,
		modelControlEnabled:   cfg.ModelControlEnabled,
		namespacingEnabled:    cfg.EnableModelNamespacing,
		minComputeCapability:  cfg.MinComputeCapability,
		schedulerConcurrency:  concurrency,
	}
}

// New constructs a Manager from its two external collaborators in
// polling mode, using package defaults for every other option. Most
// callers with non-default tunables should use NewWithConfig instead.
func New(p poller.RepositoryPoller, lc lifecycle.ModelLifecycle) (*Manager, error) {
	return NewWithConfig(ManagerConfig{
		Poller:         p,
		Lifecycle:      lc,
		PollingEnabled: true,
	})
}

// GetModelInfo implements graph.InfoSource by looking up the last info
// snapshot recorded for id. The graph only ever calls this while pollMu
// is held by the caller (AddNodes/UpdateNodes run from within a write
// operation).
func (m *Manager) GetModelInfo(id types.ModelIdentifier) (types.ModelInfo, bool) {
	info, ok := m.infos[id]
	return info, ok
}

// Len reports how many nodes the dependency graph currently holds.
func (m *Manager) Len() int {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	return m.graph.Len()
}

// Ready reports whether the manager has completed construction and is safe
// to serve traffic against. Since NewWithConfig's startup load already runs
// to completion (or fails) before returning, a constructed Manager is
// always ready.
func (m *Manager) Ready() bool { return true }
