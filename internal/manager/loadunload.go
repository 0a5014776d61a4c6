package manager

import (
	"context"
	"time"

	"modelrepomgr/internal/graph"
	"modelrepomgr/internal/poller"
	"modelrepomgr/pkg/types"
)

// LoadUnloadModel is the explicit-mode write entry point: the named
// models are polled together in one call, the resulting delta is forced into
// added/modified (LOAD) or deleted (UNLOAD), and the scheduler is run to
// a fixed point. Only allowed when explicit control is enabled.
func (m *Manager) LoadUnloadModel(ctx context.Context, names []string, action Action, unloadDependents bool) (WriteResult, error) {
	if !m.modelControlEnabled {
		return WriteResult{}, ErrUnsupported("model control is not enabled for this manager")
	}
	if action != ActionLoad && action != ActionUnload {
		return WriteResult{}, ErrInvalidArg("unknown action: " + string(action))
	}

	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if m.draining {
		return WriteResult{}, ErrUnsupported("manager is draining, no new writes are accepted")
	}

	requested := make(poller.IDSet, len(names))
	ids := make([]types.ModelIdentifier, 0, len(names))
	for _, name := range names {
		id := types.ParseIdentifier(name)
		ids = append(ids, id)
		requested[id] = struct{}{}
	}

	result, err := m.poller.PollModels(ctx, requested)
	if err != nil {
		return WriteResult{}, err
	}

	added := graph.NewIDSet(nil)
	deleted := graph.NewIDSet(nil)
	modified := graph.NewIDSet(nil)

	for _, id := range ids {
		switch action {
		case ActionUnload:
			deleted.Add(id)
		case ActionLoad:
			info, polled := result.Infos[id]
			if !polled {
				if _, existing := m.graph.Node(id); existing {
					modified.Add(id)
				} else {
					added.Add(id)
				}
				continue
			}
			info.ExplicitlyLoad = true
			m.infos[id] = info
			if _, existing := m.graph.Node(id); existing {
				modified.Add(id)
			} else {
				added.Add(id)
			}
		}
	}

	removed, cycleStatuses := m.updateDependencyGraph(added, deleted, modified, unloadDependents)
	results := m.issueRemovalUnloads(ctx, removed)
	for k, v := range cycleStatuses {
		results[k] = v
	}
	for k, v := range m.loadModelByDependency(ctx) {
		results[k] = v
	}
	for _, id := range ids {
		if _, ok := results[id.String()]; !ok {
			results[id.String()] = types.NewStatus(types.StatusNotFound, "model not found in repository")
		}
	}
	return newWriteResult(results), nil
}

// repositoryRegistrar is implemented by pollers that can add/remove
// repository roots at runtime (the filesystem poller). A poller that
// does not implement it rejects registration with UNSUPPORTED.
type repositoryRegistrar interface {
	RegisterRepository(path string, modelMapping map[string]string) error
	UnregisterRepository(path string) error
}

// RegisterModelRepository adds a repository root to the poller. It does
// not implicitly load anything; the next PollAndUpdate or
// LoadUnloadModel call is what discovers its models.
func (m *Manager) RegisterModelRepository(path string, modelMapping map[string]string) error {
	reg, ok := m.poller.(repositoryRegistrar)
	if !ok {
		return ErrUnsupported("poller does not support repository registration")
	}
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if err := reg.RegisterRepository(path, modelMapping); err != nil {
		return ErrAlreadyExists(err.Error())
	}
	return nil
}

// UnregisterModelRepository removes a repository root. Models it
// contributed appear as deleted on the next poll.
func (m *Manager) UnregisterModelRepository(path string) error {
	reg, ok := m.poller.(repositoryRegistrar)
	if !ok {
		return ErrUnsupported("poller does not support repository registration")
	}
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if err := reg.UnregisterRepository(path); err != nil {
		return ErrNotFound(err.Error())
	}
	return nil
}

// UnloadAllModels unloads every node's versions and clears the dependency
// graph, then tears down the lifecycle collaborator. Unlike StopAllModels
// this forcibly unloads in-flight-served versions; it is meant for an
// explicit "empty the repository" operation, not for graceful shutdown.
func (m *Manager) UnloadAllModels(ctx context.Context) error {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	all := graph.NewIDSet(nil)
	for _, n := range m.graph.AllNodes() {
		all.Add(n.ID)
	}
	_, removed := m.graph.RemoveNodes(all, false)
	m.issueRemovalUnloads(ctx, removed)
	return m.lifecycle.StopAllModels(ctx)
}

// StopAllModels drains the manager for graceful shutdown: it stops
// accepting new write operations (PollAndUpdate, LoadUnloadModel) and
// waits for every lifecycle call already in flight to finish before
// tearing down the lifecycle collaborator. It does not forcibly unload
// versions that are still being served and does not touch the
// dependency graph.
func (m *Manager) StopAllModels(ctx context.Context) error {
	m.pollMu.Lock()
	m.draining = true
	m.pollMu.Unlock()

	m.waitForDrain(ctx)
	return m.lifecycle.StopAllModels(ctx)
}

// waitForDrain polls the lifecycle collaborator's in-flight count until it
// reaches zero or ctx is done, whichever comes first.
func (m *Manager) waitForDrain(ctx context.Context) {
	const pollInterval = 50 * time.Millisecond
	for len(m.lifecycle.InflightStatus()) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}
