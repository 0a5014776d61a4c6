package manager

import (
	"context"

	"modelrepomgr/internal/graph"
	"modelrepomgr/pkg/types"
)

// PollAndUpdate drives one polling-mode cycle: ask the poller about the
// whole repository, fold the delta into the dependency graph, then run
// the load scheduler to a fixed point. Only allowed when polling is
// enabled.
func (m *Manager) PollAndUpdate(ctx context.Context) (WriteResult, error) {
	if !m.pollingEnabled {
		return WriteResult{}, ErrUnsupported("polling is not enabled for this manager")
	}
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if m.draining {
		return WriteResult{}, ErrUnsupported("manager is draining, no new writes are accepted")
	}

	result, err := m.poller.PollModels(ctx, nil)
	if err != nil {
		return WriteResult{}, err
	}

	for id, info := range result.Infos {
		m.infos[id] = info
	}
	for id := range result.Deleted {
		delete(m.infos, id)
	}

	removed, cycleStatuses := m.updateDependencyGraph(
		graph.IDSet(result.Added),
		graph.IDSet(result.Deleted),
		graph.IDSet(result.Modified),
		true, // polling mode always cascades
	)

	perModel := m.issueRemovalUnloads(ctx, removed)
	for k, v := range cycleStatuses {
		perModel[k] = v
	}
	for k, v := range m.loadModelByDependency(ctx) {
		perModel[k] = v
	}
	return newWriteResult(perModel), nil
}

// newWriteResult summarizes a per-model status map into an overall
// Status, OK iff every entry is OK.
func newWriteResult(perModel map[string]types.Status) WriteResult {
	overall := types.OK
	for _, st := range perModel {
		if !st.IsOK() {
			overall = st
			break
		}
	}
	return WriteResult{Overall: overall, PerModel: perModel}
}

// issueRemovalUnloads unloads every version still reported loaded for
// each removed identifier, since their graph.Node is already gone by the
// time this runs.
func (m *Manager) issueRemovalUnloads(ctx context.Context, removed graph.IDSet) map[string]types.Status {
	results := make(map[string]types.Status)
	for id := range removed {
		vs, err := m.lifecycle.VersionStates(id.Name)
		if err != nil {
			results[id.String()] = types.OK
			continue
		}
		overall := types.OK
		for v := range vs {
			st, err := m.lifecycle.Unload(ctx, id, v)
			if err != nil {
				st = types.NewStatus(types.StatusDependencyFailed, err.Error())
			}
			if !st.IsOK() {
				overall = st
			}
			m.publisher.Publish(Event{Name: "unload_issued", ModelID: id.String(), Fields: map[string]any{"version": v}})
		}
		results[id.String()] = overall
	}
	return results
}
