package manager

import (
	"modelrepomgr/internal/graph"
	"modelrepomgr/pkg/types"
)

// updateDependencyGraph applies one delta batch to the dependency graph
// and reconnects/recirculates every affected node. cycleStatuses reports
// the CYCLE_ERROR status of every node the circularity check caught this
// batch; CircularityCheck marks those nodes Checked directly, so the
// scheduler's own fixed-point loop never sees them and never reports
// them in its results map. Callers must hold pollMu.
func (m *Manager) updateDependencyGraph(added, deleted, modified graph.IDSet, cascading bool) (removedIDs graph.IDSet, cycleStatuses map[string]types.Status) {
	affected1, removed := m.graph.RemoveNodes(deleted, cascading)
	affected2 := m.graph.UpdateNodes(modified, m)
	affected3 := m.graph.AddNodes(added, m)

	toReconnect := graph.NewIDSet(nil)
	for id := range affected1 {
		toReconnect.Add(id)
	}
	for id := range affected2 {
		toReconnect.Add(id)
	}
	for id := range affected3 {
		toReconnect.Add(id)
	}
	for id := range added {
		toReconnect.Add(id)
	}
	for id := range modified {
		toReconnect.Add(id)
	}

	// Every reconnecting node's edges must be in place before any of them
	// is circularity-checked: checking node-by-node in one pass makes a
	// 2-cycle's outcome depend on map iteration order, since whichever
	// member is visited first is checked before its partner's edge exists
	// and so never reports cycle_error.
	for id := range toReconnect {
		n, ok := m.graph.Node(id)
		if !ok {
			continue
		}
		m.graph.ConnectUpstreams(n, m.namespacingEnabled)
	}
	for id := range toReconnect {
		n, ok := m.graph.Node(id)
		if !ok {
			continue
		}
		if st := m.graph.CircularityCheck(n); st.Kind == types.StatusCycleError {
			graphCycleErrorsTotal.Inc()
			m.publisher.Publish(Event{Name: "cycle_detected", ModelID: id.String()})
			if cycleStatuses == nil {
				cycleStatuses = make(map[string]types.Status)
			}
			cycleStatuses[id.String()] = st
		}
	}

	for id := range removed {
		m.publisher.Publish(Event{Name: "node_removed", ModelID: id.String()})
	}
	graphNodes.Set(float64(m.graph.Len()))
	return removed, cycleStatuses
}
