package manager

import (
	"context"
	"sync"
	"time"

	"modelrepomgr/internal/graph"
	"modelrepomgr/pkg/types"
)

// versionAction is one concrete load or unload call the scheduler needs
// issued to the lifecycle collaborator for a single (identifier, version).
type versionAction struct {
	id      types.ModelIdentifier
	version int64
	load    bool
	cfg     types.ModelConfig
}

// desiredVersions computes which on-disk versions of a model should be
// loaded given its last polled info and version policy.
func desiredVersions(info types.ModelInfo) []int64 {
	if len(info.AgentModelList) == 0 {
		return nil
	}
	switch info.ModelConfig.VersionPolicy.Kind {
	case types.VersionPolicySpecific:
		want := make(map[int64]struct{}, len(info.ModelConfig.VersionPolicy.Versions))
		for _, v := range info.ModelConfig.VersionPolicy.Versions {
			want[v] = struct{}{}
		}
		var out []int64
		for _, v := range info.AgentModelList {
			if _, ok := want[v]; ok {
				out = append(out, v)
			}
		}
		return out
	case types.VersionPolicyAll:
		return append([]int64(nil), info.AgentModelList...)
	default: // VersionPolicyLatest
		max := info.AgentModelList[0]
		for _, v := range info.AgentModelList {
			if v > max {
				max = v
			}
		}
		return []int64{max}
	}
}

// upstreamsChecked reports whether every upstream of n has completed
// validation this scheduler run, i.e. n is no longer blocked.
func upstreamsChecked(n *graph.Node) bool {
	for u := range n.Upstreams {
		if !u.Checked {
			return false
		}
	}
	return true
}

// unloadAllVersions issues an unload action for every version currently
// loaded for n.
func unloadAllVersions(n *graph.Node) []versionAction {
	var actions []versionAction
	for v := range n.LoadedVersions {
		actions = append(actions, versionAction{id: n.ID, version: v, load: false})
	}
	return actions
}

// decideNode validates one ready node's upstreams and decides its
// load/unload actions, mutating n.Status and returning the lifecycle
// calls it needs issued. The caller marks n.Checked = true after this
// returns.
func (m *Manager) decideNode(n *graph.Node) []versionAction {
	if n.Status.Kind == types.StatusCycleError {
		return nil
	}
	if len(n.MissingUpstreams) > 0 {
		n.Status = types.NewStatus(types.StatusDependencyFailed, "missing upstream(s): "+joinNames(n.MissingUpstreams))
		graphDependencyFailedTotal.Inc()
		return unloadAllVersions(n)
	}
	for u, required := range n.Upstreams {
		if !u.Status.IsOK() {
			n.Status = types.NewStatus(types.StatusDependencyFailed, "upstream "+u.ID.String()+" is not OK")
			graphDependencyFailedTotal.Inc()
			return unloadAllVersions(n)
		}
		if !required.Intersects(u.LoadedVersions) {
			n.Status = types.NewStatus(types.StatusDependencyFailed, "upstream "+u.ID.String()+" has no satisfying loaded version")
			graphDependencyFailedTotal.Inc()
			return unloadAllVersions(n)
		}
	}

	info, ok := m.infos[n.ID]
	if !ok {
		n.Status = types.OK
		return unloadAllVersions(n)
	}

	want := desiredVersions(info)
	wantSet := make(map[int64]struct{}, len(want))
	for _, v := range want {
		wantSet[v] = struct{}{}
	}

	var actions []versionAction
	for v := range wantSet {
		if _, loaded := n.LoadedVersions[v]; !loaded {
			actions = append(actions, versionAction{id: n.ID, version: v, load: true, cfg: info.ModelConfig})
		}
	}
	for v := range n.LoadedVersions {
		if _, wanted := wantSet[v]; !wanted {
			actions = append(actions, versionAction{id: n.ID, version: v, load: false})
		}
	}
	n.Status = types.OK
	return actions
}

func joinNames(set map[string]struct{}) string {
	out := ""
	for name := range set {
		if out != "" {
			out += ","
		}
		out += name
	}
	return out
}

// issueActions runs every action concurrently, bounded by
// schedulerConcurrency, and returns the ids whose LoadedVersions should
// be refreshed plus a failure status for each id with a failed action.
func (m *Manager) issueActions(ctx context.Context, actions []versionAction) (touched map[types.ModelIdentifier]struct{}, failures map[types.ModelIdentifier]types.Status) {
	touched = make(map[types.ModelIdentifier]struct{})
	failures = make(map[types.ModelIdentifier]types.Status)
	if len(actions) == 0 {
		return touched, failures
	}
	sem := make(chan struct{}, m.schedulerConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, act := range actions {
		act := act
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var st types.Status
			var err error
			if act.load {
				st, err = m.lifecycle.Load(ctx, act.id, act.version, act.cfg)
				graphLoadsTotal.Inc()
				m.publisher.Publish(Event{Name: "load_issued", ModelID: act.id.String(), Fields: map[string]any{"version": act.version}})
			} else {
				st, err = m.lifecycle.Unload(ctx, act.id, act.version)
				graphUnloadsTotal.Inc()
				m.publisher.Publish(Event{Name: "unload_issued", ModelID: act.id.String(), Fields: map[string]any{"version": act.version}})
			}
			if err != nil {
				st = types.NewStatus(types.StatusDependencyFailed, err.Error())
			}
			mu.Lock()
			touched[act.id] = struct{}{}
			if !st.IsOK() {
				failures[act.id] = st
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return touched, failures
}

// refreshLoadedVersions pulls current version state from the lifecycle
// collaborator for every touched node and updates n.LoadedVersions.
func (m *Manager) refreshLoadedVersions(touched map[types.ModelIdentifier]struct{}) {
	for id := range touched {
		n, ok := m.graph.Node(id)
		if !ok {
			continue
		}
		vs, err := m.lifecycle.VersionStates(id.Name)
		if err != nil {
			n.LoadedVersions = graph.NewVersionSet(nil)
			continue
		}
		var loaded []int64
		for v, state := range vs {
			if state.State == types.ModelStateReady {
				loaded = append(loaded, v)
			}
		}
		n.LoadedVersions = graph.NewVersionSet(loaded)
	}
}

// loadModelByDependency is the fixed-point load/unload scheduler.
// Callers must hold pollMu.
func (m *Manager) loadModelByDependency(ctx context.Context) map[string]types.Status {
	results := make(map[string]types.Status)

	frontier := graph.NewIDSet(nil)
	for _, n := range m.graph.AllNodes() {
		if !n.Checked {
			frontier.Add(n.ID)
		}
	}

	for len(frontier) > 0 {
		iterStart := time.Now()
		var ready []*graph.Node
		blocked := graph.NewIDSet(nil)
		for id := range frontier {
			n, ok := m.graph.Node(id)
			if !ok {
				continue
			}
			if upstreamsChecked(n) {
				ready = append(ready, n)
			} else {
				blocked.Add(id)
			}
		}
		if len(ready) == 0 {
			// Every remaining node is waiting on an upstream that itself
			// never becomes checked this pass (e.g. a missing reference
			// healed by a future poll); stop rather than spin forever.
			break
		}

		var actions []versionAction
		for _, n := range ready {
			actions = append(actions, m.decideNode(n)...)
		}
		touched, failures := m.issueActions(ctx, actions)
		for _, n := range ready {
			n.Checked = true
			if st, failed := failures[n.ID]; failed {
				n.Status = st
				graphDependencyFailedTotal.Inc()
				m.publisher.Publish(Event{Name: "dependency_failed", ModelID: n.ID.String(), Fields: map[string]any{"reason": st.Message}})
			}
		}
		m.refreshLoadedVersions(touched)

		for _, n := range ready {
			results[n.ID.String()] = n.Status
		}

		nextFrontier := graph.NewIDSet(nil)
		for _, n := range ready {
			for d := range n.Downstreams {
				if !d.Checked {
					nextFrontier.Add(d.ID)
				}
			}
		}
		for id := range blocked {
			nextFrontier.Add(id)
		}
		frontier = nextFrontier
		schedulerIterationDuration.Observe(time.Since(iterStart).Seconds())
	}

	return results
}
