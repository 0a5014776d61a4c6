package graph

import "modelrepomgr/pkg/types"

// IDSet is a set of model identifiers, the currency most Graph operations
// traffic in (affected/removed/added sets).
type IDSet map[types.ModelIdentifier]struct{}

// NewIDSet builds an IDSet from a slice.
func NewIDSet(ids []types.ModelIdentifier) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id types.ModelIdentifier)    { s[id] = struct{}{} }
func (s IDSet) Remove(id types.ModelIdentifier) { delete(s, id) }
func (s IDSet) Has(id types.ModelIdentifier) bool {
	_, ok := s[id]
	return ok
}
func (s IDSet) Slice() []types.ModelIdentifier {
	out := make([]types.ModelIdentifier, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// InfoSource supplies the freshly-polled ModelInfo for an identifier. The
// manager implements this by looking up its own infos_ map; the graph never
// polls anything itself.
type InfoSource interface {
	GetModelInfo(id types.ModelIdentifier) (types.ModelInfo, bool)
}

// Graph owns every DependencyNode plus the two auxiliary indices needed to
// resolve upstream references: a name index (for fuzzy matching) and a
// missing-upstream index (so a newly-added node can wake the nodes that
// were waiting on it).
//
// Graph is not safe for concurrent use; callers serialize access externally
// (the manager's poll_mu).
type Graph struct {
	nodes        map[types.ModelIdentifier]*Node
	byName       map[string]IDSet
	missingIndex map[string]IDSet
}

// New builds an empty graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[types.ModelIdentifier]*Node),
		byName:       make(map[string]IDSet),
		missingIndex: make(map[string]IDSet),
	}
}

// Node returns the node for id, if any.
func (g *Graph) Node(id types.ModelIdentifier) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes currently in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// AllNodes returns every node in the graph. The returned slice is a fresh
// copy; callers may not mutate the graph's internal maps through it.
func (g *Graph) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// NodesByName returns every node registered under the given bare name,
// across all namespaces. Used by callers (GetModel) that need to detect
// a namespace-free lookup matching more than one namespace.
func (g *Graph) NodesByName(name string) []*Node {
	ids, ok := g.byName[name]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(ids))
	for id := range ids {
		if n, ok := g.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) addToByName(id types.ModelIdentifier) {
	s, ok := g.byName[id.Name]
	if !ok {
		s = IDSet{}
		g.byName[id.Name] = s
	}
	s.Add(id)
}

func (g *Graph) removeFromByName(id types.ModelIdentifier) {
	s, ok := g.byName[id.Name]
	if !ok {
		return
	}
	s.Remove(id)
	if len(s) == 0 {
		delete(g.byName, id.Name)
	}
}

func (g *Graph) addToMissingIndex(name string, id types.ModelIdentifier) {
	s, ok := g.missingIndex[name]
	if !ok {
		s = IDSet{}
		g.missingIndex[name] = s
	}
	s.Add(id)
}

func (g *Graph) removeFromMissingIndex(name string, id types.ModelIdentifier) {
	s, ok := g.missingIndex[name]
	if !ok {
		return
	}
	s.Remove(id)
	if len(s) == 0 {
		delete(g.missingIndex, name)
	}
}

// FindNode looks up id exactly. If not found and allowFuzzy is set, it
// consults the name index: when exactly one node anywhere in the graph
// shares id.Name, that node is returned. Fuzzy match only ever fires when
// namespacing is enabled and the caller left the reference's namespace
// blank/wildcard — ConnectUpstreams is responsible for that gating, not
// FindNode itself.
func (g *Graph) FindNode(id types.ModelIdentifier, allowFuzzy bool) (*Node, bool) {
	if n, ok := g.nodes[id]; ok {
		return n, true
	}
	if !allowFuzzy {
		return nil, false
	}
	candidates, ok := g.byName[id.Name]
	if !ok || len(candidates) != 1 {
		return nil, false
	}
	for cand := range candidates {
		n, ok := g.nodes[cand]
		return n, ok
	}
	return nil, false
}

// AddNodes creates a fresh node for each id, populated from infoSource, and
// returns the set of nodes that need (re-)evaluation: the added ids
// themselves plus any node that was waiting on one of these names via
// missingIndex. AddNodes never connects upstream edges itself — that is
// the caller's job via ConnectUpstreams, once every add/update/remove for
// this round has landed.
func (g *Graph) AddNodes(ids IDSet, infoSource InfoSource) IDSet {
	affected := make(IDSet, len(ids))
	for id := range ids {
		info, ok := infoSource.GetModelInfo(id)
		n := newNode(id)
		if ok {
			n.ModelConfig = info.ModelConfig
			n.ExplicitlyLoad = info.ExplicitlyLoad
		}
		g.nodes[id] = n
		g.addToByName(id)
		affected.Add(id)

		if waiters, ok := g.missingIndex[id.Name]; ok {
			for waiterID := range waiters {
				waiter, ok := g.nodes[waiterID]
				if !ok {
					continue
				}
				g.uncheckDownstreamSet(map[*Node]struct{}{waiter: {}})
				affected.Add(waiterID)
			}
		}
	}
	return affected
}

// UpdateNodes refreshes the config/explicitly-load flag of each existing
// node named in ids, drops its upstream edges (to be rebuilt by
// ConnectUpstreams), clears checked/status, and unchecks its downstreams.
// Returns the set of ids that were actually present and updated.
func (g *Graph) UpdateNodes(ids IDSet, infoSource InfoSource) IDSet {
	updated := make(IDSet, len(ids))
	for id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}

		g.uncheckDownstreamSet(n.Downstreams)

		for upstream := range n.Upstreams {
			upstream.disconnectDownstream(n)
		}
		for name := range n.MissingUpstreams {
			g.removeFromMissingIndex(name, id)
		}

		if info, ok := infoSource.GetModelInfo(id); ok {
			n.ModelConfig = info.ModelConfig
			n.ExplicitlyLoad = info.ExplicitlyLoad
		}
		n.Upstreams = make(map[*Node]VersionSet)
		n.MissingUpstreams = make(map[string]struct{})
		n.FuzzyMatchedUpstreams = make(map[string]struct{})
		n.Checked = false
		n.Status = types.OK

		updated.Add(id)
	}
	return updated
}

// RemoveNode deletes the node for id from the graph (no-op if absent) and
// returns the identifiers of its former upstreams and downstreams, so the
// caller can decide whether to cascade removal to the former (if they're
// now dependency-only and dangling) or re-evaluate the latter.
func (g *Graph) RemoveNode(id types.ModelIdentifier) (upstreams, downstreams IDSet) {
	upstreams = IDSet{}
	downstreams = IDSet{}
	n, ok := g.nodes[id]
	if !ok {
		return upstreams, downstreams
	}

	for upstream := range n.Upstreams {
		upstream.disconnectDownstream(n)
		upstreams.Add(upstream.ID)
	}

	g.uncheckDownstreamSet(n.Downstreams)
	for downstream := range n.Downstreams {
		downstream.disconnectUpstream(n)
		downstreams.Add(downstream.ID)
	}

	for name := range n.MissingUpstreams {
		g.removeFromMissingIndex(name, id)
	}

	delete(g.nodes, id)
	g.removeFromByName(id)
	return upstreams, downstreams
}

// RemoveNodes removes the given ids breadth-first: after removing a
// frontier, any former upstream that cascading allows (non-explicitly-load,
// now with no downstreams) joins the next frontier. Returns the set of
// existing nodes to re-evaluate (downstreams of anything removed, minus
// whatever was itself removed) and the set of everything actually removed.
func (g *Graph) RemoveNodes(ids IDSet, cascading bool) (affected IDSet, removed IDSet) {
	affected = IDSet{}
	removed = IDSet{}
	frontier := make(IDSet, len(ids))
	for id := range ids {
		frontier.Add(id)
	}

	for len(frontier) > 0 {
		next := IDSet{}
		for id := range frontier {
			upstreams, downstreams := g.RemoveNode(id)

			if cascading {
				for upstreamID := range upstreams {
					u, ok := g.nodes[upstreamID]
					if ok && len(u.Downstreams) == 0 && !u.ExplicitlyLoad {
						next.Add(upstreamID)
					}
				}
			}

			for downID := range downstreams {
				affected.Add(downID)
			}

			removed.Add(id)
			affected.Remove(id)
		}
		frontier = next
	}
	return affected, removed
}

// UncheckDownstream recursively clears Checked (and resets Status to OK)
// for every node reachable from ids through Downstreams edges, stopping
// the recursion at any node that is already unchecked. Because a cycle can
// only exist among checked+OK nodes, the "already unchecked" stop
// condition is sufficient to guarantee termination without an additional
// visited-set.
func (g *Graph) UncheckDownstream(ids IDSet) {
	nodes := make(map[*Node]struct{}, len(ids))
	for id := range ids {
		if n, ok := g.nodes[id]; ok {
			nodes[n] = struct{}{}
		}
	}
	g.uncheckDownstreamSet(nodes)
}

func (g *Graph) uncheckDownstreamSet(nodes map[*Node]struct{}) {
	for n := range nodes {
		if !n.Checked {
			continue
		}
		n.Checked = false
		n.Status = types.OK
		g.uncheckDownstreamSet(n.Downstreams)
	}
}

// ConnectUpstreams re-resolves n's declared upstream references from its
// ModelConfig, replacing whatever edges it already has. Returns true iff
// the config declares at least one upstream (i.e. n is an ensemble).
//
// namespacingEnabled gates fuzzy matching: fuzzy resolution is attempted
// only when namespacing is on and the reference itself left its namespace
// blank, so an unnamespaced reference resolves across namespaces only
// under namespacing.
func (g *Graph) ConnectUpstreams(n *Node, namespacingEnabled bool) bool {
	for name := range n.MissingUpstreams {
		g.removeFromMissingIndex(name, n.ID)
	}
	for u := range n.Upstreams {
		u.disconnectDownstream(n)
	}
	n.Upstreams = make(map[*Node]VersionSet)
	n.MissingUpstreams = make(map[string]struct{})
	n.FuzzyMatchedUpstreams = make(map[string]struct{})

	for _, ref := range n.ModelConfig.Upstreams {
		want := types.ModelIdentifier{Namespace: ref.Namespace, Name: ref.Name}
		allowFuzzy := namespacingEnabled && ref.Namespace == ""

		u, ok := g.FindNode(want, allowFuzzy)
		if !ok {
			n.MissingUpstreams[ref.Name] = struct{}{}
			g.addToMissingIndex(ref.Name, n.ID)
			continue
		}

		n.Upstreams[u] = NewVersionSet(ref.Versions)
		u.Downstreams[n] = struct{}{}
		if _, exact := g.nodes[want]; !exact {
			n.FuzzyMatchedUpstreams[ref.Name] = struct{}{}
		}
	}

	return n.ModelConfig.IsEnsemble()
}

// CircularityCheck runs a DFS from n through Downstreams looking for a path
// back to n. If one is found, n is marked CYCLE_ERROR/checked so the
// scheduler will never attempt to load it, and the status is returned.
// Must be called after ConnectUpstreams for every newly-connected node.
func (g *Graph) CircularityCheck(n *Node) types.Status {
	visited := make(map[*Node]struct{})
	var visit func(cur *Node) bool
	visit = func(cur *Node) bool {
		for down := range cur.Downstreams {
			if down == n {
				return true
			}
			if _, seen := visited[down]; seen {
				continue
			}
			visited[down] = struct{}{}
			if visit(down) {
				return true
			}
		}
		return false
	}

	if visit(n) {
		n.Status = types.NewStatus(types.StatusCycleError, "circular dependency detected at "+n.ID.String())
		n.Checked = true
		return n.Status
	}
	return types.OK
}
