package graph

import "modelrepomgr/pkg/types"

// VersionSet is a required- or loaded-version set, keyed by version number.
type VersionSet map[int64]struct{}

// NewVersionSet builds a VersionSet from a slice of versions. An empty or
// nil slice means "any version satisfies this".
func NewVersionSet(versions []int64) VersionSet {
	vs := make(VersionSet, len(versions))
	for _, v := range versions {
		vs[v] = struct{}{}
	}
	return vs
}

// Intersects reports whether vs and other share at least one version. An
// empty vs means "any version": it then reports whether other is non-empty.
func (vs VersionSet) Intersects(other VersionSet) bool {
	if len(vs) == 0 {
		return len(other) > 0
	}
	for v := range vs {
		if _, ok := other[v]; ok {
			return true
		}
	}
	return false
}

// Equal reports whether vs and other contain exactly the same versions.
func (vs VersionSet) Equal(other VersionSet) bool {
	if len(vs) != len(other) {
		return false
	}
	for v := range vs {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Node is a vertex in the dependency graph: one per model known to the
// repository manager, whether or not it has ever been successfully loaded.
//
// Edges (Upstreams/Downstreams) are non-owning: the Graph's nodes map is the sole
// owner of Node values, edges are just pointers into that map so removal
// can't leave a dangling reference anywhere else.
type Node struct {
	ID types.ModelIdentifier

	ModelConfig    types.ModelConfig
	ExplicitlyLoad bool

	Status  types.Status
	Checked bool

	LoadedVersions VersionSet

	// Upstreams maps each upstream node this node depends on to the set of
	// versions required from it.
	Upstreams map[*Node]VersionSet
	// Downstreams is the set of nodes whose Upstreams includes this node.
	Downstreams map[*Node]struct{}

	// MissingUpstreams holds the *names* of upstream references that could
	// not be resolved to any node at the last ConnectUpstreams call.
	MissingUpstreams map[string]struct{}
	// FuzzyMatchedUpstreams holds the names that were resolved via
	// cross-namespace fuzzy match rather than an exact identifier match.
	FuzzyMatchedUpstreams map[string]struct{}
}

// newNode builds a freshly-initialized node ready to be inserted into the
// graph's nodes map. It starts optimistic (status OK) and unchecked.
func newNode(id types.ModelIdentifier) *Node {
	return &Node{
		ID:                    id,
		Status:                types.OK,
		Checked:               false,
		LoadedVersions:        VersionSet{},
		Upstreams:             make(map[*Node]VersionSet),
		Downstreams:           make(map[*Node]struct{}),
		MissingUpstreams:      make(map[string]struct{}),
		FuzzyMatchedUpstreams: make(map[string]struct{}),
	}
}

// IsEnsemble reports whether this node's config declares any upstream
// reference, i.e. whether ConnectUpstreams would attempt to resolve edges
// for it.
func (n *Node) IsEnsemble() bool { return n.ModelConfig.IsEnsemble() }

// disconnectDownstream removes downstream from this node's Downstreams set.
// Plain edge removal; does not touch downstream's Upstreams map.
func (n *Node) disconnectDownstream(downstream *Node) {
	delete(n.Downstreams, downstream)
}

// disconnectUpstream removes upstream from this node's Upstreams map. Plain
// edge removal, to be re-resolved by the caller via ConnectUpstreams.
func (n *Node) disconnectUpstream(upstream *Node) {
	delete(n.Upstreams, upstream)
}
