package graph

import (
	"testing"

	"modelrepomgr/pkg/types"
)

// fakeInfoSource is a minimal InfoSource backed by a map, for tests.
type fakeInfoSource map[types.ModelIdentifier]types.ModelInfo

func (f fakeInfoSource) GetModelInfo(id types.ModelIdentifier) (types.ModelInfo, bool) {
	info, ok := f[id]
	return info, ok
}

func id(name string) types.ModelIdentifier { return types.NewIdentifier(name) }

func nsid(ns, name string) types.ModelIdentifier {
	return types.ModelIdentifier{Namespace: ns, Name: name}
}

func upstreamConfig(refs ...types.UpstreamReference) types.ModelConfig {
	return types.ModelConfig{Upstreams: refs}
}

func TestAddNodesBasic(t *testing.T) {
	g := New()
	src := fakeInfoSource{id("a"): {ID: id("a"), ExplicitlyLoad: true}}
	affected := g.AddNodes(NewIDSet([]types.ModelIdentifier{id("a")}), src)

	if !affected.Has(id("a")) {
		t.Fatalf("expected a in affected set")
	}
	n, ok := g.Node(id("a"))
	if !ok {
		t.Fatalf("node a not found")
	}
	if !n.ExplicitlyLoad {
		t.Fatalf("expected explicitly_load true")
	}
	if n.Checked {
		t.Fatalf("new node should start unchecked")
	}
	if !n.Status.IsOK() {
		t.Fatalf("new node should start OK, got %v", n.Status)
	}
}

func TestEnsembleMissingUpstreamThenHealed(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		id("E"): {ID: id("E"), ModelConfig: upstreamConfig(types.UpstreamReference{Name: "M"})},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{id("E")}), src)
	e, _ := g.Node(id("E"))

	isEnsemble := g.ConnectUpstreams(e, false)
	if !isEnsemble {
		t.Fatalf("expected E to be recognized as an ensemble")
	}
	if _, missing := e.MissingUpstreams["M"]; !missing {
		t.Fatalf("expected M in missing_upstreams")
	}
	if len(e.Upstreams) != 0 {
		t.Fatalf("expected no resolved upstreams yet")
	}

	// Now add M: E should become an affected/waiting node.
	src2 := fakeInfoSource{id("M"): {ID: id("M")}}
	affected := g.AddNodes(NewIDSet([]types.ModelIdentifier{id("M")}), src2)
	if !affected.Has(id("E")) {
		t.Fatalf("expected E to wake up once M appears, affected=%v", affected)
	}

	m, _ := g.Node(id("M"))
	g.ConnectUpstreams(e, false)
	if _, missing := e.MissingUpstreams["M"]; missing {
		t.Fatalf("expected M no longer missing after resolution")
	}
	if _, ok := e.Upstreams[m]; !ok {
		t.Fatalf("expected E to have M as resolved upstream")
	}
	if len(g.missingIndex) != 0 {
		t.Fatalf("expected missing index to be empty after healing, got %v", g.missingIndex)
	}
}

func TestCycleDetection(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		id("A"): {ID: id("A"), ModelConfig: upstreamConfig(types.UpstreamReference{Name: "B"})},
		id("B"): {ID: id("B"), ModelConfig: upstreamConfig(types.UpstreamReference{Name: "A"})},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{id("A"), id("B")}), src)
	a, _ := g.Node(id("A"))
	b, _ := g.Node(id("B"))

	g.ConnectUpstreams(a, false)
	g.ConnectUpstreams(b, false)

	st := g.CircularityCheck(a)
	if st.Kind != types.StatusCycleError {
		t.Fatalf("expected CYCLE_ERROR, got %v", st)
	}
	if !a.Checked {
		t.Fatalf("cyclic node should be marked checked so the scheduler skips it")
	}
}

func TestCascadingUnload(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		id("E"): {ID: id("E"), ExplicitlyLoad: true, ModelConfig: upstreamConfig(types.UpstreamReference{Name: "M"})},
		id("M"): {ID: id("M"), ExplicitlyLoad: false},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{id("E"), id("M")}), src)
	e, _ := g.Node(id("E"))
	g.ConnectUpstreams(e, false)

	affected, removed := g.RemoveNodes(NewIDSet([]types.ModelIdentifier{id("E")}), true)
	if !removed.Has(id("E")) || !removed.Has(id("M")) {
		t.Fatalf("expected both E and M removed via cascade, removed=%v", removed)
	}
	if affected.Has(id("E")) || affected.Has(id("M")) {
		t.Fatalf("removed nodes must not also appear in affected, affected=%v", affected)
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty graph after cascade, len=%d", g.Len())
	}
}

func TestNoCascadeWhenExplicitlyLoaded(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		id("E"): {ID: id("E"), ExplicitlyLoad: true, ModelConfig: upstreamConfig(types.UpstreamReference{Name: "M"})},
		id("M"): {ID: id("M"), ExplicitlyLoad: true},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{id("E"), id("M")}), src)
	e, _ := g.Node(id("E"))
	g.ConnectUpstreams(e, false)

	_, removed := g.RemoveNodes(NewIDSet([]types.ModelIdentifier{id("E")}), true)
	if !removed.Has(id("E")) {
		t.Fatalf("expected E removed")
	}
	if removed.Has(id("M")) {
		t.Fatalf("M is explicitly loaded, must not be cascaded away")
	}
	if _, ok := g.Node(id("M")); !ok {
		t.Fatalf("M should still exist in the graph")
	}
}

func TestFuzzyCrossNamespaceMatch(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		nsid("ns1", "E"): {ID: nsid("ns1", "E"), ModelConfig: upstreamConfig(types.UpstreamReference{Name: "M"})},
		nsid("ns2", "M"): {ID: nsid("ns2", "M")},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{nsid("ns1", "E"), nsid("ns2", "M")}), src)
	e, _ := g.Node(nsid("ns1", "E"))

	g.ConnectUpstreams(e, true)
	if _, ok := e.FuzzyMatchedUpstreams["M"]; !ok {
		t.Fatalf("expected M to be fuzzy-matched")
	}
	if len(e.MissingUpstreams) != 0 {
		t.Fatalf("expected no missing upstreams, got %v", e.MissingUpstreams)
	}

	// A second M in a different namespace makes the reference ambiguous.
	src2 := fakeInfoSource{nsid("ns3", "M"): {ID: nsid("ns3", "M")}}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{nsid("ns3", "M")}), src2)
	g.ConnectUpstreams(e, true)
	if _, ok := e.MissingUpstreams["M"]; !ok {
		t.Fatalf("expected M to become missing once ambiguous")
	}
	if len(e.FuzzyMatchedUpstreams) != 0 {
		t.Fatalf("expected fuzzy match to be dropped once ambiguous")
	}
}

func TestUpdateNodesClearsUpstreamsAndUnchecksDownstream(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		id("M"): {ID: id("M")},
		id("E"): {ID: id("E"), ModelConfig: upstreamConfig(types.UpstreamReference{Name: "M"})},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{id("M"), id("E")}), src)
	e, _ := g.Node(id("E"))
	m, _ := g.Node(id("M"))
	g.ConnectUpstreams(m, false)
	g.ConnectUpstreams(e, false)
	e.Checked = true
	m.Checked = true

	updated := g.UpdateNodes(NewIDSet([]types.ModelIdentifier{id("M")}), src)
	if !updated.Has(id("M")) {
		t.Fatalf("expected M in updated set")
	}
	if m.Checked {
		t.Fatalf("updated node must be unchecked")
	}
	if e.Checked {
		t.Fatalf("downstream of updated node must be unchecked too")
	}
	if len(m.Upstreams) != 0 {
		t.Fatalf("expected M's (empty) upstream set to remain empty")
	}
	// UpdateNodes(M) drops only M's own upstream edges; E keeps its edge
	// to M until its own ConnectUpstreams re-runs (that happens only when
	// E is in the affected/modified set).
	if _, ok := e.Upstreams[m]; !ok {
		t.Fatalf("E's own upstream map is only rebuilt when E itself reconnects")
	}
}

func TestRemoveNodeNoOpWhenAbsent(t *testing.T) {
	g := New()
	upstreams, downstreams := g.RemoveNode(id("ghost"))
	if len(upstreams) != 0 || len(downstreams) != 0 {
		t.Fatalf("expected no-op removal of absent node")
	}
}

func TestFindNodeFuzzyRequiresUniqueCandidate(t *testing.T) {
	g := New()
	src := fakeInfoSource{
		nsid("ns1", "M"): {ID: nsid("ns1", "M")},
		nsid("ns2", "M"): {ID: nsid("ns2", "M")},
	}
	g.AddNodes(NewIDSet([]types.ModelIdentifier{nsid("ns1", "M"), nsid("ns2", "M")}), src)
	if _, ok := g.FindNode(id("M"), true); ok {
		t.Fatalf("fuzzy match must fail with two candidates")
	}
}
