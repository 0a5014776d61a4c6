package manager

import (
	"modelrepomgr/internal/lifecycle"
	"modelrepomgr/pkg/types"
)

// LiveModelStates delegates straight to the lifecycle collaborator; the
// manager's role in every read operation is only to enumerate models it
// knows about, never to hold its own copy of load state. Bypasses pollMu
// entirely.
func (m *Manager) LiveModelStates(strict bool) (types.ModelStateMap, error) {
	return m.lifecycle.LiveModelStates(strict)
}

func (m *Manager) ModelStates() (types.ModelStateMap, error) {
	return m.lifecycle.ModelStates()
}

func (m *Manager) VersionStates(name string) (types.VersionStateMap, error) {
	return m.lifecycle.VersionStates(name)
}

func (m *Manager) ModelState(name string, version int64) (types.VersionState, error) {
	return m.lifecycle.ModelState(name, version)
}

// GetModel resolves a (namespace,) name, version lookup against the
// dependency graph to catch the namespacing-disabled-but-ambiguous case
// before delegating to the lifecycle collaborator.
func (m *Manager) GetModel(id types.ModelIdentifier, version int64) (lifecycle.ModelHandle, error) {
	if !m.namespacingEnabled && id.Namespace == "" {
		m.pollMu.Lock()
		matches := m.graph.NodesByName(id.Name)
		m.pollMu.Unlock()
		if len(matches) > 1 {
			return lifecycle.ModelHandle{}, ErrAmbiguous(id.Name)
		}
	}
	handle, err := m.lifecycle.GetModel(id, version)
	if err != nil {
		return lifecycle.ModelHandle{}, err
	}
	return handle, nil
}

// ErrAmbiguous builds an AMBIGUOUS status error, distinct from the
// lifecycle package's own NOT_FOUND/UNAVAILABLE errors.
func ErrAmbiguous(msg string) error {
	return asError(types.NewStatus(types.StatusAmbiguous, msg))
}

// IsAmbiguous reports whether err is an AMBIGUOUS status.
func IsAmbiguous(err error) bool { return isKind(err, types.StatusAmbiguous) }

// RepositoryIndex enumerates every model the manager knows about, plus
// models discovered on disk but rejected because they collide across
// repositories. readyOnly restricts the listing to models with at least
// one ready version.
func (m *Manager) RepositoryIndex(readyOnly bool) ([]types.ModelIndex, error) {
	m.pollMu.Lock()
	nodes := m.graph.AllNodes()
	m.pollMu.Unlock()

	states, err := m.lifecycle.ModelStates()
	if err != nil {
		return nil, err
	}

	var out []types.ModelIndex
	for _, n := range nodes {
		vm, ok := states[n.ID.String()]
		if !ok || len(vm) == 0 {
			if readyOnly {
				continue
			}
			out = append(out, types.ModelIndex{NameOnly: true, Name: n.ID.String()})
			continue
		}
		for v, vs := range vm {
			if readyOnly && vs.State != types.ModelStateReady {
				continue
			}
			out = append(out, types.ModelIndex{
				Name:    n.ID.String(),
				Version: v,
				State:   vs.State,
				Reason:  vs.Status.Message,
			})
		}
	}

	if reg, ok := m.poller.(duplicateReporter); ok && !readyOnly {
		for id, roots := range reg.DuplicateModels() {
			out = append(out, types.ModelIndex{
				NameOnly: true,
				Name:     id.String(),
				Reason:   "model appears in two or more repositories",
			})
			_ = roots
		}
	}
	return out, nil
}

// duplicateReporter is implemented by pollers that can detect the same
// model name served from more than one repository root.
type duplicateReporter interface {
	DuplicateModels() map[types.ModelIdentifier][]string
}

// ListModels returns the public projection of every node currently in the
// dependency graph, read-facing and state-agnostic (callers wanting load
// state should consult ModelStates/VersionStates alongside this).
func (m *Manager) ListModels() []types.Model {
	m.pollMu.Lock()
	nodes := m.graph.AllNodes()
	m.pollMu.Unlock()

	out := make([]types.Model, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, types.Model{
			Name:      n.ID.Name,
			Namespace: n.ID.Namespace,
			Platform:  n.ModelConfig.Platform,
			Ensemble:  n.ModelConfig.IsEnsemble(),
		})
	}
	return out
}
