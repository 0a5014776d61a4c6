package poller

import (
	"context"

	"modelrepomgr/pkg/types"
)

// IDSet is a plain set of model identifiers. It is structurally identical
// to graph.IDSet so callers can assign between them without conversion.
type IDSet map[types.ModelIdentifier]struct{}

// PollResult is the outcome of one PollModels call: the added, deleted,
// modified, and unmodified identifier sets plus the fresh ModelInfo for
// every model found in this poll, unmodified ones included.
type PollResult struct {
	Added      IDSet
	Deleted    IDSet
	Modified   IDSet
	Unmodified IDSet
	Infos      map[types.ModelIdentifier]types.ModelInfo
	// AllPolled is false when some models failed to read; their prior state
	// is retained by the caller rather than being treated as deleted.
	AllPolled bool
}

// RepositoryPoller is the abstract source of model deltas the manager
// drives. An empty `requested` set means "poll the whole repository"
// (polling mode); a non-empty set restricts the poll to those names
// (explicit-control mode: one call carries all LoadUnloadModel targets).
type RepositoryPoller interface {
	PollModels(ctx context.Context, requested IDSet) (PollResult, error)
}
