package manager

import "modelrepomgr/pkg/types"

// Action names an explicit-mode write request: LOAD or UNLOAD.
type Action string

const (
	ActionLoad   Action = "LOAD"
	ActionUnload Action = "UNLOAD"
)

// WriteResult is the aggregate outcome of one write operation: an overall
// status plus a per-model breakdown: overall is OK iff every requested
// model reached the requested state.
type WriteResult struct {
	Overall  types.Status
	PerModel map[string]types.Status
}
