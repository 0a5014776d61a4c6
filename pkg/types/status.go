package types

// StatusKind enumerates the result kinds the manager and graph can produce.
// Propagation notes are documented per-value; all are recoverable locally
// unless stated otherwise.
type StatusKind int

const (
	// StatusOK indicates success or "no problem found".
	StatusOK StatusKind = iota
	// StatusInvalidArg marks a malformed request, e.g. an unknown action.
	StatusInvalidArg
	// StatusNotFound marks a load of an unknown model, unload of a model
	// never loaded, or unregister of an unknown repository.
	StatusNotFound
	// StatusAlreadyExists marks a duplicate repository path or a model name
	// collision.
	StatusAlreadyExists
	// StatusUnsupported marks a control API disabled for the current mode.
	StatusUnsupported
	// StatusConfigInvalid marks a model config that failed validation; the
	// owning node is marked failed, the manager keeps running.
	StatusConfigInvalid
	// StatusCycleError marks a dependency cycle; the owning nodes are marked
	// failed, the manager keeps running.
	StatusCycleError
	// StatusDependencyFailed marks a node whose upstream did not load
	// successfully; propagated to every transitive downstream.
	StatusDependencyFailed
	// StatusInternal marks a bug: a state the manager should never produce.
	StatusInternal
	// StatusAmbiguous marks a namespace-free GetModel lookup that matched
	// more than one namespace.
	StatusAmbiguous
)

func (k StatusKind) String() string {
	switch k {
	case StatusOK:
		return "OK"
	case StatusInvalidArg:
		return "INVALID_ARG"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusAlreadyExists:
		return "ALREADY_EXISTS"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusConfigInvalid:
		return "CONFIG_INVALID"
	case StatusCycleError:
		return "CYCLE_ERROR"
	case StatusDependencyFailed:
		return "DEPENDENCY_FAILED"
	case StatusInternal:
		return "INTERNAL"
	case StatusAmbiguous:
		return "AMBIGUOUS"
	default:
		return "UNKNOWN"
	}
}

// Status is a structured result: a kind plus a human-readable message. It
// travels through per-model result maps instead of a plain Go error so
// callers can inspect the kind without type assertions.
type Status struct {
	Kind    StatusKind
	Message string
}

// OK is the zero-message success status.
var OK = Status{Kind: StatusOK}

// NewStatus builds a Status with a message.
func NewStatus(kind StatusKind, msg string) Status {
	return Status{Kind: kind, Message: msg}
}

// IsOK reports whether the status represents success.
func (s Status) IsOK() bool { return s.Kind == StatusOK }

// Error implements the error interface so Status can be used as a Go error
// when convenient.
func (s Status) Error() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + ": " + s.Message
}

// Err returns nil for OK, otherwise the Status itself as an error.
func (s Status) Err() error {
	if s.IsOK() {
		return nil
	}
	return s
}
