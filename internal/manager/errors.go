package manager

import "modelrepomgr/pkg/types"

// statusError wraps a types.Status so it can travel as a Go error while
// still carrying its Kind for the IsXxx helpers below.
type statusError struct{ status types.Status }

func (e statusError) Error() string { return e.status.Error() }

// asError wraps a non-OK Status as an error; OK statuses wrap to nil.
func asError(st types.Status) error {
	if st.IsOK() {
		return nil
	}
	return statusError{status: st}
}

func statusOf(err error) (types.Status, bool) {
	se, ok := err.(statusError)
	if !ok {
		return types.Status{}, false
	}
	return se.status, true
}

func isKind(err error, kind types.StatusKind) bool {
	st, ok := statusOf(err)
	return ok && st.Kind == kind
}

// ErrNotFound builds a NOT_FOUND status error (unknown model, repository, ...).
func ErrNotFound(msg string) error { return asError(types.NewStatus(types.StatusNotFound, msg)) }

// IsNotFound reports whether err is a NOT_FOUND status.
func IsNotFound(err error) bool { return isKind(err, types.StatusNotFound) }

// ErrAlreadyExists builds an ALREADY_EXISTS status error.
func ErrAlreadyExists(msg string) error {
	return asError(types.NewStatus(types.StatusAlreadyExists, msg))
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS status.
func IsAlreadyExists(err error) bool { return isKind(err, types.StatusAlreadyExists) }

// ErrUnsupported builds an UNSUPPORTED status error (control API disabled
// for the current mode).
func ErrUnsupported(msg string) error {
	return asError(types.NewStatus(types.StatusUnsupported, msg))
}

// IsUnsupported reports whether err is an UNSUPPORTED status.
func IsUnsupported(err error) bool { return isKind(err, types.StatusUnsupported) }

// ErrInvalidArg builds an INVALID_ARG status error.
func ErrInvalidArg(msg string) error { return asError(types.NewStatus(types.StatusInvalidArg, msg)) }

// IsInvalidArg reports whether err is an INVALID_ARG status.
func IsInvalidArg(err error) bool { return isKind(err, types.StatusInvalidArg) }
