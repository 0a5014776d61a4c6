package httpapi

import (
	"encoding/json"
	"net/http"

	"modelrepomgr/internal/manager"
	"modelrepomgr/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeManagerError maps a manager Status-carrying error to its HTTP status
// code and writes it. Falls back to 500 for anything unrecognized.
func writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case manager.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case manager.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case manager.IsUnsupported(err):
		writeJSONError(w, http.StatusNotImplemented, err.Error())
	case manager.IsInvalidArg(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case manager.IsAmbiguous(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case err != nil:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
