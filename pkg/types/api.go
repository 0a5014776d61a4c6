package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found
	Error string `json:"error" example:"model not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// LoadRequest is the body of POST /v1/repository/models/{name}/load.
type LoadRequest struct {
	// Namespace, when namespacing is enabled.
	// example: team-a
	Namespace string `json:"namespace,omitempty" example:"team-a"`
	// Parameters is accepted in the request body but not used: the load
	// handler passes only the model name and namespace to the manager.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// UnloadRequest is the body of POST /v1/repository/models/{name}/unload.
type UnloadRequest struct {
	// example: team-a
	Namespace string `json:"namespace,omitempty" example:"team-a"`
	// UnloadDependents cascades the unload to dependency-only models whose
	// last dependent is this one.
	// example: true
	UnloadDependents bool `json:"unload_dependents,omitempty" example:"true"`
}

// RegisterRepositoryRequest is the body of POST /v1/repositories.
type RegisterRepositoryRequest struct {
	// Path is the filesystem path of the repository to register.
	// example: /srv/models/team-a
	Path string `json:"path" example:"/srv/models/team-a"`
	// ModelMapping maps an (overridden) model name to a subdirectory name.
	ModelMapping map[string]string `json:"model_mapping,omitempty"`
}

// ModelIndexEntry is the JSON projection of a types.ModelIndex entry.
type ModelIndexEntry struct {
	// example: ensemble-summarize
	Name    string `json:"name"`
	Version int64  `json:"version,omitempty"`
	// example: READY
	State  string `json:"state,omitempty"`
	Reason string `json:"reason,omitempty" example:"model appears in two or more repositories"`
}

// RepositoryIndexResponse wraps GET /v1/repository/index.
type RepositoryIndexResponse struct {
	Models []ModelIndexEntry `json:"models"`
}

// WriteOpResult is returned by write operations (load/unload/poll) as a
// per-model status map plus an overall status.
type WriteOpResult struct {
	// OperationID uniquely identifies this write operation, for correlating
	// logs and events with the HTTP response that triggered it.
	// example: 7b6b9e0a-6b9a-4e7b-9f7b-7b6b9e0a6b9a
	OperationID string `json:"operation_id"`
	// Overall is "OK" only if every model in PerModel is OK; otherwise it
	// names the kind of one non-OK entry (which one is not defined when
	// several entries fail).
	// example: OK
	Overall string `json:"overall"`
	// PerModel maps model name to the status kind it reached.
	PerModel map[string]string `json:"per_model,omitempty"`
}

// Model is the public, read-facing projection of a known model.
type Model struct {
	// example: ensemble-summarize
	Name string `json:"name"`
	// example: team-a
	Namespace string `json:"namespace,omitempty"`
	// example: llama.cpp
	Platform string `json:"platform,omitempty"`
	Ensemble bool   `json:"ensemble"`
}

// ModelsResponse wraps GET /v1/models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// VersionStateEntry is the JSON projection of one types.VersionState.
type VersionStateEntry struct {
	Version int64  `json:"version"`
	State   string `json:"state"`
	Status  string `json:"status,omitempty"`
}

// ModelStateResponse wraps GET /v1/models/{name}/versions.
type ModelStateResponse struct {
	Name     string              `json:"name"`
	Versions []VersionStateEntry `json:"versions"`
}
