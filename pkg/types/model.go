package types

import "time"

// VersionPolicyKind selects which versions of a model should be served.
type VersionPolicyKind int

const (
	// VersionPolicyLatest serves only the highest-numbered version directory.
	VersionPolicyLatest VersionPolicyKind = iota
	// VersionPolicySpecific serves exactly the versions named in Versions.
	VersionPolicySpecific
	// VersionPolicyAll serves every version directory found.
	VersionPolicyAll
)

// VersionPolicy mirrors the "latest" / "specific" / "all" choice a model
// config makes about which version directories it wants served.
type VersionPolicy struct {
	Kind     VersionPolicyKind
	Versions []int64 // only meaningful when Kind == VersionPolicySpecific
}

// UpstreamReference names a composing model an ensemble depends on. Versions
// is the set of versions the ensemble requires to be loaded upstream; an
// empty set means "any loaded version satisfies this reference".
type UpstreamReference struct {
	Namespace string  `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string  `json:"name" yaml:"name" toml:"name"`
	Versions  []int64 `json:"versions,omitempty" yaml:"versions,omitempty" toml:"versions,omitempty"`
}

// ModelConfig is the opaque structured value a repository config file
// decodes into. The Dependency Graph only ever reads Upstreams; everything
// else is passed through to the lifecycle collaborator unexamined.
//
// YAML/JSON/TOML configs decode into internal/poller's rawConfig, and HCL
// configs into a dedicated shape there (gohcl requires an hcl tag on every
// field, which would otherwise force VersionPolicy to carry one too); both
// are converted into this type afterwards.
type ModelConfig struct {
	// Platform/Backend names the runtime responsible for loading this model,
	// e.g. "llama.cpp" for a leaf model or "ensemble" for a composing one.
	Platform string `json:"platform" yaml:"platform" toml:"platform"`
	// Path is the on-disk model file (leaf models only).
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	// VersionPolicy controls which version directories are active.
	VersionPolicy VersionPolicy `json:"-" yaml:"-" toml:"-"`
	// Parameters carries free-form backend options (ctx size, threads, ...).
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	// Upstreams lists the composing models this config references. A
	// non-empty list marks this model as an ensemble.
	Upstreams []UpstreamReference `json:"upstreams,omitempty" yaml:"upstreams,omitempty" toml:"upstreams,omitempty"`
}

// IsEnsemble reports whether this config declares any upstream reference.
func (c ModelConfig) IsEnsemble() bool { return len(c.Upstreams) > 0 }

// ModelInfo is an immutable snapshot produced by the poller per refresh.
type ModelInfo struct {
	ID              ModelIdentifier
	ModelConfig     ModelConfig
	ExplicitlyLoad  bool
	AgentModelList  []int64 // version directories discovered on disk
	ModTime         time.Time
}

// ModelIndex describes one entry in a repository index listing: either a
// name-only placeholder for a model the manager has never evaluated, or a
// full (name, version, state, reason) tuple.
type ModelIndex struct {
	NameOnly bool
	Name     string
	Version  int64
	State    ModelReadyState
	Reason   string
}
