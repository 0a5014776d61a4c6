// Package poller defines the RepositoryPoller abstraction the manager
// consumes to discover models, plus a filesystem-backed implementation
// that scans one or more repository directories for per-model config
// files (YAML, JSON, TOML, or HCL) and version subdirectories.
//
// A RepositoryPoller never mutates manager state; it only ever answers
// "what would the added/deleted/modified/unmodified sets be if you asked
// me about these models right now".
package poller
